package bindings

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// GetEventID returns the event signature hash for a given event name
// This is a helper method that works alongside the generated ABI bindings
func (governor *Governor) GetEventID(eventName string) (common.Hash, error) {
	event, exists := governor.abi.Events[eventName]
	if !exists {
		return common.Hash{}, fmt.Errorf("event %s not found", eventName)
	}
	return event.ID, nil
}

// ProposalCreatedTopic returns the topic used to filter ProposalCreated logs.
func (governor *Governor) ProposalCreatedTopic() common.Hash {
	return governor.abi.Events[GovernorProposalCreatedEventName].ID
}

// ABI exposes the parsed governor ABI, used by tests to build fixture logs.
func (governor *Governor) ABI() abi.ABI {
	return governor.abi
}

// ABI exposes the parsed token ABI.
func (governanceToken *GovernanceToken) ABI() abi.ABI {
	return governanceToken.abi
}

func (e *GovernorProposalCreated) String() string {
	return fmt.Sprintf(
		"%s: id=%s proposer=%s voteStart=%s voteEnd=%s",
		e.ContractEventName(),
		e.ProposalId,
		e.Proposer.Hex(),
		e.VoteStart,
		e.VoteEnd,
	)
}
