package models

import (
	"math/big"
	"time"
)

// Proposal is a governor proposal with its vote window and tallies.
type Proposal struct {
	ID          *big.Int `json:"id"`
	Proposer    string   `json:"proposer"`
	Description string   `json:"description"`

	VoteStartBlock     uint64    `json:"voteStartBlock"`
	VoteEndBlock       uint64    `json:"voteEndBlock"`
	VoteStartTimestamp time.Time `json:"voteStartTimestamp"`
	VoteEndTimestamp   time.Time `json:"voteEndTimestamp"`
	// Set when the block had not been mined and the timestamp was projected from the block time.
	VoteStartEstimated bool `json:"voteStartEstimated"`
	VoteEndEstimated   bool `json:"voteEndEstimated"`

	VotesFor     Token `json:"votesFor"`
	VotesAgainst Token `json:"votesAgainst"`
	VotesAbstain Token `json:"votesAbstain"`

	CreatedAtBlock uint64 `json:"createdAtBlock"`
	TxHash         string `json:"txHash,omitempty"`
}

// Key returns the identity used by the proposal store.
func (p *Proposal) Key() string {
	if p == nil || p.ID == nil {
		return ""
	}
	return p.ID.String()
}

// Clone returns a deep copy of the proposal.
func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	c := *p
	if p.ID != nil {
		c.ID = new(big.Int).Set(p.ID)
	}
	return &c
}
