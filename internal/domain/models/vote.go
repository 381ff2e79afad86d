package models

import (
	"fmt"
	"strings"
)

// VoteDecision is the support value passed to castVote.
// Codes follow GovernorCountingSimple: 0 against, 1 for, 2 abstain.
type VoteDecision uint8

const (
	VoteAgainst VoteDecision = 0
	VoteFor     VoteDecision = 1
	VoteAbstain VoteDecision = 2
)

// AllVoteDecisions lists decisions in the order they are offered to users.
var AllVoteDecisions = []VoteDecision{VoteFor, VoteAgainst, VoteAbstain}

// Code returns the on-chain support value.
func (d VoteDecision) Code() uint8 { return uint8(d) }

// Valid reports whether d is a known decision.
func (d VoteDecision) Valid() bool {
	return d <= VoteAbstain
}

func (d VoteDecision) String() string {
	switch d {
	case VoteFor:
		return "for"
	case VoteAgainst:
		return "against"
	case VoteAbstain:
		return "abstain"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(d))
	}
}

// ParseVoteDecision parses for|against|abstain, case-insensitively.
func ParseVoteDecision(s string) (VoteDecision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "for", "yes":
		return VoteFor, nil
	case "against", "no":
		return VoteAgainst, nil
	case "abstain":
		return VoteAbstain, nil
	default:
		return 0, fmt.Errorf("unknown vote decision %q", s)
	}
}
