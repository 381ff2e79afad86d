package models

import (
	"math/big"
	"time"
)

// Block is the subset of a block header the client needs.
type Block struct {
	Number    uint64
	Timestamp uint64
}

// Time returns the block timestamp as UTC time.
func (b Block) Time() time.Time {
	return time.Unix(int64(b.Timestamp), 0).UTC()
}

// ChainHead is the latest observed block number.
type ChainHead struct {
	Number     uint64    `json:"number"`
	ObservedAt time.Time `json:"observedAt"`
}

// RawProposalEvent is a decoded ProposalCreated log.
type RawProposalEvent struct {
	ProposalID  *big.Int
	Proposer    string
	VoteStart   uint64
	VoteEnd     uint64
	Description string
	BlockNumber uint64
	TxHash      string
}

// TransactionResult is what the wallet returns after accepting a transaction.
type TransactionResult struct {
	Hash string `json:"hash"`
	From string `json:"from"`
	To   string `json:"to"`
}
