package usecase

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/timertimertimer/kfudao/internal/domain"
	"github.com/timertimertimer/kfudao/internal/domain/config"
	"github.com/timertimertimer/kfudao/internal/domain/models"
)

// GovernanceTx builds governor transactions and hands them to the wallet
type GovernanceTx struct {
	chain   ChainClient
	codec   GovernorCodec
	session *AccountSession
	board   *ProposalBoard
	votes   *VoteStatusCache
	cfg     *config.RuntimeConfig
	now     func() time.Time
}

// NewGovernanceTx creates a new governance transaction use case
func NewGovernanceTx(
	chain ChainClient,
	codec GovernorCodec,
	session *AccountSession,
	board *ProposalBoard,
	votes *VoteStatusCache,
	cfg *config.RuntimeConfig,
) *GovernanceTx {
	return &GovernanceTx{
		chain:   chain,
		codec:   codec,
		session: session,
		board:   board,
		votes:   votes,
		cfg:     cfg,
		now:     time.Now,
	}
}

// PreparedTx is an encoded governor call waiting to be sent
type PreparedTx struct {
	From string
	To   string
	Data []byte
	// ProposalID is set for votes
	ProposalID *big.Int
}

// CastVote submits castVote(proposalID, decision) from the connected wallet
func (g *GovernanceTx) CastVote(ctx context.Context, proposalID *big.Int, decision models.VoteDecision) (*models.TransactionResult, error) {
	tx, err := g.PrepareVote(ctx, proposalID, decision)
	if err != nil {
		return nil, err
	}
	return g.Submit(ctx, tx)
}

// PrepareVote checks eligibility and encodes the vote without sending it
func (g *GovernanceTx) PrepareVote(ctx context.Context, proposalID *big.Int, decision models.VoteDecision) (*PreparedTx, error) {
	from, err := g.session.RequireConnected()
	if err != nil {
		return nil, err
	}
	if !decision.Valid() {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidDecision, decision)
	}

	view, err := g.board.View(ctx, proposalID, g.now())
	if err != nil {
		return nil, err
	}
	if !view.Eligibility.CanVote {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotEligible, view.Eligibility.Reason)
	}

	data, err := g.codec.EncodeCastVote(proposalID, decision.Code())
	if err != nil {
		return nil, fmt.Errorf("failed to encode castVote: %w", err)
	}
	return &PreparedTx{From: from, To: g.cfg.Contracts.Governor, Data: data, ProposalID: proposalID}, nil
}

// CreateProposal submits propose([from], [0], [0x00], description) from the connected wallet
func (g *GovernanceTx) CreateProposal(ctx context.Context, description string) (*models.TransactionResult, error) {
	tx, err := g.PrepareProposal(ctx, description)
	if err != nil {
		return nil, err
	}
	return g.Submit(ctx, tx)
}

// PrepareProposal encodes a proposal without sending it
func (g *GovernanceTx) PrepareProposal(ctx context.Context, description string) (*PreparedTx, error) {
	from, err := g.session.RequireConnected()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(description) == "" {
		return nil, domain.ErrBlankDescription
	}

	data, err := g.codec.EncodePropose(
		[]string{from},
		[]*big.Int{big.NewInt(0)},
		[][]byte{{0x00}},
		description,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to encode propose: %w", err)
	}
	return &PreparedTx{From: from, To: g.cfg.Contracts.Governor, Data: data}, nil
}

// Submit hands a prepared transaction to the wallet
func (g *GovernanceTx) Submit(ctx context.Context, tx *PreparedTx) (*models.TransactionResult, error) {
	result, err := g.chain.SubmitTransaction(ctx, tx.From, tx.To, tx.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to submit transaction: %w", err)
	}
	if tx.ProposalID != nil {
		g.votes.Invalidate(tx.ProposalID, tx.From)
	}
	return result, nil
}
