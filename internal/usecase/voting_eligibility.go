package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/timertimertimer/kfudao/internal/domain"
	"github.com/timertimertimer/kfudao/internal/domain/models"
)

// ProgressBand buckets vote window progress for display
type ProgressBand string

const (
	BandLow     ProgressBand = "low"
	BandMedium  ProgressBand = "medium"
	BandHigh    ProgressBand = "high"
	BandExpired ProgressBand = "expired"
	// BandNeutral is used once the connected wallet has voted
	BandNeutral ProgressBand = "neutral"
)

// Reasons reported when voting is not possible
const (
	ReasonNotConnected   = "wallet not connected"
	ReasonNotBound       = "wallet not bound to the account"
	ReasonWalletMismatch = "connected wallet differs from the bound address"
	ReasonAlreadyVoted   = "already voted"
	ReasonVotingClosed   = "voting closed"
	ReasonStatusUnknown  = "vote status unavailable"
)

// EligibilityInput is everything needed to evaluate one proposal
type EligibilityInput struct {
	Proposal         *models.Proposal
	WalletConnected  bool
	ConnectedAddress string
	BoundAddress     string
	HasVoted         bool
	Now              time.Time
	Head             models.ChainHead
	HeadKnown        bool
}

// Eligibility is the derived per-proposal state
type Eligibility struct {
	CanVote  bool          `json:"canVote"`
	Reason   string        `json:"reason,omitempty"`
	TimeLeft time.Duration `json:"-"`
	Progress float64       `json:"progress"`
	Band     ProgressBand  `json:"band"`
	IsAuthor bool          `json:"isAuthor"`
}

// TimeLeftSeconds returns the whole seconds until voting ends
func (e Eligibility) TimeLeftSeconds() int64 {
	return int64(e.TimeLeft / time.Second)
}

// EvaluateEligibility derives time left, progress and vote eligibility. It has no side effects.
func EvaluateEligibility(in EligibilityInput) Eligibility {
	var out Eligibility
	if in.Proposal == nil {
		out.Band = BandNeutral
		return out
	}

	remaining := in.Proposal.VoteEndTimestamp.Sub(in.Now)
	if remaining < 0 {
		remaining = 0
	}
	out.TimeLeft = remaining.Truncate(time.Second)
	out.Progress = ComputeProgress(in.Head.Number, in.Proposal.VoteStartBlock, in.Proposal.VoteEndBlock, in.HeadKnown)
	out.Band = BandFor(out.Progress, in.HasVoted)
	out.IsAuthor = in.WalletConnected && SameAddress(in.Proposal.Proposer, in.ConnectedAddress)

	switch {
	case !in.WalletConnected || in.ConnectedAddress == "":
		out.Reason = ReasonNotConnected
	case strings.TrimSpace(in.BoundAddress) == "":
		out.Reason = ReasonNotBound
	case !SameAddress(in.BoundAddress, in.ConnectedAddress):
		out.Reason = ReasonWalletMismatch
	case in.HasVoted:
		out.Reason = ReasonAlreadyVoted
	case !in.Proposal.VoteEndTimestamp.After(in.Now):
		out.Reason = ReasonVotingClosed
	default:
		out.CanVote = true
	}
	return out
}

// ComputeProgress returns (head-start)/(end-start) clamped to [0,1].
// It is 0 when the window is empty or the head is unknown.
func ComputeProgress(head, start, end uint64, headKnown bool) float64 {
	if !headKnown || end <= start {
		return 0
	}
	if head <= start {
		return 0
	}
	p := float64(head-start) / float64(end-start)
	if p > 1 {
		return 1
	}
	return p
}

// BandFor buckets progress into thirds
func BandFor(progress float64, hasVoted bool) ProgressBand {
	switch {
	case hasVoted:
		return BandNeutral
	case progress < 1.0/3.0:
		return BandLow
	case progress < 2.0/3.0:
		return BandMedium
	case progress < 1:
		return BandHigh
	default:
		return BandExpired
	}
}

// SameAddress compares two hex addresses case-insensitively. Empty never matches.
func SameAddress(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

// maxVoteStatusEntries caps the cache; a full cache sheds expired and negative answers first.
const maxVoteStatusEntries = 4096

// VoteStatusCache remembers hasVoted answers per (address, proposal).
// Negative answers are dropped when the session epoch changes or once ttl
// has passed. The app wires ttl to one block refresh interval, so a "not
// voted" answer is re-checked about once per block rather than held until
// the next wallet connect or disconnect. Positive answers are kept until
// Invalidate.
type VoteStatusCache struct {
	chain   ChainClient
	ttl     time.Duration
	now     func() time.Time
	limit   int
	mu      sync.Mutex
	epoch   uint64
	entries map[string]voteStatus
}

type voteStatus struct {
	voted     bool
	checkedAt time.Time
}

// NewVoteStatusCache creates a cache; ttl <= 0 keeps negative answers until the epoch changes
func NewVoteStatusCache(chain ChainClient, ttl time.Duration) *VoteStatusCache {
	return &VoteStatusCache{
		chain:   chain,
		ttl:     ttl,
		now:     time.Now,
		limit:   maxVoteStatusEntries,
		entries: make(map[string]voteStatus),
	}
}

// Observe drops negative answers when the session epoch moved
func (c *VoteStatusCache) Observe(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch == c.epoch {
		return
	}
	c.epoch = epoch
	for key, status := range c.entries {
		if !status.voted {
			delete(c.entries, key)
		}
	}
}

// HasVoted returns the cached answer or asks the chain
func (c *VoteStatusCache) HasVoted(ctx context.Context, proposalID *big.Int, address string) (bool, error) {
	key := voteStatusKey(proposalID, address)

	c.mu.Lock()
	status, ok := c.entries[key]
	if ok && !c.fresh(status) {
		delete(c.entries, key)
		ok = false
	}
	epoch := c.epoch
	c.mu.Unlock()

	if ok {
		return status.voted, nil
	}

	voted, err := c.chain.HasVoted(ctx, proposalID, address)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	if c.epoch == epoch {
		c.store(key, voteStatus{voted: voted, checkedAt: c.now()})
	}
	c.mu.Unlock()
	return voted, nil
}

// Lookup answers from the cache when it can but never adds entries.
// Used for ad-hoc addresses that do not belong to the session.
func (c *VoteStatusCache) Lookup(ctx context.Context, proposalID *big.Int, address string) (bool, error) {
	c.mu.Lock()
	status, ok := c.entries[voteStatusKey(proposalID, address)]
	if ok && !c.fresh(status) {
		ok = false
	}
	c.mu.Unlock()

	if ok {
		return status.voted, nil
	}
	return c.chain.HasVoted(ctx, proposalID, address)
}

// Len reports the number of cached answers
func (c *VoteStatusCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *VoteStatusCache) fresh(status voteStatus) bool {
	return status.voted || c.ttl <= 0 || c.now().Sub(status.checkedAt) < c.ttl
}

// store must be called with mu held
func (c *VoteStatusCache) store(key string, status voteStatus) {
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.limit {
		for k, s := range c.entries {
			if !c.fresh(s) {
				delete(c.entries, k)
			}
		}
		if len(c.entries) >= c.limit {
			for k, s := range c.entries {
				if !s.voted {
					delete(c.entries, k)
				}
			}
		}
		if len(c.entries) >= c.limit {
			c.entries = make(map[string]voteStatus)
		}
	}
	c.entries[key] = status
}

// Invalidate forgets the answer for one proposal and address
func (c *VoteStatusCache) Invalidate(proposalID *big.Int, address string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, voteStatusKey(proposalID, address))
}

func voteStatusKey(proposalID *big.Int, address string) string {
	return strings.ToLower(strings.TrimSpace(address)) + "|" + proposalID.String()
}

// ProposalView joins a proposal with its derived state
type ProposalView struct {
	Proposal    *models.Proposal `json:"proposal"`
	Eligibility Eligibility      `json:"eligibility"`
	HasVoted    bool             `json:"hasVoted"`
}

// ProposalBoard builds proposal views for the current session
type ProposalBoard struct {
	store   ProposalStore
	head    ChainSnapshot
	session *AccountSession
	votes   *VoteStatusCache
	log     *slog.Logger
}

// NewProposalBoard creates a new proposal board
func NewProposalBoard(
	store ProposalStore,
	head ChainSnapshot,
	session *AccountSession,
	votes *VoteStatusCache,
	log *slog.Logger,
) *ProposalBoard {
	return &ProposalBoard{
		store:   store,
		head:    head,
		session: session,
		votes:   votes,
		log:     log.With("component", "ProposalBoard"),
	}
}

// Views evaluates every stored proposal for the current session, in discovery order
func (b *ProposalBoard) Views(ctx context.Context, now time.Time) []ProposalView {
	state := b.session.Snapshot()
	b.votes.Observe(state.Epoch)
	proposals := b.store.Snapshot()

	views := make([]ProposalView, 0, len(proposals))
	for _, p := range proposals {
		views = append(views, b.evaluate(ctx, p, state, now))
	}
	return views
}

// View evaluates one proposal for the current session
func (b *ProposalBoard) View(ctx context.Context, id *big.Int, now time.Time) (*ProposalView, error) {
	p, ok := b.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("proposal %s: %w", id, domain.ErrNotFound)
	}
	state := b.session.Snapshot()
	b.votes.Observe(state.Epoch)
	view := b.evaluate(ctx, p, state, now)
	return &view, nil
}

// ViewsForAddress evaluates every proposal as if address were connected and bound.
// Vote status for the address is read through but never cached.
func (b *ProposalBoard) ViewsForAddress(ctx context.Context, address string, now time.Time) []ProposalView {
	state := SessionState{
		WalletConnected:  address != "",
		ConnectedAddress: address,
		Account:          &models.Account{Address: address},
	}
	proposals := b.store.Snapshot()

	views := make([]ProposalView, 0, len(proposals))
	for _, p := range proposals {
		views = append(views, b.evaluateWith(ctx, p, state, now, b.votes.Lookup))
	}
	return views
}

type voteCheck func(ctx context.Context, proposalID *big.Int, address string) (bool, error)

func (b *ProposalBoard) evaluate(ctx context.Context, p *models.Proposal, state SessionState, now time.Time) ProposalView {
	return b.evaluateWith(ctx, p, state, now, b.votes.HasVoted)
}

func (b *ProposalBoard) evaluateWith(
	ctx context.Context,
	p *models.Proposal,
	state SessionState,
	now time.Time,
	hasVoted voteCheck,
) ProposalView {
	head, known := b.head.Latest()

	var (
		voted    bool
		checkErr error
	)
	if state.WalletConnected && state.ConnectedAddress != "" {
		voted, checkErr = hasVoted(ctx, p.ID, state.ConnectedAddress)
		if checkErr != nil {
			b.log.Warn("failed to check vote status", "id", p.ID, "error", checkErr)
		}
	}

	var bound string
	if state.Account != nil {
		bound = state.Account.Address
	}

	eligibility := EvaluateEligibility(EligibilityInput{
		Proposal:         p,
		WalletConnected:  state.WalletConnected,
		ConnectedAddress: state.ConnectedAddress,
		BoundAddress:     bound,
		HasVoted:         voted,
		Now:              now,
		Head:             head,
		HeadKnown:        known,
	})
	if checkErr != nil && eligibility.CanVote {
		eligibility.CanVote = false
		eligibility.Reason = ReasonStatusUnknown
	}

	return ProposalView{
		Proposal:    p,
		Eligibility: eligibility,
		HasVoted:    voted,
	}
}
