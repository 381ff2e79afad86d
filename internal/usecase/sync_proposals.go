package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/timertimertimer/kfudao/internal/domain"
	"github.com/timertimertimer/kfudao/internal/domain/config"
	"github.com/timertimertimer/kfudao/internal/domain/models"
)

// SyncProposals keeps the proposal store and chain snapshot up to date
type SyncProposals struct {
	chain    ChainClient
	store    ProposalStore
	head     ChainSnapshot
	cfg      *config.RuntimeConfig
	progress ProgressSink
	log      *slog.Logger
}

// NewSyncProposals creates a new proposal sync use case
func NewSyncProposals(
	chain ChainClient,
	store ProposalStore,
	head ChainSnapshot,
	cfg *config.RuntimeConfig,
	progress ProgressSink,
	log *slog.Logger,
) *SyncProposals {
	return &SyncProposals{
		chain:    chain,
		store:    store,
		head:     head,
		cfg:      cfg,
		progress: progress,
		log:      log.With("component", "SyncProposals"),
	}
}

// SyncReport contains the result of one discovery cycle
type SyncReport struct {
	LatestBlock uint64
	Events      int
	Upserted    int
	Failed      int
	Errors      []string
}

// Run starts the discovery and block refresh cycles and blocks until ctx is done.
// Both cycles fire immediately. Nothing is written to the store after Run returns.
// Run fails fast only when the node serves a different chain than configured.
func (s *SyncProposals) Run(ctx context.Context) error {
	if err := s.chain.CheckNetwork(ctx); err != nil {
		if errors.Is(err, domain.ErrNetworkMismatch) {
			return err
		}
		s.log.Warn("failed to check network", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.every(ctx, s.cfg.DiscoveryInterval(), func(ctx context.Context) {
			report, err := s.DiscoverOnce(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.log.Warn("discovery cycle failed", "error", err)
				}
				return
			}
			s.log.Debug("discovery cycle done",
				"latest", report.LatestBlock,
				"events", report.Events,
				"upserted", report.Upserted,
				"failed", report.Failed,
			)
		})
		return nil
	})

	g.Go(func() error {
		s.every(ctx, s.cfg.BlockRefreshInterval(), func(ctx context.Context) {
			if err := s.RefreshBlockOnce(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn("block refresh failed", "error", err)
			}
		})
		return nil
	})

	return g.Wait()
}

func (s *SyncProposals) every(ctx context.Context, interval time.Duration, tick func(context.Context)) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		tick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RefreshBlockOnce publishes the latest block number
func (s *SyncProposals) RefreshBlockOnce(ctx context.Context) error {
	latest, err := s.chain.LatestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest block: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.head.Publish(latest)
	return nil
}

// DiscoverOnce scans all ProposalCreated events up to the latest block and upserts them.
// A failure on one event is recorded and skipped; a transport failure aborts the cycle.
func (s *SyncProposals) DiscoverOnce(ctx context.Context) (*SyncReport, error) {
	s.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "discovery",
		Message: "Fetching proposals...",
		Spinner: true,
	})

	latest, err := s.chain.LatestBlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest block: %w", err)
	}

	events, err := s.chain.ProposalCreatedEvents(ctx, 0, latest)
	if err != nil {
		return nil, fmt.Errorf("failed to query proposal events: %w", err)
	}

	report := &SyncReport{
		LatestBlock: latest,
		Events:      len(events),
		Errors:      make([]string, 0),
	}
	resolver := &proposalResolver{sync: s, latest: latest}

	for i, event := range events {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		s.progress.OnProgress(ctx, ProgressEvent{
			Stage:   "discovery",
			Current: i + 1,
			Total:   len(events),
			Message: fmt.Sprintf("Resolving proposal %d/%d", i+1, len(events)),
			Spinner: true,
		})

		proposal, err := resolver.resolve(ctx, event)
		if err != nil {
			if errors.Is(err, domain.ErrChainUnavailable) || ctx.Err() != nil {
				return report, fmt.Errorf("discovery aborted at proposal %s: %w", event.ProposalID, err)
			}
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("proposal %s: %v", event.ProposalID, err))
			s.log.Warn("skipping proposal", "id", event.ProposalID, "error", err)
			continue
		}

		if err := ctx.Err(); err != nil {
			return report, err
		}
		s.store.Upsert(proposal)
		report.Upserted++
	}

	s.progress.OnProgress(ctx, ProgressEvent{
		Stage:    "complete",
		Message:  fmt.Sprintf("Synced %d proposals", report.Upserted),
		Metadata: report,
	})
	return report, nil
}

// proposalResolver turns events into proposals within one discovery cycle
type proposalResolver struct {
	sync   *SyncProposals
	latest uint64
	// latest header, fetched at most once per cycle
	head *models.Block
}

func (r *proposalResolver) resolve(ctx context.Context, event models.RawProposalEvent) (*models.Proposal, error) {
	if event.ProposalID == nil {
		return nil, fmt.Errorf("event without proposal id")
	}
	chain := r.sync.chain
	blockTime := r.sync.cfg.BlockTime

	var (
		start          time.Time
		startEstimated bool
	)
	startBlock, err := chain.BlockByNumber(ctx, event.VoteStart)
	switch {
	case err == nil:
		start = startBlock.Time()
	case errors.Is(err, domain.ErrBlockNotFound):
		head, err := r.latestHeader(ctx)
		if err != nil {
			return nil, err
		}
		start = projectTimestamp(head.Time(), head.Number, event.VoteStart, blockTime)
		startEstimated = true
	default:
		return nil, fmt.Errorf("failed to get vote start block %d: %w", event.VoteStart, err)
	}

	var (
		end          time.Time
		endEstimated bool
	)
	endBlock, err := chain.BlockByNumber(ctx, event.VoteEnd)
	switch {
	case err == nil:
		end = endBlock.Time()
	case errors.Is(err, domain.ErrBlockNotFound):
		end = projectTimestamp(start, event.VoteStart, event.VoteEnd, blockTime)
		endEstimated = true
	default:
		return nil, fmt.Errorf("failed to get vote end block %d: %w", event.VoteEnd, err)
	}

	forVotes, against, abstain, err := chain.ProposalVotes(ctx, event.ProposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal votes: %w", err)
	}

	return &models.Proposal{
		ID:                 event.ProposalID,
		Proposer:           event.Proposer,
		Description:        event.Description,
		VoteStartBlock:     event.VoteStart,
		VoteEndBlock:       event.VoteEnd,
		VoteStartTimestamp: start,
		VoteEndTimestamp:   end,
		VoteStartEstimated: startEstimated,
		VoteEndEstimated:   endEstimated,
		VotesFor:           forVotes,
		VotesAgainst:       against,
		VotesAbstain:       abstain,
		CreatedAtBlock:     event.BlockNumber,
		TxHash:             event.TxHash,
	}, nil
}

func (r *proposalResolver) latestHeader(ctx context.Context) (*models.Block, error) {
	if r.head != nil {
		return r.head, nil
	}
	head, err := r.sync.chain.BlockByNumber(ctx, r.latest)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest block %d: %w", r.latest, err)
	}
	r.head = head
	return head, nil
}

// projectTimestamp estimates when block `to` is mined given block `from` was mined at `at`.
func projectTimestamp(at time.Time, from, to, blockTime uint64) time.Time {
	if to <= from {
		return at
	}
	return at.Add(time.Duration(to-from) * time.Duration(blockTime) * time.Second)
}
