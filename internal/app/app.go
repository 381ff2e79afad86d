package app

import (
	"log/slog"

	"github.com/timertimertimer/kfudao/internal/adapters/abi"
	"github.com/timertimertimer/kfudao/internal/domain/config"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Shared state
	Head     usecase.ChainSnapshot
	Progress usecase.ProgressSink
	Prompter usecase.Prompter

	// Use cases
	Session    *usecase.AccountSession
	Sync       *usecase.SyncProposals
	Board      *usecase.ProposalBoard
	Governance *usecase.GovernanceTx
	Institutes *usecase.InstituteCatalog

	// Adapters needed directly by commands
	Codec *abi.GovernorCodec
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	head usecase.ChainSnapshot,
	progress usecase.ProgressSink,
	prompter usecase.Prompter,
	session *usecase.AccountSession,
	sync *usecase.SyncProposals,
	board *usecase.ProposalBoard,
	governance *usecase.GovernanceTx,
	institutes *usecase.InstituteCatalog,
	codec *abi.GovernorCodec,
) *App {
	return &App{
		Config:     cfg,
		Log:        log,
		Head:       head,
		Progress:   progress,
		Prompter:   prompter,
		Session:    session,
		Sync:       sync,
		Board:      board,
		Governance: governance,
		Institutes: institutes,
		Codec:      codec,
	}
}

// ProvideVoteStatusCache re-checks negative vote answers once per block refresh
// instead of holding them until the next wallet connect or disconnect.
func ProvideVoteStatusCache(chain usecase.ChainClient, cfg *config.RuntimeConfig) *usecase.VoteStatusCache {
	return usecase.NewVoteStatusCache(chain, cfg.BlockRefreshInterval())
}
