//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"

	"github.com/timertimertimer/kfudao/internal/adapters"
	"github.com/timertimertimer/kfudao/internal/config"
	"github.com/timertimertimer/kfudao/internal/logging"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, func(), error) {
	wire.Build(
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		ProvideVoteStatusCache,
		usecase.NewAccountSession,
		usecase.NewSyncProposals,
		usecase.NewProposalBoard,
		usecase.NewGovernanceTx,
		usecase.NewInstituteCatalog,

		// App
		NewApp,
	)
	return nil, nil, nil
}
