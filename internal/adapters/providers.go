package adapters

import (
	"log/slog"

	"github.com/google/wire"

	"github.com/timertimertimer/kfudao/internal/adapters/abi"
	"github.com/timertimertimer/kfudao/internal/adapters/auth"
	"github.com/timertimertimer/kfudao/internal/adapters/blockchain"
	"github.com/timertimertimer/kfudao/internal/adapters/documents"
	"github.com/timertimertimer/kfudao/internal/adapters/interactive"
	"github.com/timertimertimer/kfudao/internal/adapters/repository/proposals"
	"github.com/timertimertimer/kfudao/internal/adapters/wallet"
	"github.com/timertimertimer/kfudao/internal/domain/config"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

// ProvideDocuments opens the configured document database
func ProvideDocuments(cfg *config.RuntimeConfig, log *slog.Logger) (documents.Backend, func(), error) {
	return documents.NewBackend(cfg, log)
}

// ProvideWallet creates the lazily dialled wallet client
func ProvideWallet(cfg *config.RuntimeConfig, log *slog.Logger) (*wallet.RPCWallet, func(), error) {
	w, cleanup := wallet.NewRPCWallet(cfg, log)
	return w, cleanup, nil
}

// ChainSet provides the chain reader and the wallet relay
var ChainSet = wire.NewSet(
	ProvideWallet,
	wire.Bind(new(usecase.Wallet), new(*wallet.RPCWallet)),

	blockchain.NewClientAdapter,
	wire.Bind(new(usecase.ChainClient), new(*blockchain.ClientAdapter)),

	abi.NewGovernorCodec,
	wire.Bind(new(usecase.GovernorCodec), new(*abi.GovernorCodec)),
)

// RepositorySet provides in-memory proposal state
var RepositorySet = wire.NewSet(
	proposals.NewStore,
	wire.Bind(new(usecase.ProposalStore), new(*proposals.Store)),

	proposals.NewHeadTracker,
	wire.Bind(new(usecase.ChainSnapshot), new(*proposals.HeadTracker)),
)

// DocumentsSet provides the account and institute collections
var DocumentsSet = wire.NewSet(
	ProvideDocuments,
	wire.Bind(new(usecase.AccountRepository), new(documents.Backend)),
	wire.Bind(new(usecase.InstituteRepository), new(documents.Backend)),
)

// AuthSet provides credentials and the persisted session token
var AuthSet = wire.NewSet(
	auth.NewCredentialStore,
	wire.Bind(new(usecase.CredentialStore), new(*auth.CredentialStore)),

	auth.NewTokenStore,
	wire.Bind(new(usecase.SessionTokenStore), new(*auth.TokenStore)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.Prompter), new(*interactive.SelectorAdapter)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	ChainSet,
	RepositorySet,
	DocumentsSet,
	AuthSet,
	InteractiveSet,
)
