package usecase

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/timertimertimer/kfudao/internal/domain/models"
)

// ChainClient reads governor state from the chain and relays transactions through the wallet
type ChainClient interface {
	// CheckNetwork returns domain.ErrNetworkMismatch when the node serves another chain
	CheckNetwork(ctx context.Context) error
	LatestBlockNumber(ctx context.Context) (uint64, error)
	// BlockByNumber returns domain.ErrBlockNotFound for blocks that are not mined yet
	BlockByNumber(ctx context.Context, number uint64) (*models.Block, error)
	ProposalCreatedEvents(ctx context.Context, from, to uint64) ([]models.RawProposalEvent, error)
	ProposalVotes(ctx context.Context, proposalID *big.Int) (forVotes, against, abstain models.Token, err error)
	HasVoted(ctx context.Context, proposalID *big.Int, address string) (bool, error)
	TokenSymbol(ctx context.Context) (string, error)
	SubmitTransaction(ctx context.Context, from, to string, data []byte) (*models.TransactionResult, error)
}

// GovernorCodec encodes governor calls
type GovernorCodec interface {
	EncodeCastVote(proposalID *big.Int, support uint8) ([]byte, error)
	EncodePropose(targets []string, values []*big.Int, calldatas [][]byte, description string) ([]byte, error)
}

// Wallet is an external signer reachable over JSON-RPC
type Wallet interface {
	Connect(ctx context.Context) (string, error)
	SelectedAddress() string
	SendRequest(ctx context.Context, method string, params ...any) (json.RawMessage, error)
	Disconnect(clearSession bool)
}

// ProposalStore holds the proposals discovered on chain
type ProposalStore interface {
	Upsert(proposal *models.Proposal)
	Snapshot() []*models.Proposal
	Get(id *big.Int) (*models.Proposal, bool)
}

// ChainSnapshot holds the latest observed block number
type ChainSnapshot interface {
	Publish(number uint64)
	Latest() (models.ChainHead, bool)
}

// AccountRepository persists accounts in the `users` collection
type AccountRepository interface {
	GetAccount(ctx context.Context, email string) (*models.Account, error)
	SaveAccount(ctx context.Context, account *models.Account) error
}

// InstituteRepository reads and writes the `institutes` collection
type InstituteRepository interface {
	// ListInstitutes returns display names keyed by abbreviation
	ListInstitutes(ctx context.Context) (map[string]string, error)
	GetFaculties(ctx context.Context, abbreviation string) ([]string, error)
	SaveInstitute(ctx context.Context, institute *models.Institute) error
}

// CredentialStore is the authentication provider
type CredentialStore interface {
	CreateCredential(ctx context.Context, email, password string) error
	VerifyCredential(ctx context.Context, email, password string) error
	DeleteCredential(ctx context.Context, email string) error
}

// SessionTokenStore keeps the signed-in account between CLI invocations
type SessionTokenStore interface {
	Save(ctx context.Context, email string) error
	// Load returns domain.ErrNotAuthenticated when there is no valid token
	Load(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Prompter asks the user for input
type Prompter interface {
	Confirm(ctx context.Context, label string) (bool, error)
	PromptText(ctx context.Context, label string, validate func(string) error) (string, error)
	PromptPassword(ctx context.Context, label string) (string, error)
	SelectVoteDecision(ctx context.Context) (models.VoteDecision, error)
	// SelectInstitute returns the chosen abbreviation
	SelectInstitute(ctx context.Context, institutes map[string]string) (string, error)
	SelectFaculty(ctx context.Context, faculties []string) (string, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
