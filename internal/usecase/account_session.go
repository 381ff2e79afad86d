package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/timertimertimer/kfudao/internal/domain"
	"github.com/timertimertimer/kfudao/internal/domain/models"
)

// BindingStatus describes how the connected wallet relates to the account
type BindingStatus string

const (
	BindingNotConnected BindingStatus = "not_connected"
	// BindingUnbound means a wallet is connected but the account has no address yet
	BindingUnbound BindingStatus = "unbound"
	BindingBound   BindingStatus = "bound"
	// BindingMismatch means the connected wallet is not the bound one
	BindingMismatch BindingStatus = "mismatch"
)

// SessionState is a point in time copy of the session
type SessionState struct {
	Account          *models.Account
	WalletConnected  bool
	ConnectedAddress string
	// Epoch changes on every wallet connect or disconnect
	Epoch uint64
}

// Authenticated reports whether an account is signed in
func (s SessionState) Authenticated() bool {
	return s.Account != nil && s.Account.Email != ""
}

// AccountSession owns the signed-in account and the wallet connection
type AccountSession struct {
	accounts    AccountRepository
	credentials CredentialStore
	wallet      Wallet
	tokens      SessionTokenStore
	validate    *validator.Validate
	log         *slog.Logger

	mu        sync.RWMutex
	account   *models.Account
	connected bool
	address   string
	epoch     uint64
}

// NewAccountSession creates an unauthenticated session
func NewAccountSession(
	accounts AccountRepository,
	credentials CredentialStore,
	wallet Wallet,
	tokens SessionTokenStore,
	log *slog.Logger,
) *AccountSession {
	return &AccountSession{
		accounts:    accounts,
		credentials: credentials,
		wallet:      wallet,
		tokens:      tokens,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		log:         log.With("component", "AccountSession"),
	}
}

// Register creates the credential and then the account record, and signs in
func (s *AccountSession) Register(ctx context.Context, account models.Account, password string) error {
	account.Email = normalizeEmail(account.Email)
	if account.Email == "" || strings.TrimSpace(password) == "" {
		return domain.ErrBlankCredentials
	}
	if err := s.validate.Struct(account); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidEmail, account.Email)
	}

	if err := s.credentials.CreateCredential(ctx, account.Email, password); err != nil {
		return fmt.Errorf("failed to create credential: %w", err)
	}

	if err := s.accounts.SaveAccount(ctx, &account); err != nil {
		if rbErr := s.credentials.DeleteCredential(ctx, account.Email); rbErr != nil {
			s.log.Warn("failed to roll back credential", "email", account.Email, "error", rbErr)
		}
		return fmt.Errorf("failed to save account: %w", err)
	}

	s.setAccount(ctx, &account)
	return nil
}

// SignIn verifies the credential and loads the account record
func (s *AccountSession) SignIn(ctx context.Context, email, password string) (*models.Account, error) {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, domain.ErrBlankCredentials
	}

	if err := s.credentials.VerifyCredential(ctx, email, password); err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}

	account, err := s.accounts.GetAccount(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	s.setAccount(ctx, account)
	return account.Clone(), nil
}

// Restore signs in from a previously saved session token
func (s *AccountSession) Restore(ctx context.Context) (*models.Account, error) {
	email, err := s.tokens.Load(ctx)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetAccount(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: account %s no longer exists", domain.ErrNotAuthenticated, email)
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	s.mu.Lock()
	s.account = account.Clone()
	s.mu.Unlock()
	return account, nil
}

// SignOut forgets the account and the saved token
func (s *AccountSession) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.account = nil
	s.mu.Unlock()

	if err := s.tokens.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// ConnectWallet asks the wallet for an account
func (s *AccountSession) ConnectWallet(ctx context.Context) (string, error) {
	address, err := s.wallet.Connect(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to connect wallet: %w", err)
	}

	s.mu.Lock()
	s.connected = true
	s.address = address
	s.epoch++
	s.mu.Unlock()

	s.log.Debug("wallet connected", "address", address)
	return address, nil
}

// Disconnect drops the wallet connection; the bound address is left as is
func (s *AccountSession) Disconnect(clearSession bool) {
	s.wallet.Disconnect(clearSession)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return
	}
	s.connected = false
	s.address = ""
	s.epoch++
}

// WalletBinding tells whether the UI should offer binding or warn about a mismatch
func (s *AccountSession) WalletBinding() BindingStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return bindingStatus(s.account, s.connected, s.address)
}

func bindingStatus(account *models.Account, connected bool, address string) BindingStatus {
	switch {
	case !connected || address == "":
		return BindingNotConnected
	case !account.HasAddress():
		return BindingUnbound
	case SameAddress(account.Address, address):
		return BindingBound
	default:
		return BindingMismatch
	}
}

// BindWalletToAccount stores the connected address on the account.
// It is a no-op when the address is already bound.
func (s *AccountSession) BindWalletToAccount(ctx context.Context) error {
	s.mu.RLock()
	account := s.account.Clone()
	connected, address := s.connected, s.address
	s.mu.RUnlock()

	if account == nil {
		return domain.ErrNotAuthenticated
	}
	if !connected || address == "" {
		return domain.ErrWalletNotConnected
	}
	if SameAddress(account.Address, address) {
		return nil
	}

	account.Address = address
	if err := s.accounts.SaveAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	s.mu.Lock()
	if s.account != nil && s.account.Email == account.Email {
		s.account.Address = address
	}
	s.mu.Unlock()

	s.log.Info("wallet bound", "email", account.Email, "address", address)
	return nil
}

// RequireConnected returns the connected address or ErrWalletNotConnected
func (s *AccountSession) RequireConnected() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected || s.address == "" {
		return "", domain.ErrWalletNotConnected
	}
	return s.address, nil
}

// Snapshot returns a copy of the session state
func (s *AccountSession) Snapshot() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionState{
		Account:          s.account.Clone(),
		WalletConnected:  s.connected,
		ConnectedAddress: s.address,
		Epoch:            s.epoch,
	}
}

func (s *AccountSession) setAccount(ctx context.Context, account *models.Account) {
	s.mu.Lock()
	s.account = account.Clone()
	s.mu.Unlock()

	if err := s.tokens.Save(ctx, account.Email); err != nil {
		s.log.Warn("failed to save session token", "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
