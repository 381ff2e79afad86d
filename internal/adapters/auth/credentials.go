package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"golang.org/x/crypto/bcrypt"

	"github.com/timertimertimer/kfudao/internal/domain"
	"github.com/timertimertimer/kfudao/internal/domain/config"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

const (
	credentialsDir   = "credentials"
	credentialPrefix = "cred:"
)

// CredentialStore keeps bcrypt password hashes in a leveldb database under the data dir.
// The database is opened per operation so a long running watch does not hold its lock.
type CredentialStore struct {
	path string
	cost int
	// serializes check-then-put on create
	mu sync.Mutex
}

var _ usecase.CredentialStore = (*CredentialStore)(nil)

// NewCredentialStore prepares <data dir>/credentials
func NewCredentialStore(cfg *config.RuntimeConfig) (*CredentialStore, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &CredentialStore{
		path: filepath.Join(cfg.DataDir, credentialsDir),
		cost: bcrypt.DefaultCost,
	}, nil
}

func credentialKey(email string) []byte {
	return []byte(credentialPrefix + email)
}

func (s *CredentialStore) withDB(fn func(db *leveldb.DB) error) error {
	db, err := leveldb.OpenFile(s.path, nil)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	defer db.Close()
	return fn(db)
}

// CreateCredential stores a new hash; ErrAlreadyExists if the email is taken
func (s *CredentialStore) CreateCredential(ctx context.Context, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withDB(func(db *leveldb.DB) error {
		exists, err := db.Has(credentialKey(email), nil)
		if err != nil {
			return fmt.Errorf("failed to read credential: %w", err)
		}
		if exists {
			return fmt.Errorf("credential for %s: %w", email, domain.ErrAlreadyExists)
		}
		if err := db.Put(credentialKey(email), hash, nil); err != nil {
			return fmt.Errorf("failed to write credential: %w", err)
		}
		return nil
	})
}

// VerifyCredential checks the password; unknown emails and wrong passwords look the same
func (s *CredentialStore) VerifyCredential(ctx context.Context, email, password string) error {
	var hash []byte
	err := s.withDB(func(db *leveldb.DB) error {
		var err error
		hash, err = db.Get(credentialKey(email), nil)
		return err
	})
	if errors.Is(err, leveldb.ErrNotFound) {
		return domain.ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("failed to read credential: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return domain.ErrInvalidCredentials
	}
	return nil
}

// DeleteCredential removes the hash for email
func (s *CredentialStore) DeleteCredential(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withDB(func(db *leveldb.DB) error {
		if err := db.Delete(credentialKey(email), nil); err != nil {
			return fmt.Errorf("failed to delete credential: %w", err)
		}
		return nil
	})
}
