package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/timertimertimer/kfudao/internal/domain"
	"github.com/timertimertimer/kfudao/internal/domain/config"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

const (
	sessionFile    = "session.jwt"
	sessionKeyFile = "session.key"
	sessionTTL     = 7 * 24 * time.Hour
	sessionIssuer  = "kfudao"
)

// TokenStore persists the signed-in email as an HS256 JWT in the data directory
type TokenStore struct {
	dir    string
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

var _ usecase.SessionTokenStore = (*TokenStore)(nil)

// NewTokenStore uses cfg.SessionSecret, or a random key kept next to the token
func NewTokenStore(cfg *config.RuntimeConfig) (*TokenStore, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		var err error
		secret, err = loadOrCreateKey(filepath.Join(cfg.DataDir, sessionKeyFile))
		if err != nil {
			return nil, err
		}
	}

	return &TokenStore{dir: cfg.DataDir, secret: secret, ttl: sessionTTL, now: time.Now}, nil
}

func loadOrCreateKey(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		key, err := hex.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("failed to decode session key: %w", err)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read session key: %w", err)
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate session key: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write session key: %w", err)
	}
	return key, nil
}

func (s *TokenStore) path() string {
	return filepath.Join(s.dir, sessionFile)
}

// Save issues a token for email
func (s *TokenStore) Save(ctx context.Context, email string) error {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   email,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("failed to sign session token: %w", err)
	}
	if err := os.WriteFile(s.path(), []byte(signed), 0o600); err != nil {
		return fmt.Errorf("failed to write session token: %w", err)
	}
	return nil
}

// Load returns the email of a valid saved token
func (s *TokenStore) Load(ctx context.Context) (string, error) {
	raw, err := os.ReadFile(s.path())
	if os.IsNotExist(err) {
		return "", domain.ErrNotAuthenticated
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session token: %w", err)
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(strings.TrimSpace(string(raw)), claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: session expired", domain.ErrNotAuthenticated)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrNotAuthenticated, err)
	}
	if claims.Subject == "" {
		return "", domain.ErrNotAuthenticated
	}
	return claims.Subject, nil
}

// Clear removes the saved token
func (s *TokenStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session token: %w", err)
	}
	return nil
}
