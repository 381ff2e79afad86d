package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/timertimertimer/kfudao/internal/domain"
	"github.com/timertimertimer/kfudao/internal/domain/config"
	"github.com/timertimertimer/kfudao/internal/domain/models"
)

const (
	userPrefix      = "users:"
	institutePrefix = "institutes:"
	instituteIndex  = "institutes"
)

// RedisStore keeps each document as a JSON string
type RedisStore struct {
	rdb *redis.Client
	log *slog.Logger
}

var _ Backend = (*RedisStore)(nil)

// NewRedisStore connects to cfg.Documents.RedisURL
func NewRedisStore(cfg *config.RuntimeConfig, log *slog.Logger) (*RedisStore, func(), error) {
	opt, err := redis.ParseURL(cfg.Documents.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	store := &RedisStore{rdb: rdb, log: log.With("component", "RedisDocuments")}
	return store, func() { _ = rdb.Close() }, nil
}

func userKey(email string) string {
	return userPrefix + email
}

func instituteKey(abbreviation string) string {
	return institutePrefix + abbreviation
}

func (s *RedisStore) GetAccount(ctx context.Context, email string) (*models.Account, error) {
	raw, err := s.rdb.Get(ctx, userKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user %s: %w", email, err)
	}

	var account models.Account
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", email, err)
	}
	return &account, nil
}

func (s *RedisStore) SaveAccount(ctx context.Context, account *models.Account) error {
	raw, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := s.rdb.Set(ctx, userKey(account.Email), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write user %s: %w", account.Email, err)
	}
	return nil
}

func (s *RedisStore) ListInstitutes(ctx context.Context) (map[string]string, error) {
	abbreviations, err := s.rdb.SMembers(ctx, instituteIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list institutes: %w", err)
	}
	out := make(map[string]string, len(abbreviations))
	if len(abbreviations) == 0 {
		return out, nil
	}

	keys := make([]string, len(abbreviations))
	for i, abbr := range abbreviations {
		keys[i] = instituteKey(abbr)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read institutes: %w", err)
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			s.log.Warn("institute listed but missing", "abbreviation", abbreviations[i])
			continue
		}
		inst, err := decodeInstitute([]byte(raw))
		if err != nil {
			s.log.Warn("skipping undecodable institute", "abbreviation", abbreviations[i], "error", err)
			continue
		}
		out[abbreviations[i]] = inst.Name
	}
	return out, nil
}

func (s *RedisStore) GetFaculties(ctx context.Context, abbreviation string) ([]string, error) {
	raw, err := s.rdb.Get(ctx, instituteKey(abbreviation)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("institute %s: %w", abbreviation, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read institute %s: %w", abbreviation, err)
	}
	inst, err := decodeInstitute(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode institute %s: %w", abbreviation, err)
	}
	return inst.Faculties, nil
}

func (s *RedisStore) SaveInstitute(ctx context.Context, institute *models.Institute) error {
	raw, err := json.Marshal(institute)
	if err != nil {
		return fmt.Errorf("failed to encode institute: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, instituteKey(institute.Abbreviation), raw, 0)
		pipe.SAdd(ctx, instituteIndex, institute.Abbreviation)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write institute %s: %w", institute.Abbreviation, err)
	}
	return nil
}

func decodeInstitute(raw []byte) (*models.Institute, error) {
	var inst models.Institute
	if err := json.Unmarshal(raw, &inst); err != nil {
		return nil, err
	}
	if inst.Faculties == nil {
		inst.Faculties = []string{}
	}
	return &inst, nil
}
