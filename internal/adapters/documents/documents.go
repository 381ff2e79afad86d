// Package documents stores the `users` and `institutes` collections.
package documents

import (
	"fmt"
	"log/slog"

	"github.com/timertimertimer/kfudao/internal/domain/config"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

// Backend serves both collections
type Backend interface {
	usecase.AccountRepository
	usecase.InstituteRepository
}

// NewBackend opens the configured document database
func NewBackend(cfg *config.RuntimeConfig, log *slog.Logger) (Backend, func(), error) {
	switch cfg.Documents.Driver {
	case config.DocumentsDriverRedis, "":
		store, cleanup, err := NewRedisStore(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return store, cleanup, nil
	case config.DocumentsDriverMySQL:
		store, cleanup, err := NewMySQLStore(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return store, cleanup, nil
	case config.DocumentsDriverMemory:
		return NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown documents driver %q", cfg.Documents.Driver)
	}
}
