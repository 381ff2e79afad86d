package documents

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/timertimertimer/kfudao/internal/domain"
	"github.com/timertimertimer/kfudao/internal/domain/models"
)

// MemoryStore keeps documents in process memory
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]models.Account
	institutes map[string]models.Institute
}

var _ Backend = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]models.Account),
		institutes: make(map[string]models.Institute),
	}
}

func (s *MemoryStore) GetAccount(ctx context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.users[email]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	return &account, nil
}

func (s *MemoryStore) SaveAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[account.Email] = *account
	return nil
}

func (s *MemoryStore) ListInstitutes(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.institutes))
	for abbr, inst := range s.institutes {
		out[abbr] = inst.Name
	}
	return out, nil
}

func (s *MemoryStore) GetFaculties(ctx context.Context, abbreviation string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.institutes[abbreviation]
	if !ok {
		return nil, fmt.Errorf("institute %s: %w", abbreviation, domain.ErrNotFound)
	}
	return slices.Clone(inst.Faculties), nil
}

func (s *MemoryStore) SaveInstitute(ctx context.Context, institute *models.Institute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst := *institute
	inst.Faculties = slices.Clone(institute.Faculties)
	s.institutes[inst.Abbreviation] = inst
	return nil
}
