package proposals

import (
	"math/big"
	"sync"

	"github.com/timertimertimer/kfudao/internal/domain/models"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

// Store keeps proposals in discovery order, unique by id.
// One writer (the sync loop) and many readers are expected.
type Store struct {
	mu    sync.RWMutex
	order []string
	items map[string]*models.Proposal
}

var _ usecase.ProposalStore = (*Store)(nil)

// NewStore creates an empty proposal store
func NewStore() *Store {
	return &Store{
		items: make(map[string]*models.Proposal),
	}
}

// Upsert replaces the proposal with the same id in place or appends it.
func (s *Store) Upsert(proposal *models.Proposal) {
	key := proposal.Key()
	if key == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[key]; !exists {
		s.order = append(s.order, key)
	}
	s.items[key] = proposal.Clone()
}

// Snapshot returns copies of all proposals in insertion order.
func (s *Store) Snapshot() []*models.Proposal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Proposal, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.items[key].Clone())
	}
	return out
}

// Get returns a copy of a single proposal.
func (s *Store) Get(id *big.Int) (*models.Proposal, bool) {
	if id == nil {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.items[id.String()]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Len returns the number of stored proposals.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
