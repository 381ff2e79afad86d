package proposals

import (
	"sync"
	"time"

	"github.com/timertimertimer/kfudao/internal/domain/models"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

// HeadTracker holds the most recently observed block number.
type HeadTracker struct {
	mu    sync.RWMutex
	head  models.ChainHead
	known bool
	now   func() time.Time
}

var _ usecase.ChainSnapshot = (*HeadTracker)(nil)

// NewHeadTracker creates a tracker with no observed head
func NewHeadTracker() *HeadTracker {
	return &HeadTracker{now: time.Now}
}

// Publish records a newly observed head.
func (h *HeadTracker) Publish(number uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.head = models.ChainHead{Number: number, ObservedAt: h.now()}
	h.known = true
}

// Latest returns the last published head and whether one was ever published.
func (h *HeadTracker) Latest() (models.ChainHead, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.head, h.known
}
