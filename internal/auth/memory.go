package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/promptlist/internal/models"
	"github.com/desertthunder/promptlist/internal/shared"
)

// MemoryStore is an in-process [Store] guarded by a mutex.
type MemoryStore struct {
	mu      sync.Mutex
	pending map[string]models.PendingAuthorization
	now     func() time.Time
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pending: make(map[string]models.PendingAuthorization),
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, p models.PendingAuthorization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pending[p.State]; exists {
		return fmt.Errorf("pending authorization already exists for state")
	}
	s.pending[p.State] = p
	return nil
}

func (s *MemoryStore) Redeem(_ context.Context, state string) (models.PendingAuthorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[state]
	if !ok {
		return models.PendingAuthorization{}, shared.ErrStateNotFound
	}
	delete(s.pending, state)

	if p.Expired(s.now()) {
		return models.PendingAuthorization{}, shared.ErrStateNotFound
	}
	return p, nil
}

func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for state, p := range s.pending {
		if p.Expired(now) {
			delete(s.pending, state)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of pending entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.pending)
	return nil
}
