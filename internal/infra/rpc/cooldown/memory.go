package cooldown

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu       sync.RWMutex
	failures map[string]time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{failures: make(map[string]time.Time)}
}

func (s *MemoryStore) MarkFailed(_ context.Context, endpoint string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Keep the newest mark when concurrent resolutions race.
	if prev, ok := s.failures[endpoint]; ok && prev.After(at) {
		return nil
	}
	s.failures[endpoint] = at
	return nil
}

func (s *MemoryStore) LastFailure(_ context.Context, endpoint string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	at, ok := s.failures[endpoint]
	return at, ok, nil
}
