package dedup

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps processed event IDs in process memory. Entries expire
// after their TTL and are swept lazily on each call.
type MemoryStore struct {
	mu     sync.Mutex
	events map[string]time.Time // eventID -> expiresAt
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[string]time.Time),
		now:    time.Now,
	}
}

func (s *MemoryStore) Claim(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupExpiredLocked()

	if _, exists := s.events[eventID]; exists {
		return false, nil
	}
	s.events[eventID] = s.now().Add(ttl)
	return true, nil
}

func (s *MemoryStore) Release(ctx context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.events, eventID)
	return nil
}

// Len reports live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupExpiredLocked()
	return len(s.events)
}

func (s *MemoryStore) cleanupExpiredLocked() {
	now := s.now()
	for eventID, expiresAt := range s.events {
		if now.After(expiresAt) {
			delete(s.events, eventID)
		}
	}
}
