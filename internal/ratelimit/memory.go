package ratelimit

import (
	"context"
	"sync"
	"time"
)

const sweepInterval = 5 * time.Minute

type windowEntry struct {
	count   int
	resetAt time.Time
}

// MemoryStore is the in-process counter backend. Entries are created on first
// request, reset in place once their window has passed, and swept
// periodically so the table does not grow with dead keys.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{entries: make(map[string]*windowEntry)}
	go s.sweep()
	return s
}

func (s *MemoryStore) Hit(_ context.Context, key string, max int, window time.Duration) (int, time.Time, bool, error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.resetAt.Before(now) {
		e = &windowEntry{count: 1, resetAt: now.Add(window)}
		s.entries[key] = e
		return e.count, e.resetAt, true, nil
	}

	if e.count >= max {
		// Denied requests do not advance the counter.
		return e.count, e.resetAt, false, nil
	}

	e.count++
	return e.count, e.resetAt, true, nil
}

// sweep evicts expired windows every 5 minutes.
func (s *MemoryStore) sweep() {
	for {
		time.Sleep(sweepInterval)
		s.removeExpired(time.Now())
	}
}

func (s *MemoryStore) removeExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if e.resetAt.Before(now) {
			delete(s.entries, key)
		}
	}
}
