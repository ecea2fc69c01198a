package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/tbourn/go-songcard-backend/internal/domain"
)

// MemoryStore keeps windows in process memory. It suits single-instance
// deployments and tests; counts are lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]Window
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]Window)}
}

// Current implements Store.
func (s *MemoryStore) Current(_ context.Context, ip string, action domain.Action, since time.Time) (*Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[windowKey(ip, action)]
	if !ok || w.Start.Before(since) {
		return nil, nil
	}
	return &w, nil
}

// Open implements Store.
func (s *MemoryStore) Open(_ context.Context, ip string, action domain.Action, start time.Time, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows[windowKey(ip, action)] = Window{Count: 1, Start: start}
	return nil
}

// Increment implements Store.
func (s *MemoryStore) Increment(_ context.Context, ip string, action domain.Action, _ *Window) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := windowKey(ip, action)
	w := s.windows[k]
	w.Count++
	s.windows[k] = w
	return nil
}
