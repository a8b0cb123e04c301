// Package session persists the current session across process restarts.
// The store is a side channel: once the controller is running, its
// in-memory state is authoritative and the store only mirrors it.
package session

import (
	"context"
	"sync"

	"github.com/Abhishekkatale/CRM-Musitech/internal/domain"
)

// Store persists the current session. Restore fails silently (nil, nil)
// when nothing usable is persisted. Last-writer-wins across processes
// is acceptable.
type Store interface {
	Restore(ctx context.Context) (*domain.Session, error)
	Persist(ctx context.Context, session *domain.Session) error
	Clear(ctx context.Context) error
}

// memoryStore keeps the session in process memory only. Used in tests
// and when running without Redis.
type memoryStore struct {
	mu      sync.Mutex
	session *domain.Session
}

// NewMemoryStore returns an in-memory store.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (s *memoryStore) Restore(_ context.Context) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, nil
	}
	copied := *s.session
	return &copied, nil
}

func (s *memoryStore) Persist(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session == nil {
		s.session = nil
		return nil
	}
	copied := *session
	s.session = &copied
	return nil
}

func (s *memoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}
