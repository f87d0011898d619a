package session

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory. Suitable for development and
// tests; sessions do not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Expired() {
		_ = m.Clear(ctx, id)
		return nil, ErrNotFound
	}
	copied := *sess
	return &copied, nil
}

func (m *MemoryStore) Set(_ context.Context, sess *Session) error {
	copied := *sess
	m.mu.Lock()
	m.sessions[sess.ID] = &copied
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}
