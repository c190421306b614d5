package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. Sessions do not survive a
// restart and are not shared between replicas.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.TokenHash] = s
	m.pruneLocked()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, tokenHash string) (Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[tokenHash]
	m.mu.RUnlock()
	if !ok || s.Expired(m.now()) {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (m *MemoryStore) Delete(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, tokenHash)
	return nil
}

// pruneLocked drops expired sessions on every write.
func (m *MemoryStore) pruneLocked() {
	now := m.now()
	for k, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, k)
		}
	}
}
