package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-process session store. Safe for concurrent use.
// Sessions vanish on restart, which is acceptable for a tool whose state is
// one diagram reference and a few flash messages.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Get retrieves a session by ID. Expired sessions are removed on read.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if s.IsExpired() {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	// Copy so callers can mutate freely before Set.
	out := *s
	out.Flashes = append([]Flash(nil), s.Flashes...)
	return &out, nil
}

// Set stores a session.
func (m *MemoryStore) Set(ctx context.Context, s *Session) error {
	cp := *s
	cp.Flashes = append([]Flash(nil), s.Flashes...)
	m.mu.Lock()
	m.sessions[s.ID] = &cp
	m.mu.Unlock()
	return nil
}

// Delete removes a session.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}
