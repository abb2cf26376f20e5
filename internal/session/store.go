package session

import (
	"context"
	"sync"
)

// Store persists sessions keyed by user id.
type Store interface {
	// Get returns the session for userID, creating and persisting the
	// default session on first access.
	Get(ctx context.Context, userID string) (*Session, error)

	// Save overwrites the stored session.
	Save(ctx context.Context, s *Session) error

	// Delete removes the stored session. Deleting a missing session is
	// not an error.
	Delete(ctx context.Context, userID string) error
}

// Locker is implemented by stores shared between processes. Engine holds
// the returned lock for the whole of a turn, on top of its in-process
// mutex, so replicas cannot interleave a learner's read-modify-write.
type Locker interface {
	LockUser(ctx context.Context, userID string) (unlock func(), err error)
}

// MemoryStore is an in-process Store. It hands out copies so callers
// cannot mutate stored records without Save.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()
	if ok {
		return s.Clone(), nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s.Clone(), nil
	}
	s = New(userID)
	m.sessions[userID] = s
	return s.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	c := s.Clone()
	c.Normalize()
	m.mu.Lock()
	m.sessions[s.UserID] = c
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
