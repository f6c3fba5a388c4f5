package chat

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var ErrSessionNotFound = errors.New("session not found")

// DefaultMaxSessions bounds the in-memory session table
const DefaultMaxSessions = 1000

// Manager owns the live sessions. Sessions are kept in memory only.
type Manager struct {
	matcher  Matcher
	max      int
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewManager creates a manager; limit <= 0 uses DefaultMaxSessions
func NewManager(matcher Matcher, limit int) *Manager {
	if limit <= 0 {
		limit = DefaultMaxSessions
	}
	return &Manager{
		matcher:  matcher,
		max:      limit,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session. When the table is full the oldest session is evicted.
func (m *Manager) Create() *Session {
	s := NewSession(m.matcher)

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.max {
		m.evictOldestLocked()
	}
	m.sessions[s.ID] = s
	return s
}

func (m *Manager) evictOldestLocked() {
	var oldest *Session
	for _, s := range m.sessions {
		if oldest == nil || s.CreatedAt.Before(oldest.CreatedAt) {
			oldest = s
		}
	}
	if oldest != nil {
		delete(m.sessions, oldest.ID)
	}
}

// Get retrieves a session by ID
func (m *Manager) Get(id string) (*Session, error) {
	if err := ValidateSessionID(id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// List returns all session IDs, sorted
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Delete removes a session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
