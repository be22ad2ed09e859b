package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore is an in-memory implementation of driven.SessionStore.
// Sessions are copied on save and get so callers never share turn
// slices with the store.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.ChatSession
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*domain.ChatSession),
	}
}

// Save stores or replaces a session.
func (s *SessionStore) Save(_ context.Context, session *domain.ChatSession) error {
	if session.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(_ context.Context, id string) (*domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneSession(session), nil
}

// Delete removes a session.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// ListIdle returns IDs of sessions idle since before the cutoff.
func (s *SessionStore) ListIdle(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, session := range s.sessions {
		if session.LastActive.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Close releases resources.
func (s *SessionStore) Close() error {
	return nil
}

func cloneSession(session *domain.ChatSession) *domain.ChatSession {
	out := *session
	out.Turns = make([]domain.ChatTurn, len(session.Turns))
	for i, turn := range session.Turns {
		t := turn
		if len(turn.Citations) > 0 {
			t.Citations = make([]domain.Citation, len(turn.Citations))
			copy(t.Citations, turn.Citations)
		}
		out.Turns[i] = t
	}
	return &out
}
