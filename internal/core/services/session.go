package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driven"
	"github.com/rescout-labs/rescout/internal/logger"
)

// Default session configuration.
const (
	DefaultHistoryLimit = 20
	DefaultIdleTimeout  = 30 * time.Minute
	defaultJanitorEvery = time.Minute
	janitorSweepTimeout = 10 * time.Second
)

// SessionManager owns chat sessions: bounded history, one-turn-at-a-time
// locking, and garbage collection of idle conversations. The in-flight
// turn lock is process-local; only history goes through the store.
type SessionManager struct {
	store driven.SessionStore

	historyLimit int
	idleTimeout  time.Duration
	janitorEvery time.Duration

	lockMu   sync.Mutex
	inFlight map[string]bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// SessionOption configures the manager.
type SessionOption func(*SessionManager)

// WithHistoryLimit caps turns kept per session; oldest are evicted.
func WithHistoryLimit(n int) SessionOption {
	return func(m *SessionManager) {
		if n > 0 {
			m.historyLimit = n
		}
	}
}

// WithIdleTimeout sets how long an inactive session survives.
func WithIdleTimeout(d time.Duration) SessionOption {
	return func(m *SessionManager) {
		if d > 0 {
			m.idleTimeout = d
		}
	}
}

// WithJanitorInterval sets how often idle sessions are swept.
func WithJanitorInterval(d time.Duration) SessionOption {
	return func(m *SessionManager) {
		if d > 0 {
			m.janitorEvery = d
		}
	}
}

// NewSessionManager creates the manager and starts the idle janitor.
// Call Close to stop it.
func NewSessionManager(store driven.SessionStore, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		store:        store,
		historyLimit: DefaultHistoryLimit,
		idleTimeout:  DefaultIdleTimeout,
		janitorEvery: defaultJanitorEvery,
		inFlight:     make(map[string]bool),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	go m.janitor()
	return m
}

// GetOrCreate loads an existing session or opens a new one. A new
// session requires a namespace; an existing session rejects a
// conflicting one.
func (m *SessionManager) GetOrCreate(ctx context.Context, sessionID, namespace, recruiterID string) (*domain.ChatSession, error) {
	if sessionID == "" {
		if namespace == "" {
			return nil, fmt.Errorf("%w: namespace is required for a new session", domain.ErrInvalidInput)
		}
		now := time.Now()
		session := &domain.ChatSession{
			ID:          uuid.NewString(),
			Namespace:   namespace,
			RecruiterID: recruiterID,
			CreatedAt:   now,
			LastActive:  now,
		}
		if err := m.store.Save(ctx, session); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
		logger.Debug("Opened session %s in namespace %s", session.ID, namespace)
		return session, nil
	}

	session, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if namespace != "" && namespace != session.Namespace {
		return nil, fmt.Errorf("%w: session %s belongs to namespace %q",
			domain.ErrInvalidInput, sessionID, session.Namespace)
	}
	return session, nil
}

// Get returns a session by ID.
func (m *SessionManager) Get(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	return m.store.Get(ctx, sessionID)
}

// TryAcquire takes the session's turn lock. Returns false when a turn
// is already in flight; the caller then reports ErrSessionBusy.
func (m *SessionManager) TryAcquire(sessionID string) bool {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	if m.inFlight[sessionID] {
		return false
	}
	m.inFlight[sessionID] = true
	return true
}

// Release frees the session's turn lock.
func (m *SessionManager) Release(sessionID string) {
	m.lockMu.Lock()
	delete(m.inFlight, sessionID)
	m.lockMu.Unlock()
}

// AppendTurns records turns on the session, evicting history beyond the
// limit, and persists it. Both turns of a completed exchange are
// appended together so a failed generation leaves no partial history.
func (m *SessionManager) AppendTurns(ctx context.Context, session *domain.ChatSession, turns ...domain.ChatTurn) error {
	for _, turn := range turns {
		session.AppendTurn(turn, m.historyLimit)
	}
	if err := m.store.Save(ctx, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Close stops the idle janitor.
func (m *SessionManager) Close() error {
	m.stopOnce.Do(func() {
		close(m.stop)
		<-m.done
	})
	return nil
}

// janitor sweeps idle sessions until Close.
func (m *SessionManager) janitor() {
	defer close(m.done)

	ticker := time.NewTicker(m.janitorEvery)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *SessionManager) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), janitorSweepTimeout)
	defer cancel()

	idle, err := m.store.ListIdle(ctx, time.Now().Add(-m.idleTimeout))
	if err != nil {
		logger.Warn("Idle session sweep failed: %v", err)
		return
	}

	for _, id := range idle {
		// Never collect a session mid-turn, however stale it looks.
		if !m.TryAcquire(id) {
			continue
		}
		if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Delete idle session %s: %v", id, err)
		}
		m.Release(id)
	}

	if len(idle) > 0 {
		logger.Debug("Swept %d idle sessions", len(idle))
	}
}
