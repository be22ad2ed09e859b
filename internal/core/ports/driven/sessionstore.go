package driven

import (
	"context"
	"time"

	"github.com/rescout-labs/rescout/internal/core/domain"
)

// SessionStore persists chat sessions.
//
// The store holds history only; the in-flight turn lock lives in the
// session manager, in process. Implementations must tolerate concurrent
// access from the manager and the idle janitor.
type SessionStore interface {
	// Save stores or replaces a session.
	Save(ctx context.Context, session *domain.ChatSession) error

	// Get retrieves a session by ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.ChatSession, error)

	// Delete removes a session. Deleting a missing session is not an
	// error.
	Delete(ctx context.Context, id string) error

	// ListIdle returns IDs of sessions whose LastActive is before the
	// cutoff. Used by the idle janitor.
	ListIdle(ctx context.Context, cutoff time.Time) ([]string, error)

	// Close releases resources.
	Close() error
}
