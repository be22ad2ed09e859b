package driving

import (
	"context"

	"github.com/rescout-labs/rescout/internal/core/domain"
)

// ChatService provides the conversational retrieval-augmented path.
type ChatService interface {
	// Chat answers one conversational turn. The returned channel yields
	// token events followed by exactly one done or error event, then
	// closes. Synchronous failures (busy session, empty namespace,
	// unknown session) are returned as errors before any stream starts.
	// Cancelling ctx mid-stream stops generation; the turn is then not
	// recorded.
	Chat(ctx context.Context, req domain.ChatRequest) (<-chan domain.ChatEvent, error)

	// GetSession returns a session's bounded history.
	GetSession(ctx context.Context, sessionID string) (*domain.ChatSession, error)
}
