package domain

import "time"

// Role identifies the author of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Citation maps a reference marker in generated text back to the chunk
// that grounds it.
type Citation struct {
	// Marker is the reference number as emitted in the answer, e.g. 2
	// for "[2]".
	Marker int

	// ChunkID is the grounding chunk.
	ChunkID string

	// DocumentID is the chunk's parent document.
	DocumentID string

	// Score is the retrieval similarity of the grounding chunk.
	Score float64
}

// ChatTurn is one message in a session.
type ChatTurn struct {
	// Role is who authored the turn.
	Role Role

	// Content is the message text.
	Content string

	// Citations ground an assistant turn; empty for user turns.
	Citations []Citation

	// At is when the turn was recorded.
	At time.Time
}

// ChatSession holds bounded conversation history for one recruiter
// conversation, pinned to one namespace.
type ChatSession struct {
	// ID is the session identifier.
	ID string

	// Namespace is the batch this conversation queries.
	Namespace string

	// RecruiterID is the caller-supplied identity. Optional.
	RecruiterID string

	// Turns is the ordered history, oldest first.
	Turns []ChatTurn

	// CreatedAt is when the session was opened.
	CreatedAt time.Time

	// LastActive is when the session last recorded a turn. Idle sessions
	// are garbage-collected.
	LastActive time.Time
}

// AppendTurn records a turn and evicts the oldest turns beyond limit.
// A limit of zero or less leaves history unbounded.
func (s *ChatSession) AppendTurn(turn ChatTurn, limit int) {
	s.Turns = append(s.Turns, turn)
	if limit > 0 && len(s.Turns) > limit {
		s.Turns = s.Turns[len(s.Turns)-limit:]
	}
	s.LastActive = turn.At
}

// ChatRequest is one conversational query.
type ChatRequest struct {
	// SessionID continues an existing session; empty starts a new one.
	SessionID string

	// Namespace scopes retrieval. Required for new sessions; for
	// existing sessions it must match the session's namespace.
	Namespace string

	// RecruiterID is the caller-supplied identity. Optional.
	RecruiterID string

	// Message is the user's question. Required.
	Message string
}

// ChatEventType discriminates streamed chat events.
type ChatEventType string

// Streamed event kinds. A stream is zero or more token events followed
// by exactly one done or error event.
const (
	ChatEventToken ChatEventType = "token"
	ChatEventDone  ChatEventType = "done"
	ChatEventError ChatEventType = "error"
)

// ChatEvent is one element of a chat answer stream.
type ChatEvent struct {
	// Type discriminates the payload.
	Type ChatEventType

	// Token is the incremental answer text for token events.
	Token string

	// SessionID identifies the session; set on every event so callers
	// that opened a new session learn its ID.
	SessionID string

	// Message is the full post-processed answer, set on done.
	Message string

	// Citations are the resolved references, set on done.
	Citations []Citation

	// Err is the terminal failure, set on error events.
	Err error
}
