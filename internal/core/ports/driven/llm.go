package driven

import "context"

// LLMService provides language model operations for answer generation
// and structured extraction.
// This is an optional service - when nil, chat is disabled and candidate
// profiles fall back to heuristic extraction.
//
// Implementations may include:
//   - OpenAI (GPT-4 family)
//   - Anthropic (Claude)
//   - Google (Gemini)
//   - Ollama (local models)
type LLMService interface {
	// Complete produces a full completion for a conversation.
	Complete(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// Stream produces a completion incrementally. The returned channel
	// yields zero or more deltas and is closed when generation ends; a
	// mid-stream failure is delivered as a final chunk with Err set.
	// Cancelling ctx stops the stream.
	Stream(ctx context.Context, messages []ChatMessage, opts ChatOptions) (<-chan StreamChunk, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures generation behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}

// StreamChunk is one element of a completion stream.
type StreamChunk struct {
	// Delta is the incremental text.
	Delta string

	// Err terminates the stream when non-nil.
	Err error
}
