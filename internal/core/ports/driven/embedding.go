package driven

import "context"

// EmbedPurpose tells providers what the vectors are for. Providers that
// distinguish retrieval task types (Gemini) map it; others ignore it.
type EmbedPurpose string

// Embedding purposes.
const (
	// PurposeDocument embeds chunk text for indexing.
	PurposeDocument EmbedPurpose = "document"

	// PurposeQuery embeds query text for retrieval. Never persisted.
	PurposeQuery EmbedPurpose = "query"
)

// EmbeddingService generates vector embeddings from text.
//
// One call is one provider request: callers are responsible for batching
// inputs within provider limits and for retry policy. The embedding
// client in core/services layers batching, bounded retry, and rate
// limiting on top of this port.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Gemini (text-embedding-004)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates embeddings for the given texts, one vector per
	// input, in input order. Transient upstream failures should be
	// reported as domain.ErrRateLimited (wrapped) so callers can retry.
	Embed(ctx context.Context, texts []string, purpose EmbedPurpose) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	// This must match the vector index configuration.
	Dimensions() int

	// ModelName returns the provider/model tag stored on embeddings.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request. Used at startup and by settings validation.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
