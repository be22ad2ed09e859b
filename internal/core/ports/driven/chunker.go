package driven

import "github.com/rescout-labs/rescout/internal/core/domain"

// Chunker splits extracted text into retrieval units.
//
// Chunking is deterministic: the same text always produces the same
// boundaries. Whitespace-only text yields zero chunks; the coordinator
// treats that as an empty-content failure, not a success.
type Chunker interface {
	// Chunk splits text into ordered chunks owned by the given document.
	Chunk(documentID, namespace, text string) []domain.Chunk
}
