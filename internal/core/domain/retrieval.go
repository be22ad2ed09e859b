package domain

// VectorEntry is one chunk's presence in the vector index.
type VectorEntry struct {
	// ChunkID identifies the chunk.
	ChunkID string

	// DocumentID is the chunk's parent document, carried for cascade
	// deletes and per-document grouping.
	DocumentID string

	// Vector is the embedding. Indexes normalize it on insert.
	Vector []float32

	// ModelTag records which embedding model produced the vector.
	ModelTag string
}

// RetrievalResult is a single ranked hit from the vector index.
// Ephemeral: produced per query, never persisted.
type RetrievalResult struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the chunk's parent document.
	DocumentID string

	// Namespace is the queried namespace.
	Namespace string

	// Score is cosine similarity over L2-normalized vectors, in [-1, 1].
	Score float64
}

// ContextBlock is one chunk selected into the generation context.
// Ref is the citation marker number handed to the generator.
type ContextBlock struct {
	// Ref is the 1-based marker number for this block.
	Ref int

	// ChunkID and DocumentID carry provenance for citation resolution.
	ChunkID    string
	DocumentID string

	// Text is the chunk content placed in the prompt.
	Text string

	// Score is the retrieval similarity that selected this block.
	Score float64

	// TokenCount is the block's cost against the context budget.
	TokenCount int
}
