package driven

import (
	"context"

	"github.com/rescout-labs/rescout/internal/core/domain"
)

// VectorIndex stores chunk embeddings partitioned by namespace and
// answers top-k cosine similarity queries.
//
// Contract, identical across backends:
//   - Vectors are L2-normalized on insert and on query, so similarity is
//     cosine in [-1, 1].
//   - Query results are ranked by descending score; k is clamped to the
//     namespace's entry count.
//   - Querying an empty or unknown namespace returns an empty result,
//     not an error.
//   - Namespace isolation is a hard invariant: a query never returns
//     entries from a different namespace.
//   - Readers never block each other; reads may run concurrently with
//     writes (a query may or may not see an in-flight upsert).
type VectorIndex interface {
	// Upsert inserts or replaces entries in the namespace.
	Upsert(ctx context.Context, namespace string, entries []domain.VectorEntry) error

	// Query finds the k nearest entries to the vector.
	Query(ctx context.Context, namespace string, vector []float32, k int) ([]domain.RetrievalResult, error)

	// Count returns the number of entries in the namespace.
	Count(ctx context.Context, namespace string) (int, error)

	// DeleteDocument removes all entries belonging to a document.
	DeleteDocument(ctx context.Context, namespace, documentID string) error

	// Close releases resources.
	Close() error
}
