package driven

import (
	"context"

	"github.com/rescout-labs/rescout/internal/core/domain"
)

// DocumentStore persists documents, chunks, and embeddings.
// Backed by SQLite for durable storage, with an in-memory variant for
// tests.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// FindByFingerprint returns the most recent document in the
	// namespace with the given content fingerprint, or ErrNotFound.
	FindByFingerprint(ctx context.Context, namespace, fingerprint string) (*domain.Document, error)

	// UpdateStatus records a lifecycle transition. errDetail is empty
	// unless status is StatusFailed.
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errDetail string) error

	// SetExtractedText stores the extraction output on the document.
	SetExtractedText(ctx context.Context, id, text string) error

	// SaveChunks stores chunks for a document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunks retrieves all chunks for a document, ordered by sequence.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// SaveEmbeddings stores embeddings for previously saved chunks.
	SaveEmbeddings(ctx context.Context, embeddings []domain.Embedding) error

	// ListDocuments returns documents in a namespace, newest first.
	ListDocuments(ctx context.Context, namespace string) ([]domain.Document, error)

	// DeleteDocument removes a document and its chunks and embeddings.
	DeleteDocument(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}
