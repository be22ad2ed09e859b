package driving

import (
	"context"

	"github.com/rescout-labs/rescout/internal/core/domain"
)

// DocumentStatusInfo is the pipeline state snapshot returned to pollers.
type DocumentStatusInfo struct {
	// DocumentID identifies the document.
	DocumentID string

	// Status is the last known lifecycle state. Eventually consistent:
	// a just-finished transition may take a moment to appear.
	Status domain.DocumentStatus

	// ErrorDetail is set when Status is StatusFailed.
	ErrorDetail string

	// CandidateID is set once the document is indexed and a profile has
	// been derived for it.
	CandidateID string
}

// IngestService accepts document uploads and drives them through the
// ingestion pipeline.
type IngestService interface {
	// Submit validates and accepts one upload, returning the document ID
	// and its current status. Processing is asynchronous; poll GetStatus
	// for progress. Submitting bytes already present in the namespace
	// (same fingerprint, non-failed) returns the existing document ID.
	Submit(ctx context.Context, req domain.UploadRequest) (string, domain.DocumentStatus, error)

	// GetStatus returns the last known pipeline state for a document.
	GetStatus(ctx context.Context, documentID string) (*DocumentStatusInfo, error)

	// Delete removes a document and everything derived from it: chunks,
	// embeddings, vector entries, profile, and the raw blob.
	Delete(ctx context.Context, documentID string) error

	// Watch subscribes to document status transitions. The returned
	// cancel function must be called to release the subscription.
	Watch() (<-chan domain.StatusEvent, func())

	// Wait blocks until the document reaches a terminal status or the
	// context is cancelled, returning the final state.
	Wait(ctx context.Context, documentID string) (*DocumentStatusInfo, error)
}
