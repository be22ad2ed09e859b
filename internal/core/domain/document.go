package domain

import (
	"fmt"
	"time"
)

// DocumentStatus is a document's position in the ingestion pipeline.
type DocumentStatus string

// Lifecycle states. A document moves strictly forward; Indexed and
// Failed are terminal.
const (
	// StatusUploaded means the raw blob is stored and the document is queued.
	StatusUploaded DocumentStatus = "uploaded"

	// StatusExtracting means text extraction is running.
	StatusExtracting DocumentStatus = "extracting"

	// StatusExtracted means plain text is available and chunking can begin.
	StatusExtracted DocumentStatus = "extracted"

	// StatusEmbedding means chunk embeddings are being computed and indexed.
	StatusEmbedding DocumentStatus = "embedding"

	// StatusIndexed means the document is retrievable. Terminal.
	StatusIndexed DocumentStatus = "indexed"

	// StatusFailed means a pipeline stage failed. Terminal; the reason is
	// recorded on the document's ErrorDetail.
	StatusFailed DocumentStatus = "failed"
)

var statusTransitions = map[DocumentStatus][]DocumentStatus{
	StatusUploaded:   {StatusExtracting},
	StatusExtracting: {StatusExtracted, StatusFailed},
	StatusExtracted:  {StatusEmbedding},
	StatusEmbedding:  {StatusIndexed, StatusFailed},
	StatusIndexed:    nil,
	StatusFailed:     nil,
}

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// IsTerminal returns true once the document can no longer change state.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusIndexed || s == StatusFailed
}

// CanTransitionTo returns true if the pipeline may move from s to next.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (s DocumentStatus) String() string {
	return string(s)
}

// ParseDocumentStatus converts a stored string back to a status.
func ParseDocumentStatus(raw string) (DocumentStatus, error) {
	s := DocumentStatus(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: document status %q", ErrInvalidInput, raw)
	}
	return s, nil
}

// Document represents one uploaded resume and its pipeline state.
// The ingestion coordinator owns the record until it reaches a terminal
// status; afterwards it is read-only.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Namespace is the batch this document belongs to. Every pipeline and
	// query operation is scoped to exactly one namespace.
	Namespace string

	// RecruiterID is the caller-supplied identity that uploaded the
	// document. Threaded through for filtering; never validated here.
	RecruiterID string

	// Filename is the original upload filename.
	Filename string

	// ContentType is the MIME type declared at upload.
	ContentType string

	// SizeBytes is the raw blob size.
	SizeBytes int64

	// Fingerprint is the SHA-256 hex digest of the raw bytes. Submissions
	// with an identical fingerprint in the same namespace are idempotent.
	Fingerprint string

	// BlobKey locates the raw bytes in the blob store.
	BlobKey string

	// Status is the current lifecycle state.
	Status DocumentStatus

	// ErrorDetail describes the failure when Status is StatusFailed.
	ErrorDetail string

	// ExtractedText is the plain text, populated at StatusExtracted.
	ExtractedText string

	// CreatedAt is when the upload was accepted.
	CreatedAt time.Time

	// UpdatedAt is when the record last changed state.
	UpdatedAt time.Time
}

// Chunk is the unit of embedding and retrieval: a slice of a document's
// extracted text with enough provenance to cite it. Immutable once created.
type Chunk struct {
	// ID is derived from the parent document and sequence, see ChunkID.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Namespace is inherited from the parent document.
	Namespace string

	// Seq is the zero-based position within the document.
	Seq int

	// Text is the chunk content, verbatim from the extracted text.
	Text string

	// StartOffset and EndOffset are byte offsets into the extracted text.
	StartOffset int
	EndOffset   int

	// TokenCount is the number of whitespace-delimited tokens in Text.
	TokenCount int
}

// ChunkID builds the canonical chunk identifier for a document position.
func ChunkID(documentID string, seq int) string {
	return fmt.Sprintf("%s-%d", documentID, seq)
}

// Embedding is the stored vector for one chunk. One embedding per chunk;
// recomputed only if the chunk or the model changes.
type Embedding struct {
	// ChunkID links to the embedded chunk.
	ChunkID string

	// Vector is the fixed-dimension embedding.
	Vector []float32

	// ModelTag records provider/model so a model change can invalidate
	// stored vectors later without a schema change.
	ModelTag string
}

// UploadRequest carries one document submission into the pipeline.
type UploadRequest struct {
	// Namespace is the target batch. Required.
	Namespace string

	// RecruiterID is the caller-supplied identity. Optional.
	RecruiterID string

	// Filename is the original filename; its extension selects the
	// extractor. Required.
	Filename string

	// ContentType is the declared MIME type. Optional.
	ContentType string

	// Data is the raw file bytes. Required.
	Data []byte
}

// StatusEvent is one observed document state transition.
type StatusEvent struct {
	// DocumentID identifies the document that moved.
	DocumentID string

	// Namespace is the document's batch.
	Namespace string

	// From and To are the states of the transition.
	From DocumentStatus
	To   DocumentStatus

	// Reason carries the failure detail when To is StatusFailed.
	Reason string

	// At is when the transition happened.
	At time.Time
}
