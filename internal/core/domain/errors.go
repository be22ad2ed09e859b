package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidFormat indicates an upload with an unsupported file type.
	// Returned synchronously at submission; user-correctable.
	ErrInvalidFormat = errors.New("unsupported document format")

	// ErrPayloadTooLarge indicates an upload over the configured size cap.
	ErrPayloadTooLarge = errors.New("payload exceeds size limit")

	// ErrExtractionFailed indicates the text extractor could not produce
	// text for a document. Terminal for that document; retryable by
	// re-uploading.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrEmptyContent indicates extraction produced no usable text.
	// The document is failed rather than indexed empty.
	ErrEmptyContent = errors.New("document has no extractable text")

	// ErrEmbeddingFailed indicates embedding computation was exhausted
	// after retries for at least one chunk of a document.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrEmptyNamespace indicates a retrieval against a namespace with no
	// indexed chunks. Recoverable: nothing has been ingested yet.
	ErrEmptyNamespace = errors.New("namespace has no indexed documents")

	// ErrGenerationUnavailable indicates the generation service failed
	// before or during an answer. The conversation turn is not recorded.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrSessionBusy indicates a generation is already in flight for the
	// session. The caller should retry after the current turn completes.
	ErrSessionBusy = errors.New("session busy")

	// ErrRateLimited indicates an upstream API rate limit was exceeded.
	// Treated as transient by the embedding client's retry loop.
	ErrRateLimited = errors.New("rate limited")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Chat and profile extraction are disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Ingestion and retrieval are disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not
	// configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
)
