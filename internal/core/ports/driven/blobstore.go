package driven

import "context"

// BlobStore persists raw upload bytes by key.
//
// Keys follow "<namespace>/<documentID><ext>". The store is consumed
// with plain get/put semantics; retention and layout beyond the key
// contract are implementation concerns.
type BlobStore interface {
	// Put stores bytes under the key, replacing any existing blob.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the bytes stored under the key, or domain.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
