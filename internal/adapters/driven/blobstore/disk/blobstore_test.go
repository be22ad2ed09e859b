package disk

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescout-labs/rescout/internal/core/domain"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestDiskStorePutGetDelete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "acme/doc-1.pdf", []byte("raw pdf bytes")))

	// The namespace becomes a subdirectory.
	assert.FileExists(t, filepath.Join(store.Root(), "acme", "doc-1.pdf"))

	got, err := store.Get(ctx, "acme/doc-1.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("raw pdf bytes"), got)

	require.NoError(t, store.Put(ctx, "acme/doc-1.pdf", []byte("replaced")))
	got, err = store.Get(ctx, "acme/doc-1.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("replaced"), got)

	require.NoError(t, store.Delete(ctx, "acme/doc-1.pdf"))
	_, err = store.Get(ctx, "acme/doc-1.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "acme/doc-1.pdf"))
}

func TestDiskStoreRejectsEscapingKeys(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, key := range []string{"", "../outside", "../../etc/passwd", "/abs/path"} {
		err := store.Put(ctx, key, []byte("x"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "key %q", key)

		_, err = store.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "key %q", key)
	}
}

func TestDiskStoreFilePermissions(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "acme/doc-1.pdf", []byte("x")))

	info, err := os.Stat(filepath.Join(store.Root(), "acme", "doc-1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
