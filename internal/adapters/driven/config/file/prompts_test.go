package file

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescout-labs/rescout/internal/core/ports/driven"
)

func TestNewPromptStore_NoImmediateIO(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "prompts")

	store, err := NewPromptStore(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, tmpDir, store.Dir())

	// Constructor must not create anything.
	_, err = os.Stat(tmpDir)
	assert.True(t, os.IsNotExist(err))
}

func TestPromptStore_LoadCreatesDefaults(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(tmpDir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Contains(t, prompt, "%s")
	assert.Contains(t, prompt, "square brackets")

	// First load materialises the default files and the README.
	assert.FileExists(t, filepath.Join(tmpDir, "answer_system.txt"))
	assert.FileExists(t, filepath.Join(tmpDir, "profile_extract.txt"))
	assert.FileExists(t, filepath.Join(tmpDir, "README.md"))
}

func TestPromptStore_LoadProfileExtract(t *testing.T) {
	store, err := NewPromptStore(filepath.Join(t.TempDir(), "prompts"))
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptProfileExtract)
	require.NoError(t, err)
	assert.Contains(t, prompt, "JSON")
	assert.Contains(t, prompt, "experience_years")
	assert.Contains(t, prompt, "%s")
}

func TestPromptStore_UserOverride(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "prompts")
	require.NoError(t, os.MkdirAll(tmpDir, 0700))

	custom := "Custom answer prompt with context:\n%s"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "answer_system.txt"), []byte(custom), 0600))

	store, err := NewPromptStore(tmpDir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_ReloadPicksUpEdits(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(tmpDir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)

	// Edit the file on disk; the cache still returns the old content.
	edited := "Edited prompt %s"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "answer_system.txt"), []byte(edited), 0600))

	cached, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()

	fresh, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, edited, fresh)
}

func TestPromptStore_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(filepath.Join(t.TempDir(), "prompts"))
	require.NoError(t, err)

	_, err = store.Load("does_not_exist")
	assert.Error(t, err)
}

func TestPromptStore_TrimsWhitespace(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "prompts")
	require.NoError(t, os.MkdirAll(tmpDir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "answer_system.txt"),
		[]byte("\n\n  padded %s  \n\n"), 0600))

	store, err := NewPromptStore(tmpDir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, "padded %s", prompt)
	assert.False(t, strings.HasSuffix(prompt, " "))
}
