package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescout-labs/rescout/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_Short(t *testing.T) {
	assert.Equal(t, "Search candidates in a namespace", searchCmd.Short)
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasNamespaceFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("namespace")
	require.NotNil(t, flag, "namespace flag should exist")
	assert.Equal(t, "s", flag.Shorthand)
	assert.Equal(t, "default", flag.DefValue)
}

func TestSearchCmd_HasTopFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("top")
	require.NotNil(t, flag, "top flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestSearchCmd_ErrorsWithoutServices(t *testing.T) {
	oldSearch := searchService
	searchService = nil
	defer func() { searchService = oldSearch }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search", "golang"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestSearchCmd_PrintsGroupedResults(t *testing.T) {
	stubs, cleanup := setupTestServices()
	defer cleanup()
	stubs.search.resp = &domain.SearchResponse{
		QueryID: "q-1",
		Results: []domain.SearchHit{{
			DocumentID:  "doc-1",
			CandidateID: "doc-1",
			Score:       0.83,
			Snippets:    []string{"Go services in production"},
		}},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "-s", "acme", "-n", "5", "golang"})
	defer func() {
		rootCmd.SetArgs(nil)
		searchNamespace = "default"
		searchTopK = 0
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Results:")
	assert.Contains(t, buf.String(), "doc-1 (0.83)")
	assert.Contains(t, buf.String(), "Go services in production")

	assert.Equal(t, "acme", stubs.search.lastReq.Namespace)
	assert.Equal(t, 5, stubs.search.lastReq.TopK)
	assert.Equal(t, "golang", stubs.search.lastReq.Query)
}

func TestSearchCmd_EmptyNamespaceIsFriendly(t *testing.T) {
	stubs, cleanup := setupTestServices()
	defer cleanup()
	stubs.search.err = domain.ErrEmptyNamespace

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search", "golang"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no indexed resumes")
}

func TestSearchCmd_NoMatchesBelowFloor(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "underwater basket weaving"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No results found.")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	stubs, cleanup := setupTestServices()
	defer cleanup()
	stubs.search.resp = &domain.SearchResponse{
		QueryID: "q-1",
		Results: []domain.SearchHit{{DocumentID: "doc-1", Score: 0.5}},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "--json", "golang"})
	defer func() {
		rootCmd.SetArgs(nil)
		searchJSON = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "\"QueryID\"")
	assert.Contains(t, buf.String(), "\"doc-1\"")
}
