package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driving"
)

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [file...]", ingestCmd.Use)
}

func TestIngestCmd_RequiresAtLeastOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestIngestCmd_ErrorsWithoutServices(t *testing.T) {
	oldIngest := ingestService
	ingestService = nil
	defer func() { ingestService = oldIngest }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", "resume.pdf"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestIngestCmd_SubmitsAndWaits(t *testing.T) {
	stubs, cleanup := setupTestServices()
	defer cleanup()
	stubs.ingest.submitID = "doc-1"
	stubs.ingest.submitStatus = domain.StatusUploaded
	stubs.ingest.statusInfo = &driving.DocumentStatusInfo{
		DocumentID:  "doc-1",
		Status:      domain.StatusIndexed,
		CandidateID: "doc-1",
	}

	path := filepath.Join(t.TempDir(), "jane.txt")
	require.NoError(t, os.WriteFile(path, []byte("resume text"), 0o644))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "-s", "acme", path})
	defer func() {
		rootCmd.SetArgs(nil)
		ingestNamespace = "default"
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "submitted as doc-1")
	assert.Contains(t, buf.String(), "indexed")
	assert.Contains(t, buf.String(), "candidate doc-1")

	assert.Equal(t, "acme", stubs.ingest.lastUpload.Namespace)
	assert.Equal(t, "jane.txt", stubs.ingest.lastUpload.Filename)
	assert.Equal(t, []byte("resume text"), stubs.ingest.lastUpload.Data)
}

func TestIngestCmd_ReportsFailedDocuments(t *testing.T) {
	stubs, cleanup := setupTestServices()
	defer cleanup()
	stubs.ingest.submitID = "doc-1"
	stubs.ingest.submitStatus = domain.StatusUploaded
	stubs.ingest.statusInfo = &driving.DocumentStatusInfo{
		DocumentID:  "doc-1",
		Status:      domain.StatusFailed,
		ErrorDetail: "document has no extractable text",
	}

	path := filepath.Join(t.TempDir(), "blank.txt")
	require.NoError(t, os.WriteFile(path, []byte("   "), 0o644))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", path})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 files failed")
	assert.Contains(t, buf.String(), "FAILED: document has no extractable text")
}

func TestIngestCmd_NoWaitSkipsPolling(t *testing.T) {
	stubs, cleanup := setupTestServices()
	defer cleanup()
	stubs.ingest.submitID = "doc-1"
	stubs.ingest.submitStatus = domain.StatusUploaded

	path := filepath.Join(t.TempDir(), "jane.txt")
	require.NoError(t, os.WriteFile(path, []byte("resume"), 0o644))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "--no-wait", path})
	defer func() {
		rootCmd.SetArgs(nil)
		ingestNoWait = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "submitted as doc-1")
	assert.NotContains(t, buf.String(), "indexed")
}

func TestStatusCmd_Use(t *testing.T) {
	assert.Equal(t, "status [document-id]", statusCmd.Use)
}

func TestStatusCmd_PrintsPipelineState(t *testing.T) {
	stubs, cleanup := setupTestServices()
	defer cleanup()
	stubs.ingest.statusInfo = &driving.DocumentStatusInfo{
		DocumentID:  "doc-1",
		Status:      domain.StatusFailed,
		ErrorDetail: "embedding failed",
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"status", "doc-1"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Document: doc-1")
	assert.Contains(t, buf.String(), "failed")
	assert.Contains(t, buf.String(), "embedding failed")
}
