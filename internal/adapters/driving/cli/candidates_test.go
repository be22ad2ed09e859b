package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescout-labs/rescout/internal/core/domain"
)

func TestCandidatesCmd_Use(t *testing.T) {
	assert.Equal(t, "candidates", candidatesCmd.Use)
}

func TestCandidatesCmd_HasShowSubcommand(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range candidatesCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Contains(t, names, "show")
}

func TestCandidatesCmd_ErrorsWithoutServices(t *testing.T) {
	oldCandidates := candidateService
	candidateService = nil
	defer func() { candidateService = oldCandidates }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"candidates"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestCandidatesCmd_ListsProfiles(t *testing.T) {
	stubs, cleanup := setupTestServices()
	defer cleanup()
	stubs.candidates.page = &domain.CandidatePage{
		Candidates: []domain.CandidateProfile{{
			ID:     "doc-1",
			Name:   "Jane Doe",
			Title:  "Backend Engineer",
			Skills: []string{"Go", "Kubernetes"},
		}},
		Page:     1,
		PageSize: 20,
		Total:    1,
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"candidates"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Jane Doe - Backend Engineer")
	assert.Contains(t, buf.String(), "Skills: Go, Kubernetes")
	assert.Contains(t, buf.String(), "Page 1 (1 of 1 total)")
}

func TestCandidatesCmd_EmptyListing(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"candidates"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No candidates found.")
}

func TestCandidatesShowCmd_PrintsProfile(t *testing.T) {
	stubs, cleanup := setupTestServices()
	defer cleanup()
	stubs.candidates.profile = &domain.CandidateProfile{
		ID:              "doc-1",
		Namespace:       "acme",
		Name:            "Jane Doe",
		Title:           "Backend Engineer",
		Company:         "Acme",
		Skills:          []string{"Go"},
		ExperienceYears: 6,
		Summary:         "Platform lead.",
		SourceFilename:  "jane.pdf",
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"candidates", "show", "doc-1"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Name:      Jane Doe")
	assert.Contains(t, out, "Experience: 6 years")
	assert.Contains(t, out, "jane.pdf (document doc-1)")
}
