package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memstore "github.com/rescout-labs/rescout/internal/adapters/driven/storage/memory"
	"github.com/rescout-labs/rescout/internal/core/domain"
)

func seedCandidates(t *testing.T, store *memstore.CandidateStore, n int) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < n; i++ {
		require.NoError(t, store.SaveCandidate(context.Background(), &domain.CandidateProfile{
			ID:        fmt.Sprintf("doc-%02d", i),
			Namespace: "acme",
			Name:      fmt.Sprintf("Candidate %02d", i),
			Skills:    []string{"Go"},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func TestListPaginatesNewestFirst(t *testing.T) {
	store := memstore.NewCandidateStore()
	seedCandidates(t, store, 5)
	d := NewCandidateDirectory(store)

	page, err := d.List(context.Background(), domain.CandidateFilter{}, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.PageSize)
	require.Len(t, page.Candidates, 2)
	assert.Equal(t, "doc-04", page.Candidates[0].ID, "newest profile comes first")
	assert.Equal(t, "doc-03", page.Candidates[1].ID)

	last, err := d.List(context.Background(), domain.CandidateFilter{}, 3, 2)
	require.NoError(t, err)
	require.Len(t, last.Candidates, 1)
	assert.Equal(t, "doc-00", last.Candidates[0].ID)
}

func TestListPastTheEndIsEmpty(t *testing.T) {
	store := memstore.NewCandidateStore()
	seedCandidates(t, store, 3)
	d := NewCandidateDirectory(store)

	page, err := d.List(context.Background(), domain.CandidateFilter{}, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Candidates)
	assert.Equal(t, 3, page.Total)
}

func TestListDefaultsPageAndSize(t *testing.T) {
	store := memstore.NewCandidateStore()
	seedCandidates(t, store, DefaultCandidatePageSize+5)
	d := NewCandidateDirectory(store)

	page, err := d.List(context.Background(), domain.CandidateFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultCandidatePageSize, page.PageSize)
	assert.Len(t, page.Candidates, DefaultCandidatePageSize)
}

func TestListAppliesFilters(t *testing.T) {
	store := memstore.NewCandidateStore()
	ctx := context.Background()
	require.NoError(t, store.SaveCandidate(ctx, &domain.CandidateProfile{
		ID: "doc-go", Namespace: "acme", Name: "Jane Doe",
		Skills: []string{"Go", "Kubernetes"}, CreatedAt: time.Now(),
	}))
	require.NoError(t, store.SaveCandidate(ctx, &domain.CandidateProfile{
		ID: "doc-java", Namespace: "acme", Name: "John Smith",
		Skills: []string{"Java"}, CreatedAt: time.Now(),
	}))
	require.NoError(t, store.SaveCandidate(ctx, &domain.CandidateProfile{
		ID: "doc-other-ns", Namespace: "globex", Name: "Jae Kim",
		Skills: []string{"Go"}, CreatedAt: time.Now(),
	}))
	d := NewCandidateDirectory(store)

	bySkill, err := d.List(ctx, domain.CandidateFilter{Namespace: "acme", Skill: "go"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, bySkill.Candidates, 1)
	assert.Equal(t, "doc-go", bySkill.Candidates[0].ID)

	byName, err := d.List(ctx, domain.CandidateFilter{NamePrefix: "ja"}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, byName.Candidates, 2, "prefix match is case-insensitive across namespaces")
}

func TestGetCandidateByID(t *testing.T) {
	store := memstore.NewCandidateStore()
	require.NoError(t, store.SaveCandidate(context.Background(), &domain.CandidateProfile{
		ID: "doc-1", Namespace: "acme", Name: "Jane Doe", CreatedAt: time.Now(),
	}))
	d := NewCandidateDirectory(store)

	profile, err := d.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", profile.Name)

	_, err = d.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
