package services

import (
	"context"
	"fmt"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driven"
	"github.com/rescout-labs/rescout/internal/core/ports/driving"
)

// Ensure CandidateDirectory implements the interface.
var _ driving.CandidateService = (*CandidateDirectory)(nil)

// DefaultCandidatePageSize is the listing page size when unspecified.
const DefaultCandidatePageSize = 20

// CandidateDirectory exposes derived candidate profiles for listing
// and inspection. Read-only: profiles are written by the profiler and
// deleted with their source document.
type CandidateDirectory struct {
	store driven.CandidateStore
}

// NewCandidateDirectory creates the directory service.
func NewCandidateDirectory(store driven.CandidateStore) *CandidateDirectory {
	return &CandidateDirectory{store: store}
}

// List returns one page of profiles matching the filter.
func (d *CandidateDirectory) List(ctx context.Context, filter domain.CandidateFilter, page, pageSize int) (*domain.CandidatePage, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultCandidatePageSize
	}

	profiles, err := d.store.ListCandidates(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	result := &domain.CandidatePage{
		Page:     page,
		PageSize: pageSize,
		Total:    len(profiles),
	}

	start := (page - 1) * pageSize
	if start < len(profiles) {
		end := start + pageSize
		if end > len(profiles) {
			end = len(profiles)
		}
		result.Candidates = profiles[start:end]
	}

	return result, nil
}

// Get returns a single profile by ID.
func (d *CandidateDirectory) Get(ctx context.Context, id string) (*domain.CandidateProfile, error) {
	return d.store.GetCandidate(ctx, id)
}
