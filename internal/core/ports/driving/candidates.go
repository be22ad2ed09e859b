package driving

import (
	"context"

	"github.com/rescout-labs/rescout/internal/core/domain"
)

// CandidateService exposes derived candidate profiles for listing and
// inspection.
type CandidateService interface {
	// List returns one page of profiles matching the filter.
	// Page is 1-based; pageSize of zero means the default.
	List(ctx context.Context, filter domain.CandidateFilter, page, pageSize int) (*domain.CandidatePage, error)

	// Get returns a single profile by ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.CandidateProfile, error)
}
