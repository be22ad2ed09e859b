package driven

import (
	"context"

	"github.com/rescout-labs/rescout/internal/core/domain"
)

// CandidateStore persists derived candidate profiles.
// This is an optional store - when nil, profile derivation is skipped.
type CandidateStore interface {
	// SaveCandidate stores or replaces a profile.
	SaveCandidate(ctx context.Context, profile *domain.CandidateProfile) error

	// GetCandidate retrieves a profile by ID, or domain.ErrNotFound.
	GetCandidate(ctx context.Context, id string) (*domain.CandidateProfile, error)

	// ListCandidates returns profiles matching the filter, ordered by
	// creation time, newest first.
	ListCandidates(ctx context.Context, filter domain.CandidateFilter) ([]domain.CandidateProfile, error)

	// DeleteCandidate removes a profile. Deleting a missing profile is
	// not an error.
	DeleteCandidate(ctx context.Context, id string) error
}
