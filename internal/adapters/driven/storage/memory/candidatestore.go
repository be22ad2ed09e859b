package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driven"
)

// Ensure CandidateStore implements the interface.
var _ driven.CandidateStore = (*CandidateStore)(nil)

// CandidateStore is an in-memory implementation of driven.CandidateStore.
type CandidateStore struct {
	mu       sync.RWMutex
	profiles map[string]domain.CandidateProfile
}

// NewCandidateStore creates a new in-memory candidate store.
func NewCandidateStore() *CandidateStore {
	return &CandidateStore{
		profiles: make(map[string]domain.CandidateProfile),
	}
}

// SaveCandidate stores or replaces a profile.
func (s *CandidateStore) SaveCandidate(_ context.Context, profile *domain.CandidateProfile) error {
	if profile.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	s.profiles[profile.ID] = *profile
	return nil
}

// GetCandidate retrieves a profile by ID.
func (s *CandidateStore) GetCandidate(_ context.Context, id string) (*domain.CandidateProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &profile, nil
}

// ListCandidates returns profiles matching the filter, newest first.
func (s *CandidateStore) ListCandidates(_ context.Context, filter domain.CandidateFilter) ([]domain.CandidateProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.CandidateProfile
	for id := range s.profiles {
		profile := s.profiles[id]
		if filter.Matches(profile) {
			result = append(result, profile)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// DeleteCandidate removes a profile.
func (s *CandidateStore) DeleteCandidate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, id)
	return nil
}
