package driving

import (
	"context"

	"github.com/rescout-labs/rescout/internal/core/domain"
)

// SearchService provides the non-conversational retrieval path.
type SearchService interface {
	// Search retrieves and groups the best-matching documents for a
	// query within one namespace. Returns domain.ErrEmptyNamespace when
	// the namespace has no indexed chunks; an empty result list when
	// nothing clears the similarity floor.
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error)
}
