package services

import (
	"context"
	"errors"
	"fmt"
	"unicode"

	"github.com/google/uuid"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driven"
	"github.com/rescout-labs/rescout/internal/core/ports/driving"
	"github.com/rescout-labs/rescout/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.SearchService = (*Retriever)(nil)

// Default retrieval configuration.
const (
	DefaultTopK     = 8
	DefaultMinScore = 0.25

	// maxSnippetsPerHit caps excerpts per matched document in search
	// responses.
	maxSnippetsPerHit = 3

	// snippetRunes caps snippet length.
	snippetRunes = 240
)

// Retriever plans retrieval for one query: embed the query text, run
// the top-k vector search, and drop results below the similarity floor
// so irrelevant chunks never masquerade as grounding.
type Retriever struct {
	embedder       *EmbeddingClient
	vectorIndex    driven.VectorIndex
	docStore       driven.DocumentStore
	candidateStore driven.CandidateStore

	topK     int
	minScore float64
}

// RetrieverOption configures the retriever.
type RetrieverOption func(*Retriever)

// WithDefaultTopK sets the chunk count retrieved when the caller does
// not specify one.
func WithDefaultTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithMinScore sets the similarity floor below which results are
// discarded. Zero disables the floor.
func WithMinScore(s float64) RetrieverOption {
	return func(r *Retriever) {
		r.minScore = s
	}
}

// NewRetriever creates the retrieval planner. The candidateStore is
// optional - if nil, search hits omit candidate IDs.
func NewRetriever(
	embedder *EmbeddingClient,
	vectorIndex driven.VectorIndex,
	docStore driven.DocumentStore,
	candidateStore driven.CandidateStore,
	opts ...RetrieverOption,
) *Retriever {
	r := &Retriever{
		embedder:       embedder,
		vectorIndex:    vectorIndex,
		docStore:       docStore,
		candidateStore: candidateStore,
		topK:           DefaultTopK,
		minScore:       DefaultMinScore,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Retrieve returns ranked chunks for the query within one namespace.
// Returns ErrEmptyNamespace when nothing is indexed yet; an empty slice
// when results exist but none clears the floor (a normal outcome).
func (r *Retriever) Retrieve(ctx context.Context, namespace, query string, topK int) ([]domain.RetrievalResult, error) {
	if namespace == "" {
		return nil, fmt.Errorf("%w: namespace is required", domain.ErrInvalidInput)
	}
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = r.topK
	}

	count, err := r.vectorIndex.Count(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("count namespace: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrEmptyNamespace, namespace)
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := r.vectorIndex.Query(ctx, namespace, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	filtered := results[:0]
	for _, res := range results {
		if res.Score >= r.minScore {
			filtered = append(filtered, res)
		}
	}

	logger.Debug("Retrieved %d/%d chunks above floor %.2f in namespace %s",
		len(filtered), len(results), r.minScore, namespace)
	return filtered, nil
}

// Search runs the non-conversational "find candidates" path: retrieve,
// then group hits per document so one verbose resume does not occupy
// every row.
func (r *Retriever) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	results, err := r.Retrieve(ctx, req.Namespace, req.Query, req.TopK)
	if err != nil {
		return nil, err
	}

	resp := &domain.SearchResponse{QueryID: uuid.NewString()}

	// Results arrive ranked, so the first chunk seen per document
	// carries its best score and hits stay in score order.
	byDoc := make(map[string]int)
	for _, res := range results {
		idx, ok := byDoc[res.DocumentID]
		if !ok {
			resp.Results = append(resp.Results, domain.SearchHit{
				DocumentID: res.DocumentID,
				Score:      res.Score,
			})
			idx = len(resp.Results) - 1
			byDoc[res.DocumentID] = idx
		}

		hit := &resp.Results[idx]
		if len(hit.Snippets) >= maxSnippetsPerHit {
			continue
		}
		chunk, err := r.docStore.GetChunk(ctx, res.ChunkID)
		if err != nil {
			logger.Warn("Snippet lookup for chunk %s failed: %v", res.ChunkID, err)
			continue
		}
		hit.Snippets = append(hit.Snippets, snippet(chunk.Text))
	}

	if r.candidateStore != nil {
		for i := range resp.Results {
			profile, err := r.candidateStore.GetCandidate(ctx, resp.Results[i].DocumentID)
			if err != nil {
				if !errors.Is(err, domain.ErrNotFound) {
					logger.Warn("Candidate lookup for document %s failed: %v",
						resp.Results[i].DocumentID, err)
				}
				continue
			}
			resp.Results[i].CandidateID = profile.ID
		}
	}

	return resp, nil
}

// snippet truncates chunk text to a display excerpt on a rune boundary.
func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetRunes {
		return text
	}

	cut := snippetRunes
	for cut > 0 && !unicode.IsSpace(runes[cut]) {
		cut--
	}
	if cut == 0 {
		cut = snippetRunes
	}
	return string(runes[:cut]) + "…"
}
