package services

import (
	"context"
	"sort"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driven"
	"github.com/rescout-labs/rescout/internal/logger"
)

// Default assembly configuration.
const (
	DefaultContextTokenBudget = 3000
	DefaultMaxPerDocument     = 3
)

// ContextAssembler packs retrieved chunks into a bounded generation
// context. Selection is greedy by descending similarity: a chunk that
// would overflow the remaining budget is skipped, not a stopping point,
// so smaller chunks further down the ranking still fit (best-effort
// packing rather than strict top-k truncation). At most maxPerDocument
// chunks come from one document, so a single verbose resume cannot
// crowd out the other candidates.
type ContextAssembler struct {
	docStore driven.DocumentStore

	tokenBudget    int
	maxPerDocument int
}

// AssemblerOption configures the assembler.
type AssemblerOption func(*ContextAssembler)

// WithTokenBudget sets the default context budget in tokens.
func WithTokenBudget(n int) AssemblerOption {
	return func(a *ContextAssembler) {
		if n > 0 {
			a.tokenBudget = n
		}
	}
}

// WithMaxPerDocument caps chunks taken from one source document.
func WithMaxPerDocument(n int) AssemblerOption {
	return func(a *ContextAssembler) {
		if n > 0 {
			a.maxPerDocument = n
		}
	}
}

// NewContextAssembler creates the assembler.
func NewContextAssembler(docStore driven.DocumentStore, opts ...AssemblerOption) *ContextAssembler {
	a := &ContextAssembler{
		docStore:       docStore,
		tokenBudget:    DefaultContextTokenBudget,
		maxPerDocument: DefaultMaxPerDocument,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Assemble selects and orders context blocks for the results within
// the token budget. A non-positive budget means the configured default.
// Blocks are numbered 1…n; those numbers are the citation-marker space
// handed to the generator.
func (a *ContextAssembler) Assemble(ctx context.Context, results []domain.RetrievalResult, tokenBudget int) ([]domain.ContextBlock, error) {
	if tokenBudget <= 0 {
		tokenBudget = a.tokenBudget
	}

	ranked := make([]domain.RetrievalResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	var blocks []domain.ContextBlock
	remaining := tokenBudget
	perDoc := make(map[string]int)

	for _, res := range ranked {
		if remaining <= 0 {
			break
		}
		if perDoc[res.DocumentID] >= a.maxPerDocument {
			continue
		}

		chunk, err := a.docStore.GetChunk(ctx, res.ChunkID)
		if err != nil {
			logger.Warn("Context hydration for chunk %s failed: %v", res.ChunkID, err)
			continue
		}
		if chunk.TokenCount > remaining {
			continue
		}

		blocks = append(blocks, domain.ContextBlock{
			Ref:        len(blocks) + 1,
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Text:       chunk.Text,
			Score:      res.Score,
			TokenCount: chunk.TokenCount,
		})
		remaining -= chunk.TokenCount
		perDoc[res.DocumentID]++
	}

	logger.Debug("Assembled %d context blocks (%d tokens of %d budget)",
		len(blocks), tokenBudget-remaining, tokenBudget)
	return blocks, nil
}
