package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memstore "github.com/rescout-labs/rescout/internal/adapters/driven/storage/memory"
	"github.com/rescout-labs/rescout/internal/core/domain"
)

func saveChunkWithTokens(t *testing.T, store *memstore.DocumentStore, documentID string, seq, tokens int) domain.Chunk {
	t.Helper()
	text := strings.TrimSpace(strings.Repeat("word ", tokens))
	chunk := domain.Chunk{
		ID:         domain.ChunkID(documentID, seq),
		DocumentID: documentID,
		Namespace:  "acme",
		Seq:        seq,
		Text:       text,
		TokenCount: tokens,
	}
	require.NoError(t, store.SaveChunks(context.Background(), []domain.Chunk{chunk}))
	return chunk
}

func hit(chunk domain.Chunk, score float64) domain.RetrievalResult {
	return domain.RetrievalResult{
		ChunkID:    chunk.ID,
		DocumentID: chunk.DocumentID,
		Namespace:  chunk.Namespace,
		Score:      score,
	}
}

func TestAssembleOrdersByScoreAndNumbersRefs(t *testing.T) {
	store := memstore.NewDocumentStore()
	a := NewContextAssembler(store)

	c1 := saveChunkWithTokens(t, store, "doc-a", 0, 10)
	c2 := saveChunkWithTokens(t, store, "doc-b", 0, 10)
	c3 := saveChunkWithTokens(t, store, "doc-c", 0, 10)

	blocks, err := a.Assemble(context.Background(),
		[]domain.RetrievalResult{hit(c1, 0.4), hit(c2, 0.9), hit(c3, 0.7)}, 0)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	assert.Equal(t, c2.ID, blocks[0].ChunkID)
	assert.Equal(t, c3.ID, blocks[1].ChunkID)
	assert.Equal(t, c1.ID, blocks[2].ChunkID)
	for i, block := range blocks {
		assert.Equal(t, i+1, block.Ref, "refs are dense and 1-based")
	}
}

func TestAssembleSkipsOverflowingChunkAndContinues(t *testing.T) {
	store := memstore.NewDocumentStore()
	a := NewContextAssembler(store)

	big := saveChunkWithTokens(t, store, "doc-big", 0, 80)
	small := saveChunkWithTokens(t, store, "doc-small", 0, 20)

	// The highest-scored chunk does not fit the budget; the smaller one
	// further down the ranking still does.
	blocks, err := a.Assemble(context.Background(),
		[]domain.RetrievalResult{hit(big, 0.9), hit(small, 0.5)}, 50)
	require.NoError(t, err)

	require.Len(t, blocks, 1)
	assert.Equal(t, small.ID, blocks[0].ChunkID)
	assert.Equal(t, 1, blocks[0].Ref)
}

func TestAssembleCapsChunksPerDocument(t *testing.T) {
	store := memstore.NewDocumentStore()
	a := NewContextAssembler(store, WithMaxPerDocument(2))

	results := make([]domain.RetrievalResult, 0, 5)
	for seq := 0; seq < 4; seq++ {
		chunk := saveChunkWithTokens(t, store, "doc-verbose", seq, 5)
		results = append(results, hit(chunk, 0.9-float64(seq)*0.01))
	}
	other := saveChunkWithTokens(t, store, "doc-other", 0, 5)
	results = append(results, hit(other, 0.3))

	blocks, err := a.Assemble(context.Background(), results, 1000)
	require.NoError(t, err)

	perDoc := map[string]int{}
	for _, block := range blocks {
		perDoc[block.DocumentID]++
	}
	assert.Equal(t, 2, perDoc["doc-verbose"], "one verbose resume must not crowd out the rest")
	assert.Equal(t, 1, perDoc["doc-other"])
}

func TestAssembleSkipsUnhydratableChunks(t *testing.T) {
	store := memstore.NewDocumentStore()
	a := NewContextAssembler(store)

	present := saveChunkWithTokens(t, store, "doc-a", 0, 5)
	missing := domain.RetrievalResult{ChunkID: "ghost-0", DocumentID: "ghost", Score: 0.95}

	blocks, err := a.Assemble(context.Background(),
		[]domain.RetrievalResult{missing, hit(present, 0.5)}, 0)
	require.NoError(t, err)

	require.Len(t, blocks, 1)
	assert.Equal(t, present.ID, blocks[0].ChunkID)
}

func TestAssembleEmptyResults(t *testing.T) {
	a := NewContextAssembler(memstore.NewDocumentStore())

	blocks, err := a.Assemble(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, blocks)
}
