// Package memory provides an in-process, namespace-partitioned vector
// index using brute-force cosine similarity.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// entry is one stored vector. Vectors are L2-normalized on insert so
// similarity reduces to a dot product.
type entry struct {
	chunkID    string
	documentID string
	vector     []float32
	seq        uint64
}

// Index stores vectors per namespace under a single RWMutex: queries
// share the read lock and never block each other, upserts take the
// write lock briefly.
type Index struct {
	mu         sync.RWMutex
	namespaces map[string][]entry
	nextSeq    uint64
}

// New creates an empty index.
func New() *Index {
	return &Index{namespaces: make(map[string][]entry)}
}

// Upsert inserts or replaces entries in the namespace. Replacements
// keep their original insertion sequence so tie-breaking stays stable
// across re-embedding.
func (i *Index) Upsert(_ context.Context, namespace string, entries []domain.VectorEntry) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	stored := i.namespaces[namespace]
	for _, e := range entries {
		normalized := normalize(e.Vector)

		replaced := false
		for idx := range stored {
			if stored[idx].chunkID == e.ChunkID {
				stored[idx].vector = normalized
				stored[idx].documentID = e.DocumentID
				replaced = true
				break
			}
		}
		if replaced {
			continue
		}

		stored = append(stored, entry{
			chunkID:    e.ChunkID,
			documentID: e.DocumentID,
			vector:     normalized,
			seq:        i.nextSeq,
		})
		i.nextSeq++
	}
	i.namespaces[namespace] = stored

	return nil
}

// Query finds the k nearest entries by cosine similarity. Equal scores
// are ordered by insertion sequence. An empty or unknown namespace
// returns an empty result.
func (i *Index) Query(_ context.Context, namespace string, vector []float32, k int) ([]domain.RetrievalResult, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	stored := i.namespaces[namespace]
	if len(stored) == 0 || k <= 0 {
		return nil, nil
	}

	query := normalize(vector)

	type scored struct {
		entry entry
		score float64
	}
	scores := make([]scored, len(stored))
	for idx, e := range stored {
		scores[idx] = scored{entry: e, score: dot(e.vector, query)}
	}

	sort.Slice(scores, func(a, b int) bool {
		if scores[a].score != scores[b].score {
			return scores[a].score > scores[b].score
		}
		return scores[a].entry.seq < scores[b].entry.seq
	})

	if k > len(scores) {
		k = len(scores)
	}

	results := make([]domain.RetrievalResult, 0, k)
	for _, s := range scores[:k] {
		results = append(results, domain.RetrievalResult{
			ChunkID:    s.entry.chunkID,
			DocumentID: s.entry.documentID,
			Namespace:  namespace,
			Score:      s.score,
		})
	}

	return results, nil
}

// Count returns the number of entries in the namespace.
func (i *Index) Count(_ context.Context, namespace string) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.namespaces[namespace]), nil
}

// DeleteDocument removes all entries belonging to a document.
func (i *Index) DeleteDocument(_ context.Context, namespace, documentID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	stored := i.namespaces[namespace]
	kept := stored[:0]
	for _, e := range stored {
		if e.documentID != documentID {
			kept = append(kept, e)
		}
	}

	if len(kept) == 0 {
		delete(i.namespaces, namespace)
		return nil
	}
	i.namespaces[namespace] = kept

	return nil
}

// Close releases resources.
func (i *Index) Close() error {
	return nil
}

// normalize returns the L2-normalized copy of v. Zero vectors are
// returned as a copy unchanged.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	out := make([]float32, len(v))
	norm := math.Sqrt(sum)
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// dot computes the dot product over the shorter length.
func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
