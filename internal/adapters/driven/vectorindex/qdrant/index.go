// Package qdrant implements the vector index on a Qdrant server via its
// gRPC client. Entries from every namespace live in a single collection
// and are separated by a payload filter.
package qdrant

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driven"
)

// Payload field names stored with every point.
const (
	fieldNamespace  = "namespace"
	fieldChunkID    = "chunk_id"
	fieldDocumentID = "document_id"
	fieldModelTag   = "model_tag"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a Qdrant-backed vector index.
type Index struct {
	client     *qdrant.Client
	collection string
	dimensions uint64
}

// Config holds the connection parameters for a Qdrant server.
type Config struct {
	// Host is the Qdrant gRPC host.
	Host string

	// Port is the Qdrant gRPC port.
	Port int

	// Collection is the collection name shared by all namespaces.
	Collection string

	// Dimensions is the embedding vector size.
	Dimensions int
}

// New connects to Qdrant and creates the collection if it does not
// exist yet.
func New(ctx context.Context, cfg Config) (*Index, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.Host,
		Port: cfg.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connect to qdrant: %v", domain.ErrVectorIndexUnavailable, err)
	}

	idx := &Index{
		client:     client,
		collection: cfg.Collection,
		dimensions: uint64(cfg.Dimensions),
	}

	if err := idx.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return idx, nil
}

func (i *Index) ensureCollection(ctx context.Context) error {
	exists, err := i.client.CollectionExists(ctx, i.collection)
	if err != nil {
		return fmt.Errorf("%w: check collection: %v", domain.ErrVectorIndexUnavailable, err)
	}
	if exists {
		return nil
	}

	err = i.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: i.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     i.dimensions,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: create collection %q: %v", domain.ErrVectorIndexUnavailable, i.collection, err)
	}

	return nil
}

// Upsert writes entries as points. The point ID is a UUID derived from
// the chunk ID, so re-embedding a chunk replaces its point.
func (i *Index) Upsert(ctx context.Context, namespace string, entries []domain.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(entries))
	for idx, e := range entries {
		points[idx] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(namespace, e.ChunkID)),
			Vectors: qdrant.NewVectors(normalize(e.Vector)...),
			Payload: map[string]*qdrant.Value{
				fieldNamespace:  qdrant.NewValueString(namespace),
				fieldChunkID:    qdrant.NewValueString(e.ChunkID),
				fieldDocumentID: qdrant.NewValueString(e.DocumentID),
				fieldModelTag:   qdrant.NewValueString(e.ModelTag),
			},
		}
	}

	wait := true
	_, err := i.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: i.collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("%w: upsert %d points: %v", domain.ErrVectorIndexUnavailable, len(points), err)
	}

	return nil
}

// Query runs a filtered similarity search in the namespace. Qdrant
// orders equal scores internally, so ties do not follow insertion
// order the way the in-process index does.
func (i *Index) Query(ctx context.Context, namespace string, vector []float32, k int) ([]domain.RetrievalResult, error) {
	if k <= 0 {
		return nil, nil
	}

	limit := uint64(k)
	hits, err := i.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: i.collection,
		Query:          qdrant.NewQuery(normalize(vector)...),
		Limit:          &limit,
		Filter:         namespaceFilter(namespace),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query namespace %q: %v", domain.ErrVectorIndexUnavailable, namespace, err)
	}

	results := make([]domain.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		r := domain.RetrievalResult{
			Namespace: namespace,
			Score:     float64(hit.Score),
		}
		if v, ok := hit.Payload[fieldChunkID]; ok {
			r.ChunkID = v.GetStringValue()
		}
		if v, ok := hit.Payload[fieldDocumentID]; ok {
			r.DocumentID = v.GetStringValue()
		}
		results = append(results, r)
	}

	return results, nil
}

// Count returns the exact number of points in the namespace.
func (i *Index) Count(ctx context.Context, namespace string) (int, error) {
	exact := true
	count, err := i.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: i.collection,
		Filter:         namespaceFilter(namespace),
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: count namespace %q: %v", domain.ErrVectorIndexUnavailable, namespace, err)
	}

	return int(count), nil
}

// DeleteDocument removes every point of the document in the namespace.
func (i *Index) DeleteDocument(ctx context.Context, namespace, documentID string) error {
	filter := namespaceFilter(namespace)
	filter.Must = append(filter.Must, qdrant.NewMatch(fieldDocumentID, documentID))

	wait := true
	_, err := i.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: i.collection,
		Points:         qdrant.NewPointsSelectorFilter(filter),
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("%w: delete document %q: %v", domain.ErrVectorIndexUnavailable, documentID, err)
	}

	return nil
}

// Close closes the underlying gRPC connection.
func (i *Index) Close() error {
	return i.client.Close()
}

func namespaceFilter(namespace string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch(fieldNamespace, namespace),
		},
	}
}

// pointID derives a stable UUID for a chunk. Qdrant point IDs must be
// UUIDs or integers, and chunk IDs are neither.
func pointID(namespace, chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(namespace+"/"+chunkID)).String()
}

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
