package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memstore "github.com/rescout-labs/rescout/internal/adapters/driven/storage/memory"
	vecmem "github.com/rescout-labs/rescout/internal/adapters/driven/vectorindex/memory"
	"github.com/rescout-labs/rescout/internal/chunker"
	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driven"
	"github.com/rescout-labs/rescout/internal/extractors"
)

const waitTimeout = 5 * time.Second

type ingestFixture struct {
	coordinator *IngestCoordinator
	docStore    *memstore.DocumentStore
	blobStore   *memstore.BlobStore
	index       *vecmem.Index
	embedSvc    *stubEmbedder
	candidates  *memstore.CandidateStore
}

func newIngestFixture(t *testing.T, opts ...IngestOption) *ingestFixture {
	t.Helper()

	f := &ingestFixture{
		docStore:   memstore.NewDocumentStore(),
		blobStore:  memstore.NewBlobStore(),
		index:      vecmem.New(),
		embedSvc:   newStubEmbedder(),
		candidates: memstore.NewCandidateStore(),
	}

	client := NewEmbeddingClient(f.embedSvc, WithMaxBatchSize(2))
	client.sleep = func(context.Context, time.Duration) error { return nil }

	all := append([]IngestOption{
		WithAllowedExtensions([]string{".txt"}),
		WithCandidateStore(f.candidates),
	}, opts...)

	f.coordinator = NewIngestCoordinator(
		f.docStore,
		f.blobStore,
		extractors.NewRegistry(&stubExtractor{}),
		chunker.New(chunker.WithWindowTokens(8), chunker.WithOverlapTokens(2)),
		client,
		f.index,
		all...,
	)
	t.Cleanup(func() { _ = f.coordinator.Close() })
	return f
}

func (f *ingestFixture) submitAndWait(t *testing.T, req domain.UploadRequest) (string, domain.DocumentStatus, string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	id, _, err := f.coordinator.Submit(ctx, req)
	require.NoError(t, err)

	info, err := f.coordinator.Wait(ctx, id)
	require.NoError(t, err)
	return id, info.Status, info.ErrorDetail
}

func resumeUpload(namespace, filename, text string) domain.UploadRequest {
	return domain.UploadRequest{
		Namespace: namespace,
		Filename:  filename,
		Data:      []byte(text),
	}
}

const sampleResume = "Jane Doe. Senior backend engineer with Go and Kubernetes. " +
	"Built microservices at Acme from 2016 - 2022. Led a platform team of five."

func TestSubmitRejectsInvalidRequests(t *testing.T) {
	f := newIngestFixture(t, WithMaxUploadBytes(64))
	ctx := context.Background()

	tests := []struct {
		name string
		req  domain.UploadRequest
		want error
	}{
		{"missing namespace", resumeUpload("", "a.txt", "text"), domain.ErrInvalidInput},
		{"missing filename", resumeUpload("acme", "", "text"), domain.ErrInvalidInput},
		{"empty data", resumeUpload("acme", "a.txt", ""), domain.ErrInvalidInput},
		{"oversized", resumeUpload("acme", "a.txt", strings.Repeat("x", 65)), domain.ErrPayloadTooLarge},
		{"unsupported extension", resumeUpload("acme", "a.exe", "text"), domain.ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.coordinator.Submit(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPipelineIndexesDocument(t *testing.T) {
	f := newIngestFixture(t)

	id, status, _ := f.submitAndWait(t, resumeUpload("acme", "jane.txt", sampleResume))
	require.Equal(t, domain.StatusIndexed, status)

	ctx := context.Background()

	doc, err := f.docStore.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sampleResume, doc.ExtractedText)

	chunks, err := f.docStore.GetChunks(ctx, id)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.Equal(t, domain.ChunkID(id, i), chunk.ID)
		assert.Equal(t, "acme", chunk.Namespace)
	}

	count, err := f.index.Count(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, len(chunks), count)
}

func TestSubmitIsIdempotentPerNamespace(t *testing.T) {
	f := newIngestFixture(t)

	first, status, _ := f.submitAndWait(t, resumeUpload("acme", "jane.txt", sampleResume))
	require.Equal(t, domain.StatusIndexed, status)

	ctx := context.Background()
	countBefore, err := f.index.Count(ctx, "acme")
	require.NoError(t, err)

	// Same bytes, different filename: still the same document.
	again, _, err := f.coordinator.Submit(ctx, resumeUpload("acme", "jane-copy.txt", sampleResume))
	require.NoError(t, err)
	assert.Equal(t, first, again)

	countAfter, err := f.index.Count(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, countBefore, countAfter, "duplicate submission must not re-index")

	// The same bytes in another namespace are a distinct document.
	other, otherStatus, _ := f.submitAndWait(t, resumeUpload("globex", "jane.txt", sampleResume))
	assert.NotEqual(t, first, other)
	assert.Equal(t, domain.StatusIndexed, otherStatus)
}

func TestConcurrentDuplicateSubmissionsResolveToOneDocument(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	const n = 8
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, _, err := f.coordinator.Submit(ctx, resumeUpload("acme", "jane.txt", sampleResume))
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Equal(t, ids[0], ids[i], "all concurrent duplicates must share one document ID")
	}
}

func TestWhitespaceOnlyDocumentFails(t *testing.T) {
	f := newIngestFixture(t)

	_, status, detail := f.submitAndWait(t, resumeUpload("acme", "blank.txt", "   \n\t  "))
	assert.Equal(t, domain.StatusFailed, status)
	assert.Contains(t, detail, domain.ErrEmptyContent.Error())
}

func TestExtractionFailureFailsDocument(t *testing.T) {
	f := &ingestFixture{
		docStore:  memstore.NewDocumentStore(),
		blobStore: memstore.NewBlobStore(),
		index:     vecmem.New(),
		embedSvc:  newStubEmbedder(),
	}
	client := NewEmbeddingClient(f.embedSvc)
	broken := &stubExtractor{extractFn: func([]byte) (string, error) {
		return "", errors.New("corrupt file")
	}}
	f.coordinator = NewIngestCoordinator(
		f.docStore, f.blobStore, extractors.NewRegistry(broken),
		chunker.New(), client, f.index,
	)
	t.Cleanup(func() { _ = f.coordinator.Close() })

	_, status, detail := f.submitAndWait(t, resumeUpload("acme", "bad.txt", "garbled"))
	assert.Equal(t, domain.StatusFailed, status)
	assert.Contains(t, detail, "corrupt file")
}

func TestPartialEmbeddingFailureFailsDocumentWithoutIndexing(t *testing.T) {
	f := newIngestFixture(t)

	// Batch size 2 over a multi-chunk document: fail only batches that
	// carry the first chunk's text.
	var mu sync.Mutex
	f.embedSvc.embedFn = func(_ context.Context, texts []string, _ driven.EmbedPurpose) ([][]float32, error) {
		mu.Lock()
		defer mu.Unlock()
		for _, text := range texts {
			if strings.Contains(text, "Jane") {
				return nil, errors.New("provider rejected batch")
			}
		}
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = textVector(texts[i], 4)
		}
		return vectors, nil
	}

	_, status, detail := f.submitAndWait(t, resumeUpload("acme", "jane.txt", sampleResume))
	require.Equal(t, domain.StatusFailed, status)
	assert.Contains(t, detail, domain.ErrEmbeddingFailed.Error())

	// A partially embedded document is never queryable.
	count, err := f.index.Count(context.Background(), "acme")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteCascades(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	id, status, _ := f.submitAndWait(t, resumeUpload("acme", "jane.txt", sampleResume))
	require.Equal(t, domain.StatusIndexed, status)

	// A derived profile is removed along with the document.
	require.NoError(t, f.candidates.SaveCandidate(ctx, &domain.CandidateProfile{
		ID: id, Namespace: "acme", Name: "Jane Doe", CreatedAt: time.Now(),
	}))

	require.NoError(t, f.coordinator.Delete(ctx, id))

	_, err := f.docStore.GetDocument(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	count, err := f.index.Count(ctx, "acme")
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = f.candidates.GetCandidate(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Re-submitting the same bytes now starts a fresh document.
	again, againStatus, _ := f.submitAndWait(t, resumeUpload("acme", "jane.txt", sampleResume))
	assert.NotEqual(t, id, again)
	assert.Equal(t, domain.StatusIndexed, againStatus)
}

func TestWatchObservesLifecycle(t *testing.T) {
	f := newIngestFixture(t)

	events, cancel := f.coordinator.Watch()
	defer cancel()

	id, status, _ := f.submitAndWait(t, resumeUpload("acme", "jane.txt", sampleResume))
	require.Equal(t, domain.StatusIndexed, status)

	var seen []domain.DocumentStatus
	deadline := time.After(waitTimeout)
	for {
		select {
		case ev := <-events:
			if ev.DocumentID != id {
				continue
			}
			seen = append(seen, ev.To)
			if ev.To.IsTerminal() {
				assert.Equal(t, []domain.DocumentStatus{
					domain.StatusExtracting,
					domain.StatusExtracted,
					domain.StatusEmbedding,
					domain.StatusIndexed,
				}, seen)
				return
			}
		case <-deadline:
			t.Fatalf("lifecycle incomplete, saw %v", seen)
		}
	}
}

func TestGetStatusFallsBackToStore(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	// A document from a previous process exists only in the store.
	doc := &domain.Document{
		ID:        "restarted-doc",
		Namespace: "acme",
		Filename:  "old.txt",
		Status:    domain.StatusIndexed,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, f.docStore.SaveDocument(ctx, doc))

	info, err := f.coordinator.GetStatus(ctx, "restarted-doc")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIndexed, info.Status)

	_, err = f.coordinator.GetStatus(ctx, "never-seen")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetStatusCarriesCandidateID(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	id, status, _ := f.submitAndWait(t, resumeUpload("acme", "jane.txt", sampleResume))
	require.Equal(t, domain.StatusIndexed, status)

	require.NoError(t, f.candidates.SaveCandidate(ctx, &domain.CandidateProfile{
		ID: id, Namespace: "acme", Name: "Jane Doe", CreatedAt: time.Now(),
	}))

	info, err := f.coordinator.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, info.CandidateID)
}

func TestNamespacesDoNotShareIndexEntries(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	_, status, _ := f.submitAndWait(t, resumeUpload("acme", "jane.txt", sampleResume))
	require.Equal(t, domain.StatusIndexed, status)

	count, err := f.index.Count(ctx, "globex")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWaitReturnsImmediatelyForTerminalDocument(t *testing.T) {
	f := newIngestFixture(t)

	id, status, _ := f.submitAndWait(t, resumeUpload("acme", "jane.txt", sampleResume))
	require.Equal(t, domain.StatusIndexed, status)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	info, err := f.coordinator.Wait(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIndexed, info.Status)
}

func TestSubmitFailedFingerprintAllowsRetry(t *testing.T) {
	f := newIngestFixture(t)

	// First attempt fails during embedding.
	f.embedSvc.embedFn = func(context.Context, []string, driven.EmbedPurpose) ([][]float32, error) {
		return nil, errors.New("provider down")
	}
	first, status, _ := f.submitAndWait(t, resumeUpload("acme", "jane.txt", sampleResume))
	require.Equal(t, domain.StatusFailed, status)

	// Same bytes again after the provider recovers: a new document.
	f.embedSvc.embedFn = nil
	second, status2, _ := f.submitAndWait(t, resumeUpload("acme", "jane.txt", sampleResume))
	assert.NotEqual(t, first, second)
	assert.Equal(t, domain.StatusIndexed, status2)
}
