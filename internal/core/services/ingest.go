package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driven"
	"github.com/rescout-labs/rescout/internal/core/ports/driving"
	"github.com/rescout-labs/rescout/internal/logger"
)

// Ensure IngestCoordinator implements the interface.
var _ driving.IngestService = (*IngestCoordinator)(nil)

// Default ingestion configuration.
const (
	DefaultWorkers        = 4
	DefaultMaxUploadBytes = 10 << 20

	// watchBuffer is the per-subscriber event buffer. A subscriber that
	// falls this far behind starts losing events.
	watchBuffer = 128
)

// IngestCoordinator drives uploaded documents through
// extraction → chunking → embedding → indexing, one state machine per
// document. It owns the Document record until a terminal status and is
// the only writer of status transitions.
type IngestCoordinator struct {
	docStore       driven.DocumentStore
	blobStore      driven.BlobStore
	extractors     driven.ExtractorRegistry
	chunker        driven.Chunker
	embedder       *EmbeddingClient
	vectorIndex    driven.VectorIndex
	candidateStore driven.CandidateStore

	workers        int
	maxUploadBytes int64
	allowedExts    map[string]bool

	// Last-known status per document, so GetStatus never recomputes.
	statusMu sync.RWMutex
	statuses map[string]statusEntry

	// Per-namespace admission semaphores. Namespaces never contend.
	semMu sync.Mutex
	sems  map[string]chan struct{}

	// In-flight fingerprints, so two racing submissions of the same
	// bytes resolve to one document before either reaches the store.
	fpMu       sync.Mutex
	inflightFP map[string]string

	// Status event fanout.
	subMu   sync.Mutex
	subs    map[int]chan domain.StatusEvent
	nextSub int

	// Pipeline lifecycle: ctx cancels in-flight work, wg drains it.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type statusEntry struct {
	status    domain.DocumentStatus
	errDetail string
}

// IngestOption configures the coordinator.
type IngestOption func(*IngestCoordinator)

// WithWorkers bounds concurrent documents in flight per namespace.
func WithWorkers(n int) IngestOption {
	return func(c *IngestCoordinator) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithMaxUploadBytes caps the raw upload size.
func WithMaxUploadBytes(n int64) IngestOption {
	return func(c *IngestCoordinator) {
		if n > 0 {
			c.maxUploadBytes = n
		}
	}
}

// WithAllowedExtensions restricts accepted filename extensions
// (lower-case, with dot). Empty means any extension the extractor
// registry supports.
func WithAllowedExtensions(exts []string) IngestOption {
	return func(c *IngestCoordinator) {
		if len(exts) == 0 {
			c.allowedExts = nil
			return
		}
		c.allowedExts = make(map[string]bool, len(exts))
		for _, ext := range exts {
			c.allowedExts[strings.ToLower(ext)] = true
		}
	}
}

// WithCandidateStore enables candidate ID lookups on status reads.
// Optional; without it status responses omit candidate IDs.
func WithCandidateStore(store driven.CandidateStore) IngestOption {
	return func(c *IngestCoordinator) {
		c.candidateStore = store
	}
}

// NewIngestCoordinator creates the coordinator. All non-option
// dependencies are required.
func NewIngestCoordinator(
	docStore driven.DocumentStore,
	blobStore driven.BlobStore,
	extractors driven.ExtractorRegistry,
	chunker driven.Chunker,
	embedder *EmbeddingClient,
	vectorIndex driven.VectorIndex,
	opts ...IngestOption,
) *IngestCoordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &IngestCoordinator{
		docStore:       docStore,
		blobStore:      blobStore,
		extractors:     extractors,
		chunker:        chunker,
		embedder:       embedder,
		vectorIndex:    vectorIndex,
		workers:        DefaultWorkers,
		maxUploadBytes: DefaultMaxUploadBytes,
		statuses:       make(map[string]statusEntry),
		sems:           make(map[string]chan struct{}),
		inflightFP:     make(map[string]string),
		subs:           make(map[int]chan domain.StatusEvent),
		ctx:            ctx,
		cancel:         cancel,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Submit validates and accepts one upload. Processing is asynchronous:
// the document is persisted as Uploaded and a pipeline goroutine is
// enqueued before Submit returns. Resubmitting bytes already present in
// the namespace (same fingerprint, non-failed) returns the existing
// document ID without re-ingesting.
func (c *IngestCoordinator) Submit(ctx context.Context, req domain.UploadRequest) (string, domain.DocumentStatus, error) {
	if req.Namespace == "" {
		return "", "", fmt.Errorf("%w: namespace is required", domain.ErrInvalidInput)
	}
	if req.Filename == "" {
		return "", "", fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	if len(req.Data) == 0 {
		return "", "", fmt.Errorf("%w: empty upload", domain.ErrInvalidInput)
	}
	if int64(len(req.Data)) > c.maxUploadBytes {
		return "", "", fmt.Errorf("%w: %d bytes exceeds limit of %d",
			domain.ErrPayloadTooLarge, len(req.Data), c.maxUploadBytes)
	}

	ext := strings.ToLower(filepath.Ext(req.Filename))
	if c.allowedExts != nil && !c.allowedExts[ext] {
		return "", "", fmt.Errorf("%w: %q", domain.ErrInvalidFormat, ext)
	}
	if _, err := c.extractors.ExtractorFor(req.Filename); err != nil {
		return "", "", err
	}

	sum := sha256.Sum256(req.Data)
	fingerprint := hex.EncodeToString(sum[:])
	fpKey := req.Namespace + "\x00" + fingerprint

	// Idempotency: a retried client request must not index twice. The
	// in-flight map covers the window before the record hits the store.
	c.fpMu.Lock()
	if id, ok := c.inflightFP[fpKey]; ok {
		c.fpMu.Unlock()
		return c.snapshotOrUploaded(id)
	}

	existing, err := c.docStore.FindByFingerprint(ctx, req.Namespace, fingerprint)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		c.fpMu.Unlock()
		return "", "", fmt.Errorf("fingerprint lookup: %w", err)
	}
	if existing != nil && existing.Status != domain.StatusFailed {
		c.fpMu.Unlock()
		logger.Debug("Duplicate submission of %s in %s, returning %s",
			req.Filename, req.Namespace, existing.ID)
		return existing.ID, existing.Status, nil
	}

	documentID := uuid.NewString()
	c.inflightFP[fpKey] = documentID
	c.fpMu.Unlock()
	defer func() {
		c.fpMu.Lock()
		delete(c.inflightFP, fpKey)
		c.fpMu.Unlock()
	}()

	now := time.Now()
	doc := &domain.Document{
		ID:          documentID,
		Namespace:   req.Namespace,
		RecruiterID: req.RecruiterID,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		SizeBytes:   int64(len(req.Data)),
		Fingerprint: fingerprint,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	doc.BlobKey = fmt.Sprintf("%s/%s%s", req.Namespace, doc.ID, ext)

	if err := c.blobStore.Put(ctx, doc.BlobKey, req.Data); err != nil {
		return "", "", fmt.Errorf("store blob: %w", err)
	}
	if err := c.docStore.SaveDocument(ctx, doc); err != nil {
		return "", "", fmt.Errorf("save document: %w", err)
	}

	c.setSnapshot(doc.ID, domain.StatusUploaded, "")

	c.wg.Add(1)
	go c.run(doc)

	logger.Info("Accepted document %s (%s, %d bytes) into namespace %s",
		doc.ID, doc.Filename, doc.SizeBytes, doc.Namespace)
	return doc.ID, domain.StatusUploaded, nil
}

// snapshotOrUploaded resolves a duplicate submission that raced an
// in-flight one: the snapshot has the current state, and a document
// reserved but not yet snapshotted is by definition still Uploaded.
func (c *IngestCoordinator) snapshotOrUploaded(documentID string) (string, domain.DocumentStatus, error) {
	c.statusMu.RLock()
	entry, ok := c.statuses[documentID]
	c.statusMu.RUnlock()
	if !ok {
		return documentID, domain.StatusUploaded, nil
	}
	return documentID, entry.status, nil
}

// GetStatus returns the last known pipeline state. Reads come from the
// in-memory snapshot; documents from a previous process fall back to
// the store.
func (c *IngestCoordinator) GetStatus(ctx context.Context, documentID string) (*driving.DocumentStatusInfo, error) {
	info := &driving.DocumentStatusInfo{DocumentID: documentID}

	c.statusMu.RLock()
	entry, ok := c.statuses[documentID]
	c.statusMu.RUnlock()

	if ok {
		info.Status = entry.status
		info.ErrorDetail = entry.errDetail
	} else {
		doc, err := c.docStore.GetDocument(ctx, documentID)
		if err != nil {
			return nil, err
		}
		info.Status = doc.Status
		info.ErrorDetail = doc.ErrorDetail
		c.setSnapshot(documentID, doc.Status, doc.ErrorDetail)
	}

	if info.Status == domain.StatusIndexed && c.candidateStore != nil {
		profile, err := c.candidateStore.GetCandidate(ctx, documentID)
		if err == nil {
			info.CandidateID = profile.ID
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("candidate lookup: %w", err)
		}
	}

	return info, nil
}

// Delete removes a document and everything derived from it.
func (c *IngestCoordinator) Delete(ctx context.Context, documentID string) error {
	doc, err := c.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	if err := c.vectorIndex.DeleteDocument(ctx, doc.Namespace, documentID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if c.candidateStore != nil {
		if err := c.candidateStore.DeleteCandidate(ctx, documentID); err != nil {
			return fmt.Errorf("delete candidate: %w", err)
		}
	}
	if err := c.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if err := c.blobStore.Delete(ctx, doc.BlobKey); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}

	c.statusMu.Lock()
	delete(c.statuses, documentID)
	c.statusMu.Unlock()

	logger.Info("Deleted document %s from namespace %s", documentID, doc.Namespace)
	return nil
}

// Watch subscribes to status transitions. The cancel function releases
// the subscription; events are dropped for subscribers that stop
// draining their buffer.
func (c *IngestCoordinator) Watch() (<-chan domain.StatusEvent, func()) {
	ch := make(chan domain.StatusEvent, watchBuffer)

	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subMu.Unlock()

	cancel := func() {
		c.subMu.Lock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
		c.subMu.Unlock()
	}
	return ch, cancel
}

// Wait blocks until the document reaches a terminal status or the
// context is cancelled.
func (c *IngestCoordinator) Wait(ctx context.Context, documentID string) (*driving.DocumentStatusInfo, error) {
	// Subscribe before the snapshot read so no transition is missed.
	events, cancel := c.Watch()
	defer cancel()

	info, err := c.GetStatus(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if info.Status.IsTerminal() {
		return info, nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil, fmt.Errorf("status watch closed")
			}
			if ev.DocumentID == documentID && ev.To.IsTerminal() {
				return c.GetStatus(ctx, documentID)
			}
		}
	}
}

// Close stops accepting pipeline work and waits for in-flight
// documents to finish their current stage.
func (c *IngestCoordinator) Close() error {
	c.cancel()
	c.wg.Wait()
	return nil
}

// run executes the pipeline for one document under the namespace's
// admission semaphore. Stage failures are recorded on the document and
// never crash sibling pipelines.
func (c *IngestCoordinator) run(doc *domain.Document) {
	defer c.wg.Done()

	sem := c.namespaceSem(doc.Namespace)
	select {
	case sem <- struct{}{}:
		defer func() { <-sem }()
	case <-c.ctx.Done():
		return
	}

	if err := c.process(c.ctx, doc); err != nil {
		logger.Warn("Pipeline for document %s stopped: %v", doc.ID, err)
	}
}

// process drives one document strictly sequentially through the stages.
func (c *IngestCoordinator) process(ctx context.Context, doc *domain.Document) error {
	if err := c.transition(ctx, doc, domain.StatusExtracting, ""); err != nil {
		return err
	}

	data, err := c.blobStore.Get(ctx, doc.BlobKey)
	if err != nil {
		return c.fail(ctx, doc, fmt.Sprintf("read blob: %v", err))
	}

	extractor, err := c.extractors.ExtractorFor(doc.Filename)
	if err != nil {
		return c.fail(ctx, doc, fmt.Sprintf("no extractor: %v", err))
	}

	text, err := extractor.Extract(ctx, data)
	if err != nil {
		return c.fail(ctx, doc, fmt.Sprintf("extraction: %v", err))
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return c.fail(ctx, doc, domain.ErrEmptyContent.Error())
	}

	if err := c.docStore.SetExtractedText(ctx, doc.ID, text); err != nil {
		return c.fail(ctx, doc, fmt.Sprintf("store text: %v", err))
	}
	doc.ExtractedText = text
	if err := c.transition(ctx, doc, domain.StatusExtracted, ""); err != nil {
		return err
	}

	chunks := c.chunker.Chunk(doc.ID, doc.Namespace, text)
	if len(chunks) == 0 {
		return c.fail(ctx, doc, domain.ErrEmptyContent.Error())
	}
	if err := c.docStore.SaveChunks(ctx, chunks); err != nil {
		return c.fail(ctx, doc, fmt.Sprintf("store chunks: %v", err))
	}

	if err := c.transition(ctx, doc, domain.StatusEmbedding, ""); err != nil {
		return err
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	results, err := c.embedder.Embed(ctx, texts, driven.PurposeDocument)
	if err != nil {
		return c.fail(ctx, doc, fmt.Sprintf("embedding: %v", err))
	}

	modelTag := c.embedder.ModelName()
	embeddings := make([]domain.Embedding, 0, len(chunks))
	entries := make([]domain.VectorEntry, 0, len(chunks))
	failed := 0
	for i, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		embeddings = append(embeddings, domain.Embedding{
			ChunkID:  chunks[i].ID,
			Vector:   res.Vector,
			ModelTag: modelTag,
		})
		entries = append(entries, domain.VectorEntry{
			ChunkID:    chunks[i].ID,
			DocumentID: doc.ID,
			Vector:     res.Vector,
			ModelTag:   modelTag,
		})
	}

	// Successful sibling embeddings are kept for inspection, but a
	// partially embedded document is never added to the index.
	if len(embeddings) > 0 {
		if err := c.docStore.SaveEmbeddings(ctx, embeddings); err != nil {
			return c.fail(ctx, doc, fmt.Sprintf("store embeddings: %v", err))
		}
	}
	if failed > 0 {
		return c.fail(ctx, doc, fmt.Sprintf("%s: %d of %d chunks",
			domain.ErrEmbeddingFailed, failed, len(chunks)))
	}

	if err := c.vectorIndex.Upsert(ctx, doc.Namespace, entries); err != nil {
		return c.fail(ctx, doc, fmt.Sprintf("index vectors: %v", err))
	}

	if err := c.transition(ctx, doc, domain.StatusIndexed, ""); err != nil {
		return err
	}

	logger.Info("Indexed document %s: %d chunks in namespace %s",
		doc.ID, len(chunks), doc.Namespace)
	return nil
}

// fail records a terminal failure on the document.
func (c *IngestCoordinator) fail(ctx context.Context, doc *domain.Document, reason string) error {
	logger.Warn("Document %s failed: %s", doc.ID, reason)
	return c.transition(ctx, doc, domain.StatusFailed, reason)
}

// transition moves the document to the next status, persists it,
// refreshes the snapshot, and publishes the event.
func (c *IngestCoordinator) transition(ctx context.Context, doc *domain.Document, to domain.DocumentStatus, reason string) error {
	from := doc.Status
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: document %s cannot move %s -> %s",
			domain.ErrInvalidInput, doc.ID, from, to)
	}

	if err := c.docStore.UpdateStatus(ctx, doc.ID, to, reason); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	doc.Status = to
	doc.ErrorDetail = reason

	c.setSnapshot(doc.ID, to, reason)
	c.publish(domain.StatusEvent{
		DocumentID: doc.ID,
		Namespace:  doc.Namespace,
		From:       from,
		To:         to,
		Reason:     reason,
		At:         time.Now(),
	})
	return nil
}

func (c *IngestCoordinator) setSnapshot(documentID string, status domain.DocumentStatus, errDetail string) {
	c.statusMu.Lock()
	c.statuses[documentID] = statusEntry{status: status, errDetail: errDetail}
	c.statusMu.Unlock()
}

func (c *IngestCoordinator) publish(event domain.StatusEvent) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, sub := range c.subs {
		select {
		case sub <- event:
		default:
			logger.Warn("Dropping status event for slow subscriber (document %s)", event.DocumentID)
		}
	}
}

func (c *IngestCoordinator) namespaceSem(namespace string) chan struct{} {
	c.semMu.Lock()
	defer c.semMu.Unlock()
	sem, ok := c.sems[namespace]
	if !ok {
		sem = make(chan struct{}, c.workers)
		c.sems[namespace] = sem
	}
	return sem
}
