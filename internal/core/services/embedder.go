package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driven"
	"github.com/rescout-labs/rescout/internal/logger"
)

// Default embedding client configuration.
const (
	DefaultMaxBatchSize     = 64
	DefaultBatchConcurrency = 4
	DefaultMaxAttempts      = 4
	defaultBaseDelay        = 500 * time.Millisecond
	defaultMaxDelay         = 8 * time.Second
)

// EmbedResult is the per-item outcome of a batched embedding call.
// Partial success is a first-class outcome: some items carry vectors,
// others carry the error that exhausted their batch's retries.
type EmbedResult struct {
	// Vector is the embedding, nil when Err is set.
	Vector []float32

	// Err is the terminal failure for this item, nil on success.
	Err error
}

// EmbeddingClient layers batching, bounded retry, and client-side rate
// limiting over the provider-facing EmbeddingService port. One provider
// call embeds one batch; batches retry independently, so a permanently
// failing batch marks only its own items failed.
type EmbeddingClient struct {
	service driven.EmbeddingService

	maxBatchSize     int
	batchConcurrency int
	maxAttempts      int
	baseDelay        time.Duration
	maxDelay         time.Duration
	limiter          *rate.Limiter

	// sleep is replaced in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// EmbeddingClientOption configures the client.
type EmbeddingClientOption func(*EmbeddingClient)

// WithMaxBatchSize caps texts per provider call.
func WithMaxBatchSize(n int) EmbeddingClientOption {
	return func(c *EmbeddingClient) {
		if n > 0 {
			c.maxBatchSize = n
		}
	}
}

// WithBatchConcurrency bounds parallel provider calls.
func WithBatchConcurrency(n int) EmbeddingClientOption {
	return func(c *EmbeddingClient) {
		if n > 0 {
			c.batchConcurrency = n
		}
	}
}

// WithMaxAttempts bounds attempts per batch, including the first.
func WithMaxAttempts(n int) EmbeddingClientOption {
	return func(c *EmbeddingClient) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithRateLimit smooths provider request bursts to rps requests per
// second. Zero or negative disables client-side limiting.
func WithRateLimit(rps float64) EmbeddingClientOption {
	return func(c *EmbeddingClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithBackoff sets the retry delay bounds.
func WithBackoff(base, max time.Duration) EmbeddingClientOption {
	return func(c *EmbeddingClient) {
		if base > 0 {
			c.baseDelay = base
		}
		if max > 0 {
			c.maxDelay = max
		}
	}
}

// NewEmbeddingClient creates a client over the provider service.
func NewEmbeddingClient(service driven.EmbeddingService, opts ...EmbeddingClientOption) *EmbeddingClient {
	c := &EmbeddingClient{
		service:          service,
		maxBatchSize:     DefaultMaxBatchSize,
		batchConcurrency: DefaultBatchConcurrency,
		maxAttempts:      DefaultMaxAttempts,
		baseDelay:        defaultBaseDelay,
		maxDelay:         defaultMaxDelay,
		sleep:            sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Embed computes one vector per input text, in input order. The only
// call-level errors are a nil provider and context cancellation;
// everything else is reported per item so callers can act on partial
// success.
func (c *EmbeddingClient) Embed(ctx context.Context, texts []string, purpose driven.EmbedPurpose) ([]EmbedResult, error) {
	if c.service == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([]EmbedResult, len(texts))

	type batch struct {
		start int
		texts []string
	}
	batches := make(chan batch)

	var wg sync.WaitGroup
	workers := c.batchConcurrency
	if n := (len(texts) + c.maxBatchSize - 1) / c.maxBatchSize; n < workers {
		workers = n
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range batches {
				c.embedBatch(ctx, b.texts, purpose, results[b.start:b.start+len(b.texts)])
			}
		}()
	}

	for start := 0; start < len(texts); start += c.maxBatchSize {
		end := start + c.maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batches <- batch{start: start, texts: texts[start:end]}
	}
	close(batches)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// EmbedQuery embeds a single query text. Query vectors are never
// persisted; this is the path the retrieval planner uses.
func (c *EmbeddingClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	results, err := c.Embed(ctx, []string{text}, driven.PurposeQuery)
	if err != nil {
		return nil, err
	}
	if results[0].Err != nil {
		return nil, results[0].Err
	}
	return results[0].Vector, nil
}

// ModelName returns the provider/model tag stored on embeddings.
func (c *EmbeddingClient) ModelName() string {
	if c.service == nil {
		return ""
	}
	return c.service.ModelName()
}

// embedBatch retries one batch with bounded exponential backoff and
// writes the outcome into the results window for its items.
func (c *EmbeddingClient) embedBatch(ctx context.Context, texts []string, purpose driven.EmbedPurpose, out []EmbedResult) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				failBatch(out, err)
				return
			}
		}

		vectors, err := c.service.Embed(ctx, texts, purpose)
		if err == nil {
			if len(vectors) != len(texts) {
				failBatch(out, fmt.Errorf("%w: provider returned %d vectors for %d texts",
					domain.ErrEmbeddingFailed, len(vectors), len(texts)))
				return
			}
			for i := range out {
				out[i] = EmbedResult{Vector: vectors[i]}
			}
			return
		}

		lastErr = err
		if !isTransient(err) || attempt == c.maxAttempts {
			break
		}

		delay := c.baseDelay << (attempt - 1)
		if delay > c.maxDelay {
			delay = c.maxDelay
		}
		logger.Warn("Embedding batch attempt %d/%d failed, retrying in %s: %v",
			attempt, c.maxAttempts, delay, err)
		if err := c.sleep(ctx, delay); err != nil {
			failBatch(out, err)
			return
		}
	}

	failBatch(out, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, lastErr))
}

// isTransient reports whether a provider error is worth retrying.
// Providers wrap rate limits and 5xx responses in ErrRateLimited;
// timeouts surface as deadline errors.
func isTransient(err error) bool {
	return errors.Is(err, domain.ErrRateLimited) || errors.Is(err, context.DeadlineExceeded)
}

func failBatch(out []EmbedResult, err error) {
	for i := range out {
		out[i] = EmbedResult{Err: err}
	}
}

// sleepContext waits for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
