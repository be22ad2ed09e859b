package services

import (
	"context"
	"sync"

	"github.com/rescout-labs/rescout/internal/core/ports/driven"
)

// stubEmbedder is a deterministic in-process EmbeddingService. The
// default vector for a text is derived from its bytes, so identical
// texts always embed identically; tests that need failures or fixed
// vectors override embedFn.
type stubEmbedder struct {
	mu      sync.Mutex
	calls   int
	embedFn func(ctx context.Context, texts []string, purpose driven.EmbedPurpose) ([][]float32, error)
	dims    int
}

var _ driven.EmbeddingService = (*stubEmbedder)(nil)

func newStubEmbedder() *stubEmbedder {
	return &stubEmbedder{dims: 4}
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string, purpose driven.EmbedPurpose) ([][]float32, error) {
	s.mu.Lock()
	s.calls++
	fn := s.embedFn
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, texts, purpose)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = textVector(text, s.dims)
	}
	return vectors, nil
}

func (s *stubEmbedder) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubEmbedder) Dimensions() int            { return s.dims }
func (s *stubEmbedder) ModelName() string          { return "stub-embed" }
func (s *stubEmbedder) Ping(context.Context) error { return nil }
func (s *stubEmbedder) Close() error               { return nil }

// textVector maps text to a deterministic non-zero vector.
func textVector(text string, dims int) []float32 {
	v := make([]float32, dims)
	for i, b := range []byte(text) {
		v[i%dims] += float32(b)
	}
	v[0]++
	return v
}

// stubLLM is a scripted LLMService. Stream plays back deltas and an
// optional terminal error; Complete returns a canned string.
type stubLLM struct {
	mu          sync.Mutex
	deltas      []string
	streamErr   error
	completeOut string
	completeErr error

	// gate, when set, blocks each Stream call until released. Used to
	// hold a session busy.
	gate chan struct{}

	messages []driven.ChatMessage
}

var _ driven.LLMService = (*stubLLM)(nil)

func (s *stubLLM) Complete(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	s.mu.Lock()
	s.messages = messages
	out, err := s.completeOut, s.completeErr
	s.mu.Unlock()
	return out, err
}

func (s *stubLLM) Stream(ctx context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (<-chan driven.StreamChunk, error) {
	s.mu.Lock()
	s.messages = messages
	deltas, streamErr, gate := s.deltas, s.streamErr, s.gate
	s.mu.Unlock()

	out := make(chan driven.StreamChunk)
	go func() {
		defer close(out)
		if gate != nil {
			select {
			case <-gate:
			case <-ctx.Done():
				return
			}
		}
		for _, delta := range deltas {
			select {
			case out <- driven.StreamChunk{Delta: delta}:
			case <-ctx.Done():
				return
			}
		}
		if streamErr != nil {
			select {
			case out <- driven.StreamChunk{Err: streamErr}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func (s *stubLLM) lastMessages() []driven.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages
}

func (s *stubLLM) ModelName() string          { return "stub-llm" }
func (s *stubLLM) Ping(context.Context) error { return nil }
func (s *stubLLM) Close() error               { return nil }

// stubPrompts serves the two well-known templates without touching disk.
type stubPrompts struct{}

var _ driven.PromptStore = (*stubPrompts)(nil)

func (stubPrompts) Load(name string) (string, error) {
	switch name {
	case driven.PromptAnswerSystem:
		return "Answer from the context, citing blocks as [n].\n\nContext:\n%s", nil
	case driven.PromptProfileExtract:
		return "Extract a JSON candidate profile from this resume:\n%s", nil
	default:
		return "", nil
	}
}

func (stubPrompts) Reload() {}

// stubExtractor treats uploads as UTF-8 text files.
type stubExtractor struct {
	extractFn func(data []byte) (string, error)
}

var _ driven.Extractor = (*stubExtractor)(nil)

func (e *stubExtractor) Extract(_ context.Context, data []byte) (string, error) {
	if e.extractFn != nil {
		return e.extractFn(data)
	}
	return string(data), nil
}

func (e *stubExtractor) Extensions() []string { return []string{".txt"} }
