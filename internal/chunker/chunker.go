// Package chunker splits extracted text into overlapping token windows.
package chunker

import (
	"unicode"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driven"
)

// DefaultWindowTokens is the default number of tokens per chunk.
const DefaultWindowTokens = 200

// DefaultOverlapTokens is the default number of tokens shared by
// consecutive chunks.
const DefaultOverlapTokens = 40

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// Chunker splits text into fixed-size token windows with overlap, so
// evidence spanning a window boundary stays retrievable as one unit.
// Tokens are whitespace-delimited; chunk text is taken verbatim from the
// source so internal spacing survives into citations.
type Chunker struct {
	windowTokens  int
	overlapTokens int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithWindowTokens sets the tokens per chunk.
func WithWindowTokens(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.windowTokens = n
		}
	}
}

// WithOverlapTokens sets the tokens shared by consecutive chunks.
func WithOverlapTokens(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlapTokens = n
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		windowTokens:  DefaultWindowTokens,
		overlapTokens: DefaultOverlapTokens,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must stay below the window or the stride stalls
	if c.overlapTokens >= c.windowTokens {
		c.overlapTokens = c.windowTokens / 4
	}

	return c
}

// tokenSpan is one token's byte range within the source text.
type tokenSpan struct {
	start int
	end   int
}

// Chunk splits text into ordered chunks for the document. Windows start
// every windowTokens-overlapTokens tokens and clip to the text, so a
// text of N tokens yields ceil(N / (window - overlap)) chunks and every
// non-final full window shares exactly overlapTokens tokens with its
// successor. Whitespace-only text yields nil.
func (c *Chunker) Chunk(documentID, namespace, text string) []domain.Chunk {
	tokens := tokenise(text)
	if len(tokens) == 0 {
		return nil
	}

	stride := c.windowTokens - c.overlapTokens
	chunks := make([]domain.Chunk, 0, (len(tokens)+stride-1)/stride)

	seq := 0
	for start := 0; start < len(tokens); start += stride {
		end := start + c.windowTokens
		if end > len(tokens) {
			end = len(tokens)
		}

		first := tokens[start]
		last := tokens[end-1]

		chunks = append(chunks, domain.Chunk{
			ID:          domain.ChunkID(documentID, seq),
			DocumentID:  documentID,
			Namespace:   namespace,
			Seq:         seq,
			Text:        text[first.start:last.end],
			StartOffset: first.start,
			EndOffset:   last.end,
			TokenCount:  end - start,
		})
		seq++
	}

	return chunks
}

// CountTokens returns the number of whitespace-delimited tokens in text.
// Context budgeting uses the same token definition as chunking.
func CountTokens(text string) int {
	return len(tokenise(text))
}

// tokenise returns the byte spans of every whitespace-delimited token.
func tokenise(text string) []tokenSpan {
	spans := make([]tokenSpan, 0, len(text)/8)

	inToken := false
	start := 0
	for i, r := range text {
		switch {
		case unicode.IsSpace(r):
			if inToken {
				spans = append(spans, tokenSpan{start: start, end: i})
				inToken = false
			}
		case !inToken:
			start = i
			inToken = true
		}
	}
	if inToken {
		spans = append(spans, tokenSpan{start: start, end: len(text)})
	}

	return spans
}
