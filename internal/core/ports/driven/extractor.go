package driven

import "context"

// Extractor converts one document format to plain text.
//
// Implementations exist per format (PDF, DOCX, plain text). Extraction
// failures must be returned as errors, never as empty output: empty text
// from a healthy extractor means the document genuinely has no content.
type Extractor interface {
	// Extract returns the plain text of the document bytes.
	Extract(ctx context.Context, data []byte) (string, error)

	// Extensions returns the filename extensions this extractor handles,
	// lower-case with leading dot.
	Extensions() []string
}

// ExtractorRegistry selects the extractor for an uploaded file.
type ExtractorRegistry interface {
	// ExtractorFor returns the extractor responsible for the filename's
	// extension. Returns domain.ErrInvalidFormat when no extractor is
	// registered for it.
	ExtractorFor(filename string) (Extractor, error)

	// SupportedExtensions returns all registered extensions.
	SupportedExtensions() []string
}
