// Package domain defines the core business entities for Rescout.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded resume moving through the ingestion pipeline
//   - Chunk: A bounded, overlap-preserving slice of extracted text
//   - Embedding: The vector representation of one chunk
//   - CandidateProfile: The recruiter-facing record derived from a document
//   - ChatSession: Bounded conversation history for the query path
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
