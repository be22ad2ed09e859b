// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ExtractorRegistry: Selects a text extractor per file type
//   - Chunker: Splits extracted text into overlapping windows
//   - EmbeddingService: Generates vector embeddings
//   - VectorIndex: Stores vectors and answers top-k similarity queries
//   - DocumentStore: Document/chunk/embedding persistence
//   - BlobStore: Raw upload persistence
//   - SessionStore: Chat session persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer generation and profile extraction. Without it,
//     chat is disabled and candidate profiles fall back to heuristics.
//   - CandidateStore: Profile persistence. Without it, no profiles are
//     derived and status responses omit candidate IDs.
//   - PromptStore: Prompt template overrides. Without it, built-in
//     prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
