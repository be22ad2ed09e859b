package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p != AIProviderOllama
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// VectorBackend selects the vector index implementation.
type VectorBackend string

// Available vector index backends.
const (
	// VectorBackendMemory is the in-process index. Default.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendQdrant is a remote Qdrant instance.
	VectorBackendQdrant VectorBackend = "qdrant"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendQdrant:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b VectorBackend) Description() string {
	switch b {
	case VectorBackendMemory:
		return "In-memory (single process)"
	case VectorBackendQdrant:
		return "Qdrant (remote)"
	default:
		return unknownDescription
	}
}

// SessionBackend selects the chat session store implementation.
type SessionBackend string

// Available session store backends.
const (
	// SessionBackendMemory keeps sessions in process. Default.
	SessionBackendMemory SessionBackend = "memory"

	// SessionBackendRedis keeps session history in Redis.
	SessionBackendRedis SessionBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b SessionBackend) IsValid() bool {
	switch b {
	case SessionBackendMemory, SessionBackendRedis:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b SessionBackend) String() string {
	return string(b)
}

// ServerSettings holds HTTP server configuration.
type ServerSettings struct {
	// Host is the bind address.
	Host string

	// Port is the listen port.
	Port int

	// EnableMCP mounts the MCP streamable HTTP handler at /mcp.
	EnableMCP bool
}

// Addr returns the host:port bind address.
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IngestSettings holds upload validation and pipeline concurrency
// configuration.
type IngestSettings struct {
	// Workers bounds concurrent documents in flight per namespace.
	Workers int

	// MaxUploadBytes caps the raw upload size.
	MaxUploadBytes int64

	// AllowedExtensions are the accepted filename extensions, with dot,
	// lower-case.
	AllowedExtensions []string

	// WatchDir, when set, is polled by the folder watcher for dropped
	// files. Empty disables watching.
	WatchDir string

	// DefaultNamespace receives watcher files not placed in a subfolder.
	DefaultNamespace string
}

// ChunkerSettings holds text windowing configuration.
type ChunkerSettings struct {
	// WindowTokens is the target tokens per chunk.
	WindowTokens int

	// OverlapTokens is how many tokens consecutive chunks share.
	// Must be smaller than WindowTokens.
	OverlapTokens int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible gateways).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// Dimensions is the vector size the model produces.
	Dimensions int

	// MaxBatchSize caps texts per provider call.
	MaxBatchSize int

	// BatchConcurrency bounds parallel provider calls per document.
	BatchConcurrency int

	// MaxAttempts bounds retries per batch on transient failures.
	MaxAttempts int

	// RequestsPerSecond smooths request bursts to the provider.
	// Zero disables client-side rate limiting.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible gateways).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorIndexSettings holds vector index configuration.
type VectorIndexSettings struct {
	// Backend selects the index implementation.
	Backend VectorBackend

	// QdrantHost and QdrantPort locate the Qdrant gRPC endpoint.
	QdrantHost string
	QdrantPort int

	// Collection is the Qdrant collection name.
	Collection string
}

// SessionSettings holds chat session configuration.
type SessionSettings struct {
	// Backend selects the session store implementation.
	Backend SessionBackend

	// RedisAddr locates the Redis instance for the redis backend.
	RedisAddr string

	// HistoryLimit caps turns kept per session; oldest are evicted.
	HistoryLimit int

	// IdleTimeout is how long an inactive session survives before the
	// janitor collects it.
	IdleTimeout time.Duration
}

// RetrievalSettings holds query-path configuration.
type RetrievalSettings struct {
	// TopK is the default chunk count retrieved per query.
	TopK int

	// MinScore drops results below this cosine similarity floor.
	MinScore float64

	// MaxPerDocument caps context chunks taken from one document.
	MaxPerDocument int

	// ContextTokenBudget caps total context tokens per generation call.
	ContextTokenBudget int
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Server holds HTTP server settings.
	Server ServerSettings

	// Ingest holds upload and pipeline settings.
	Ingest IngestSettings

	// Chunker holds text windowing settings.
	Chunker ChunkerSettings

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// VectorIndex holds vector index settings.
	VectorIndex VectorIndexSettings

	// Session holds chat session settings.
	Session SessionSettings

	// Retrieval holds query-path settings.
	Retrieval RetrievalSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers default to local Ollama; cloud providers must be
// configured explicitly via the settings command.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Server: ServerSettings{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Ingest: IngestSettings{
			Workers:           4,
			MaxUploadBytes:    10 << 20, // 10 MiB
			AllowedExtensions: []string{".pdf", ".docx", ".txt"},
			DefaultNamespace:  "default",
		},
		Chunker: ChunkerSettings{
			WindowTokens:  200,
			OverlapTokens: 40,
		},
		Embedding: EmbeddingSettings{
			Provider:          AIProviderOllama,
			Model:             "nomic-embed-text",
			Dimensions:        768,
			MaxBatchSize:      64,
			BatchConcurrency:  4,
			MaxAttempts:       4,
			RequestsPerSecond: 8,
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    "llama3.2",
		},
		VectorIndex: VectorIndexSettings{
			Backend:    VectorBackendMemory,
			QdrantHost: "127.0.0.1",
			QdrantPort: 6334,
			Collection: "rescout_chunks",
		},
		Session: SessionSettings{
			Backend:      SessionBackendMemory,
			RedisAddr:    "127.0.0.1:6379",
			HistoryLimit: 20,
			IdleTimeout:  30 * time.Minute,
		},
		Retrieval: RetrievalSettings{
			TopK:               8,
			MinScore:           0.25,
			MaxPerDocument:     3,
			ContextTokenBudget: 3000,
		},
	}
}

// Validate checks cross-field consistency. Called after loading.
func (s AppSettings) Validate() error {
	if !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: embedding provider %q", ErrInvalidInput, s.Embedding.Provider)
	}
	if !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: llm provider %q", ErrInvalidInput, s.LLM.Provider)
	}
	if !s.VectorIndex.Backend.IsValid() {
		return fmt.Errorf("%w: vector backend %q", ErrInvalidInput, s.VectorIndex.Backend)
	}
	if !s.Session.Backend.IsValid() {
		return fmt.Errorf("%w: session backend %q", ErrInvalidInput, s.Session.Backend)
	}
	if s.Chunker.WindowTokens <= 0 {
		return fmt.Errorf("%w: chunk window must be positive", ErrInvalidInput)
	}
	if s.Chunker.OverlapTokens < 0 || s.Chunker.OverlapTokens >= s.Chunker.WindowTokens {
		return fmt.Errorf("%w: chunk overlap must be in [0, window)", ErrInvalidInput)
	}
	if s.Ingest.Workers <= 0 {
		return fmt.Errorf("%w: ingest workers must be positive", ErrInvalidInput)
	}
	if s.Ingest.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max upload size must be positive", ErrInvalidInput)
	}
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d", ErrInvalidInput, s.Server.Port)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-1.5-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		// Gemini models
		"text-embedding-004": 768,
	}
}
