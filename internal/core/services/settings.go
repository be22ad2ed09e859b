package services

import (
	"fmt"
	"os"
	"time"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driven"
	"github.com/rescout-labs/rescout/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyServerHost = "server.host"
	keyServerPort = "server.port"
	keyServerMCP  = "server.enable_mcp"

	keyIngestWorkers    = "ingest.workers"
	keyIngestMaxBytes   = "ingest.max_upload_bytes"
	keyIngestExtensions = "ingest.allowed_extensions"
	keyIngestWatchDir   = "ingest.watch_dir"
	keyIngestNamespace  = "ingest.default_namespace"

	keyChunkWindow  = "chunker.window_tokens"
	keyChunkOverlap = "chunker.overlap_tokens"

	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedDimensions  = "embedding.dimensions"
	keyEmbedBatchSize   = "embedding.max_batch_size"
	keyEmbedConcurrency = "embedding.batch_concurrency"
	keyEmbedAttempts    = "embedding.max_attempts"
	keyEmbedRPS         = "embedding.requests_per_second"

	keyLLMProvider = "llm.provider"
	keyLLMModel    = "llm.model"
	keyLLMBaseURL  = "llm.base_url"
	keyLLMAPIKey   = "llm.api_key"

	keyVectorBackend    = "vector_index.backend"
	keyVectorQdrantHost = "vector_index.qdrant_host"
	keyVectorQdrantPort = "vector_index.qdrant_port"
	keyVectorCollection = "vector_index.collection"

	keySessionBackend   = "session.backend"
	keySessionRedisAddr = "session.redis_addr"
	keySessionHistory   = "session.history_limit"
	keySessionIdleSecs  = "session.idle_timeout_seconds"

	keyRetrievalTopK     = "retrieval.top_k"
	keyRetrievalMinScore = "retrieval.min_score"
	keyRetrievalPerDoc   = "retrieval.max_per_document"
	keyRetrievalBudget   = "retrieval.context_token_budget"
)

// Environment overrides for secrets, so API keys never have to touch
// the config file.
const (
	envEmbeddingAPIKey = "RESCOUT_EMBEDDING_API_KEY" //nolint:gosec // env var name
	envLLMAPIKey       = "RESCOUT_LLM_API_KEY"       //nolint:gosec // env var name
)

// SettingsService maps the flat config store onto typed AppSettings
// and validates provider choices.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings: stored values over
// defaults, environment overrides for secrets on top.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Server: domain.ServerSettings{
			Host:      s.getString(keyServerHost, d.Server.Host),
			Port:      s.getInt(keyServerPort, d.Server.Port),
			EnableMCP: s.getBool(keyServerMCP, d.Server.EnableMCP),
		},
		Ingest: domain.IngestSettings{
			Workers:           s.getInt(keyIngestWorkers, d.Ingest.Workers),
			MaxUploadBytes:    int64(s.getInt(keyIngestMaxBytes, int(d.Ingest.MaxUploadBytes))),
			AllowedExtensions: s.getStringSlice(keyIngestExtensions, d.Ingest.AllowedExtensions),
			WatchDir:          s.configStore.GetString(keyIngestWatchDir), // No default - empty disables watching
			DefaultNamespace:  s.getString(keyIngestNamespace, d.Ingest.DefaultNamespace),
		},
		Chunker: domain.ChunkerSettings{
			WindowTokens:  s.getInt(keyChunkWindow, d.Chunker.WindowTokens),
			OverlapTokens: s.getInt(keyChunkOverlap, d.Chunker.OverlapTokens),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.getSecret(keyEmbedAPIKey, envEmbeddingAPIKey),
			Dimensions:        s.getInt(keyEmbedDimensions, d.Embedding.Dimensions),
			MaxBatchSize:      s.getInt(keyEmbedBatchSize, d.Embedding.MaxBatchSize),
			BatchConcurrency:  s.getInt(keyEmbedConcurrency, d.Embedding.BatchConcurrency),
			MaxAttempts:       s.getInt(keyEmbedAttempts, d.Embedding.MaxAttempts),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, d.Embedding.RequestsPerSecond),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:    s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.getSecret(keyLLMAPIKey, envLLMAPIKey),
		},
		VectorIndex: domain.VectorIndexSettings{
			Backend:    domain.VectorBackend(s.getString(keyVectorBackend, d.VectorIndex.Backend.String())),
			QdrantHost: s.getString(keyVectorQdrantHost, d.VectorIndex.QdrantHost),
			QdrantPort: s.getInt(keyVectorQdrantPort, d.VectorIndex.QdrantPort),
			Collection: s.getString(keyVectorCollection, d.VectorIndex.Collection),
		},
		Session: domain.SessionSettings{
			Backend:      domain.SessionBackend(s.getString(keySessionBackend, d.Session.Backend.String())),
			RedisAddr:    s.getString(keySessionRedisAddr, d.Session.RedisAddr),
			HistoryLimit: s.getInt(keySessionHistory, d.Session.HistoryLimit),
			IdleTimeout:  time.Duration(s.getInt(keySessionIdleSecs, int(d.Session.IdleTimeout/time.Second))) * time.Second,
		},
		Retrieval: domain.RetrievalSettings{
			TopK:               s.getInt(keyRetrievalTopK, d.Retrieval.TopK),
			MinScore:           s.getFloat(keyRetrievalMinScore, d.Retrieval.MinScore),
			MaxPerDocument:     s.getInt(keyRetrievalPerDoc, d.Retrieval.MaxPerDocument),
			ContextTokenBudget: s.getInt(keyRetrievalBudget, d.Retrieval.ContextTokenBudget),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	values := map[string]any{
		keyServerHost:        settings.Server.Host,
		keyServerPort:        settings.Server.Port,
		keyServerMCP:         settings.Server.EnableMCP,
		keyIngestWorkers:     settings.Ingest.Workers,
		keyIngestMaxBytes:    int(settings.Ingest.MaxUploadBytes),
		keyIngestExtensions:  settings.Ingest.AllowedExtensions,
		keyIngestWatchDir:    settings.Ingest.WatchDir,
		keyIngestNamespace:   settings.Ingest.DefaultNamespace,
		keyChunkWindow:       settings.Chunker.WindowTokens,
		keyChunkOverlap:      settings.Chunker.OverlapTokens,
		keyEmbedProvider:     settings.Embedding.Provider.String(),
		keyEmbedModel:        settings.Embedding.Model,
		keyEmbedBaseURL:      settings.Embedding.BaseURL,
		keyEmbedDimensions:   settings.Embedding.Dimensions,
		keyEmbedBatchSize:    settings.Embedding.MaxBatchSize,
		keyEmbedConcurrency:  settings.Embedding.BatchConcurrency,
		keyEmbedAttempts:     settings.Embedding.MaxAttempts,
		keyEmbedRPS:          settings.Embedding.RequestsPerSecond,
		keyLLMProvider:       settings.LLM.Provider.String(),
		keyLLMModel:          settings.LLM.Model,
		keyLLMBaseURL:        settings.LLM.BaseURL,
		keyVectorBackend:     settings.VectorIndex.Backend.String(),
		keyVectorQdrantHost:  settings.VectorIndex.QdrantHost,
		keyVectorQdrantPort:  settings.VectorIndex.QdrantPort,
		keyVectorCollection:  settings.VectorIndex.Collection,
		keySessionBackend:    settings.Session.Backend.String(),
		keySessionRedisAddr:  settings.Session.RedisAddr,
		keySessionHistory:    settings.Session.HistoryLimit,
		keySessionIdleSecs:   int(settings.Session.IdleTimeout / time.Second),
		keyRetrievalTopK:     settings.Retrieval.TopK,
		keyRetrievalMinScore: settings.Retrieval.MinScore,
		keyRetrievalPerDoc:   settings.Retrieval.MaxPerDocument,
		keyRetrievalBudget:   settings.Retrieval.ContextTokenBudget,
	}

	for key, value := range values {
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	// API keys are written only when set, so an env-var-only setup
	// never leaks secrets into the config file.
	if settings.Embedding.APIKey != "" && settings.Embedding.APIKey != os.Getenv(envEmbeddingAPIKey) {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if settings.LLM.APIKey != "" && settings.LLM.APIKey != os.Getenv(envLLMAPIKey) {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: embedding provider %q", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	}
	if apiKey != "" {
		settings.Embedding.APIKey = apiKey
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: llm provider %q", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	if model != "" {
		settings.LLM.Model = model
	}
	if apiKey != "" {
		settings.LLM.APIKey = apiKey
	}

	return s.Save(settings)
}

// Validate checks if current settings are consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration
// by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging
// the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// getString returns the stored string or the default when unset.
func (s *SettingsService) getString(key, fallback string) string {
	if value := s.configStore.GetString(key); value != "" {
		return value
	}
	return fallback
}

// getSecret prefers the environment variable over the stored value.
func (s *SettingsService) getSecret(key, envVar string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return s.configStore.GetString(key)
}

func (s *SettingsService) getInt(key string, fallback int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return fallback
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, fallback float64) float64 {
	if _, ok := s.configStore.Get(key); !ok {
		return fallback
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, fallback bool) bool {
	if _, ok := s.configStore.Get(key); !ok {
		return fallback
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getStringSlice(key string, fallback []string) []string {
	if value := s.configStore.GetStringSlice(key); len(value) > 0 {
		return value
	}
	return fallback
}

func (s *SettingsService) getProvider(key string, fallback domain.AIProvider) domain.AIProvider {
	raw := s.configStore.GetString(key)
	if raw == "" {
		return fallback
	}
	provider := domain.AIProvider(raw)
	if !provider.IsValid() {
		return fallback
	}
	return provider
}
