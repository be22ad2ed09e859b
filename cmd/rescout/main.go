// Command rescout runs the resume ingestion and candidate query engine:
// a single binary exposing the CLI, the HTTP API, and the MCP server.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rescout-labs/rescout/internal/adapters/driven/ai"
	diskblob "github.com/rescout-labs/rescout/internal/adapters/driven/blobstore/disk"
	fileconfig "github.com/rescout-labs/rescout/internal/adapters/driven/config/file"
	redissession "github.com/rescout-labs/rescout/internal/adapters/driven/sessionstore/redis"
	storagemem "github.com/rescout-labs/rescout/internal/adapters/driven/storage/memory"
	"github.com/rescout-labs/rescout/internal/adapters/driven/storage/sqlite"
	vectormem "github.com/rescout-labs/rescout/internal/adapters/driven/vectorindex/memory"
	qdrantindex "github.com/rescout-labs/rescout/internal/adapters/driven/vectorindex/qdrant"
	"github.com/rescout-labs/rescout/internal/adapters/driving/cli"
	"github.com/rescout-labs/rescout/internal/adapters/driving/httpapi"
	"github.com/rescout-labs/rescout/internal/adapters/driving/mcp"
	"github.com/rescout-labs/rescout/internal/adapters/driving/watcher"
	"github.com/rescout-labs/rescout/internal/chunker"
	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driven"
	"github.com/rescout-labs/rescout/internal/core/services"
	"github.com/rescout-labs/rescout/internal/extractors"
	"github.com/rescout-labs/rescout/internal/extractors/docx"
	"github.com/rescout-labs/rescout/internal/extractors/html"
	"github.com/rescout-labs/rescout/internal/extractors/markdown"
	"github.com/rescout-labs/rescout/internal/extractors/pdf"
	"github.com/rescout-labs/rescout/internal/extractors/plaintext"
	"github.com/rescout-labs/rescout/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	homeDir, err := rescoutHome()
	if err != nil {
		return err
	}

	configStore, err := fileconfig.NewConfigStore(homeDir)
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}
	promptStore, err := fileconfig.NewPromptStore(filepath.Join(homeDir, "prompts"))
	if err != nil {
		return fmt.Errorf("opening prompt store: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	store, err := sqlite.NewStore(filepath.Join(homeDir, "data"))
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	defer store.Close()

	blobStore, err := diskblob.New(filepath.Join(homeDir, "blobs"))
	if err != nil {
		return fmt.Errorf("opening blob store: %w", err)
	}

	docStore := store.DocumentStore()
	candidateStore := store.CandidateStore()

	registry := extractors.NewRegistry(
		pdf.New(),
		docx.New(),
		plaintext.New(),
		markdown.New(),
		html.New(),
	)

	textChunker := chunker.New(
		chunker.WithWindowTokens(settings.Chunker.WindowTokens),
		chunker.WithOverlapTokens(settings.Chunker.OverlapTokens),
	)

	ctx := context.Background()

	// AI providers are optional at startup: without them the commands
	// that need them report themselves unconfigured.
	var embedder *services.EmbeddingClient
	embeddingService, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		logger.Warn("Embedding provider not available: %v", err)
	} else {
		embedder = services.NewEmbeddingClient(embeddingService,
			services.WithMaxBatchSize(settings.Embedding.MaxBatchSize),
			services.WithBatchConcurrency(settings.Embedding.BatchConcurrency),
			services.WithMaxAttempts(settings.Embedding.MaxAttempts),
			services.WithRateLimit(settings.Embedding.RequestsPerSecond),
		)
	}

	llmService, err := ai.CreateLLMService(&settings.LLM)
	if err != nil {
		logger.Warn("LLM provider not available: %v", err)
		llmService = nil
	}

	wired := cli.Services{Settings: settingsService}

	if embedder != nil {
		vectorIndex, err := newVectorIndex(ctx, settings)
		if err != nil {
			return err
		}

		sessionStore, err := newSessionStore(ctx, settings)
		if err != nil {
			return err
		}

		coordinator := services.NewIngestCoordinator(
			docStore, blobStore, registry, textChunker, embedder, vectorIndex,
			services.WithWorkers(settings.Ingest.Workers),
			services.WithMaxUploadBytes(settings.Ingest.MaxUploadBytes),
			services.WithAllowedExtensions(settings.Ingest.AllowedExtensions),
			services.WithCandidateStore(candidateStore),
		)
		defer coordinator.Close()

		retriever := services.NewRetriever(embedder, vectorIndex, docStore, candidateStore,
			services.WithDefaultTopK(settings.Retrieval.TopK),
			services.WithMinScore(settings.Retrieval.MinScore),
		)

		assembler := services.NewContextAssembler(docStore,
			services.WithTokenBudget(settings.Retrieval.ContextTokenBudget),
			services.WithMaxPerDocument(settings.Retrieval.MaxPerDocument),
		)

		sessions := services.NewSessionManager(sessionStore,
			services.WithHistoryLimit(settings.Session.HistoryLimit),
			services.WithIdleTimeout(settings.Session.IdleTimeout),
		)
		defer sessions.Close()

		chat := services.NewChatOrchestrator(sessions, retriever, assembler, llmService, promptStore)

		profiler := services.NewCandidateProfiler(coordinator, docStore, candidateStore, llmService, promptStore)
		profiler.Start()
		defer profiler.Close()

		directory := services.NewCandidateDirectory(candidateStore)

		wired.Ingest = coordinator
		wired.Search = retriever
		wired.Chat = chat
		wired.Candidates = directory
		wired.RunServe = func(ctx context.Context) error {
			return runServer(ctx, settings, &httpapi.Ports{
				Ingest:     coordinator,
				Search:     retriever,
				Chat:       chat,
				Candidates: directory,
			})
		}
		wired.RunMCP = func(ctx context.Context, httpAddr string) error {
			return runMCP(ctx, &mcp.Ports{
				Search:     retriever,
				Candidates: directory,
				Ingest:     coordinator,
			}, httpAddr)
		}
	}

	cli.Configure(wired, version)
	return cli.Execute(ctx)
}

// rescoutHome returns the application home directory, creating it if
// needed. RESCOUT_HOME overrides the default ~/.rescout.
func rescoutHome() (string, error) {
	if dir := os.Getenv("RESCOUT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".rescout"), nil
}

func newVectorIndex(ctx context.Context, settings *domain.AppSettings) (driven.VectorIndex, error) {
	switch settings.VectorIndex.Backend {
	case domain.VectorBackendQdrant:
		index, err := qdrantindex.New(ctx, qdrantindex.Config{
			Host:       settings.VectorIndex.QdrantHost,
			Port:       settings.VectorIndex.QdrantPort,
			Collection: settings.VectorIndex.Collection,
			Dimensions: settings.Embedding.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to qdrant: %w", err)
		}
		return index, nil
	default:
		return vectormem.New(), nil
	}
}

func newSessionStore(ctx context.Context, settings *domain.AppSettings) (driven.SessionStore, error) {
	switch settings.Session.Backend {
	case domain.SessionBackendRedis:
		store, err := redissession.New(ctx, settings.Session.RedisAddr, settings.Session.IdleTimeout)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return store, nil
	default:
		return storagemem.NewSessionStore(), nil
	}
}

// runServer runs the HTTP API, and alongside it the drop-folder
// watcher when one is configured, until ctx is cancelled.
func runServer(ctx context.Context, settings *domain.AppSettings, ports *httpapi.Ports) error {
	opts := []httpapi.Option{
		httpapi.WithMaxUploadBytes(settings.Ingest.MaxUploadBytes),
	}

	if settings.Server.EnableMCP {
		mcpServer, err := mcp.NewServer(&mcp.Ports{
			Search:     ports.Search,
			Candidates: ports.Candidates,
			Ingest:     ports.Ingest,
		})
		if err != nil {
			return err
		}
		opts = append(opts, httpapi.WithMCPHandler(mcpServer.Handler()))
	}

	server, err := httpapi.NewServer(ports, opts...)
	if err != nil {
		return err
	}

	watcherDone := make(chan struct{})
	if settings.Ingest.WatchDir != "" {
		w := watcher.New(ports.Ingest, settings.Ingest.WatchDir, settings.Ingest.DefaultNamespace,
			watcher.WithAllowedExtensions(settings.Ingest.AllowedExtensions),
		)
		go func() {
			defer close(watcherDone)
			if err := w.Run(ctx); err != nil {
				logger.Warn("Folder watcher stopped: %v", err)
			}
		}()
	} else {
		close(watcherDone)
	}

	err = server.Run(ctx, settings.Server.Addr())
	<-watcherDone
	return err
}

func runMCP(ctx context.Context, ports *mcp.Ports, httpAddr string) error {
	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}
	if httpAddr != "" {
		return server.RunHTTP(ctx, httpAddr)
	}
	return server.Run(ctx)
}
