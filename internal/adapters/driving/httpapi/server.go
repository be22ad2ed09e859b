// Package httpapi exposes the ingestion and query paths over a JSON
// HTTP API: multipart uploads, status polling, candidate search, and a
// Server-Sent Events chat stream.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rescout-labs/rescout/internal/core/ports/driving"
	"github.com/rescout-labs/rescout/internal/logger"
)

// Server timeouts. The write timeout is generous because chat responses
// stream for as long as the generation runs.
const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Ports aggregates the driving port interfaces the API serves.
type Ports struct {
	// Ingest accepts uploads and reports pipeline status. Required.
	Ingest driving.IngestService

	// Search provides the non-conversational retrieval path. Required.
	Search driving.SearchService

	// Chat provides the conversational path. Optional - without it the
	// chat endpoint reports the LLM as unavailable.
	Chat driving.ChatService

	// Candidates exposes derived profiles. Optional.
	Candidates driving.CandidateService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ingest == nil {
		return fmt.Errorf("httpapi: ingest service is required")
	}
	if p.Search == nil {
		return fmt.Errorf("httpapi: search service is required")
	}
	return nil
}

// Server is the HTTP API server.
type Server struct {
	ports          *Ports
	maxUploadBytes int64
	mcpHandler     http.Handler

	httpServer *http.Server
}

// Option configures the server.
type Option func(*Server)

// WithMaxUploadBytes caps request bodies on the upload endpoint. The
// coordinator enforces its own cap; this one just fails oversized
// bodies before they are buffered.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithMCPHandler mounts a streamable MCP handler at /mcp.
func WithMCPHandler(h http.Handler) Option {
	return func(s *Server) {
		s.mcpHandler = h
	}
}

// NewServer creates the API server.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		ports:          ports,
		maxUploadBytes: 10 << 20,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/uploads", s.handleUpload)
	mux.HandleFunc("GET /v1/uploads/status", s.handleUploadStatus)
	mux.HandleFunc("POST /v1/search", s.handleSearch)
	mux.HandleFunc("POST /v1/chat", s.handleChat)
	mux.HandleFunc("GET /v1/candidates", s.handleListCandidates)
	mux.HandleFunc("GET /v1/candidates/{id}", s.handleGetCandidate)
	mux.HandleFunc("DELETE /v1/documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.mcpHandler != nil {
		mux.Handle("/mcp", s.mcpHandler)
	}

	return logRequests(mux)
}

// Run serves on addr until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// logRequests is a minimal access-log middleware.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
