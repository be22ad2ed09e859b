package mcp

import (
	"github.com/rescout-labs/rescout/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides the non-conversational retrieval path.
	Search driving.SearchService

	// Candidates exposes derived candidate profiles.
	Candidates driving.CandidateService

	// Ingest reports document pipeline status.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Candidates and Ingest are optional; tools degrade gracefully.
	return nil
}
