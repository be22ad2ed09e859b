package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rescout-labs/rescout/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for Rescout resources.
	uriScheme = "rescout://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Template for candidate listings per namespace.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "namespaces/{namespace}/candidates",
		Name:        "namespace-candidates",
		Description: "Candidate profiles derived from resumes in a namespace",
		MIMEType:    "application/json",
	}, s.handleCandidatesResource)

	// Template for single candidate profiles.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "candidates/{candidateId}",
		Name:        "candidate-profile",
		Description: "One derived candidate profile",
		MIMEType:    "application/json",
	}, s.handleCandidateResource)

	// Template for document pipeline status.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}/status",
		Name:        "document-status",
		Description: "Ingestion pipeline status of an uploaded document",
		MIMEType:    "application/json",
	}, s.handleStatusResource)
}

// handleCandidatesResource returns the candidate listing for a namespace.
func (s *Server) handleCandidatesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Candidates == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract namespace from URI: rescout://namespaces/{namespace}/candidates
	namespace := extractNamespace(req.Params.URI)
	if namespace == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	page, err := s.ports.Candidates.List(ctx, domain.CandidateFilter{Namespace: namespace}, 1, 100)
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}

	infos := make([]CandidateSummaryOutput, len(page.Candidates))
	for i := range page.Candidates {
		infos[i] = CandidateSummaryOutput{
			ID:    page.Candidates[i].ID,
			Name:  page.Candidates[i].Name,
			Title: page.Candidates[i].Title,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling candidates: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleCandidateResource returns a single candidate profile.
func (s *Server) handleCandidateResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Candidates == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract candidateId from URI: rescout://candidates/{candidateId}
	candidateID := strings.TrimPrefix(req.Params.URI, uriScheme+"candidates/")
	if candidateID == "" || strings.Contains(candidateID, "/") {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	profile, err := s.ports.Candidates.Get(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("getting candidate: %w", err)
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling candidate: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleStatusResource returns a document's pipeline status.
func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Ingest == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	documentID := extractStatusDocumentID(req.Params.URI)
	if documentID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	info, err := s.ports.Ingest.GetStatus(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("getting status: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling status: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractNamespace extracts the namespace from a URI like
// rescout://namespaces/{namespace}/candidates.
func extractNamespace(uri string) string {
	const prefix = uriScheme + "namespaces/"
	const suffix = "/candidates"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}

// extractStatusDocumentID extracts the document ID from a URI like
// rescout://documents/{documentId}/status.
func extractStatusDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"
	const suffix = "/status"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
