package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rescout-labs/rescout/internal/core/domain"
)

// SearchInput is the input schema for the search_candidates tool.
type SearchInput struct {
	Namespace string `json:"namespace" jsonschema:"the batch namespace to search within"`
	Query     string `json:"query" jsonschema:"the natural-language query describing the candidate to find"`
	TopK      int    `json:"topK,omitempty" jsonschema:"maximum number of chunks to retrieve before grouping (default 8)"`
}

// SearchOutput is the output schema for the search_candidates tool.
type SearchOutput struct {
	QueryID string            `json:"query_id"`
	Results []SearchHitOutput `json:"results"`
	Count   int               `json:"count"`
}

// SearchHitOutput represents a single matched document.
type SearchHitOutput struct {
	DocumentID  string   `json:"document_id"`
	CandidateID string   `json:"candidate_id,omitempty"`
	Score       float64  `json:"score"`
	Snippets    []string `json:"snippets,omitempty"`
}

// GetCandidateInput is the input schema for the get_candidate tool.
type GetCandidateInput struct {
	ID string `json:"id" jsonschema:"the candidate profile ID"`
}

// CandidateOutput is a full candidate profile.
type CandidateOutput struct {
	ID              string   `json:"id"`
	Namespace       string   `json:"namespace"`
	Name            string   `json:"name"`
	Title           string   `json:"title,omitempty"`
	Company         string   `json:"company,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	ExperienceYears int      `json:"experience_years,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	Snippets        []string `json:"snippets,omitempty"`
	SourceFilename  string   `json:"source_filename"`
}

// ListCandidatesInput is the input schema for the list_candidates tool.
type ListCandidatesInput struct {
	Namespace string `json:"namespace" jsonschema:"the batch namespace to list candidates from"`
	Skill     string `json:"skill,omitempty" jsonschema:"only candidates listing this skill (case-insensitive)"`
}

// ListCandidatesOutput is the output schema for the list_candidates tool.
type ListCandidatesOutput struct {
	Candidates []CandidateSummaryOutput `json:"candidates"`
	Count      int                      `json:"count"`
}

// CandidateSummaryOutput is one row of a candidate listing.
type CandidateSummaryOutput struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_candidates",
		Description: "Search indexed resumes for candidates matching a natural-language query",
	}, s.handleSearch)

	if s.ports.Candidates != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "get_candidate",
			Description: "Fetch one candidate profile by ID",
		}, s.handleGetCandidate)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_candidates",
			Description: "List candidate profiles in a namespace",
		}, s.handleListCandidates)
	}
}

// handleSearch handles the search_candidates tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	resp, err := s.ports.Search.Search(ctx, domain.SearchRequest{
		Namespace: input.Namespace,
		Query:     input.Query,
		TopK:      input.TopK,
	})
	if err != nil {
		// Nothing indexed yet is an answerable state, not a tool failure.
		if errors.Is(err, domain.ErrEmptyNamespace) {
			return nil, SearchOutput{Results: []SearchHitOutput{}}, nil
		}
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		QueryID: resp.QueryID,
		Results: make([]SearchHitOutput, len(resp.Results)),
		Count:   len(resp.Results),
	}
	for i, hit := range resp.Results {
		output.Results[i] = SearchHitOutput{
			DocumentID:  hit.DocumentID,
			CandidateID: hit.CandidateID,
			Score:       hit.Score,
			Snippets:    hit.Snippets,
		}
	}

	return nil, output, nil
}

// handleGetCandidate handles the get_candidate tool invocation.
func (s *Server) handleGetCandidate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetCandidateInput,
) (*mcp.CallToolResult, CandidateOutput, error) {
	profile, err := s.ports.Candidates.Get(ctx, input.ID)
	if err != nil {
		return nil, CandidateOutput{}, err
	}

	return nil, CandidateOutput{
		ID:              profile.ID,
		Namespace:       profile.Namespace,
		Name:            profile.Name,
		Title:           profile.Title,
		Company:         profile.Company,
		Skills:          profile.Skills,
		ExperienceYears: profile.ExperienceYears,
		Summary:         profile.Summary,
		Snippets:        profile.Snippets,
		SourceFilename:  profile.SourceFilename,
	}, nil
}

// handleListCandidates handles the list_candidates tool invocation.
func (s *Server) handleListCandidates(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListCandidatesInput,
) (*mcp.CallToolResult, ListCandidatesOutput, error) {
	page, err := s.ports.Candidates.List(ctx, domain.CandidateFilter{
		Namespace: input.Namespace,
		Skill:     input.Skill,
	}, 1, 100)
	if err != nil {
		return nil, ListCandidatesOutput{}, err
	}

	output := ListCandidatesOutput{
		Candidates: make([]CandidateSummaryOutput, len(page.Candidates)),
		Count:      page.Total,
	}
	for i := range page.Candidates {
		output.Candidates[i] = CandidateSummaryOutput{
			ID:    page.Candidates[i].ID,
			Name:  page.Candidates[i].Name,
			Title: page.Candidates[i].Title,
		}
	}

	return nil, output, nil
}
