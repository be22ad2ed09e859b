package domain

// SearchRequest is the non-conversational "find candidates" query.
type SearchRequest struct {
	// Namespace scopes the search to one batch. Required.
	Namespace string

	// RecruiterID is the caller-supplied identity. Optional.
	RecruiterID string

	// Query is the natural-language search text. Required.
	Query string

	// TopK caps how many chunks are retrieved before grouping.
	// Zero means the configured default.
	TopK int
}

// SearchHit is one matched document with its best evidence.
// Results are grouped per document so one verbose resume does not
// occupy every row.
type SearchHit struct {
	// DocumentID is the source document.
	DocumentID string

	// CandidateID is the derived profile ID when one exists.
	CandidateID string

	// Score is the best chunk similarity for this document.
	Score float64

	// Snippets are short excerpts from the matching chunks.
	Snippets []string
}

// SearchResponse is the ranked, grouped result of one search.
type SearchResponse struct {
	// QueryID identifies this query for logging and client correlation.
	QueryID string

	// Results are ordered by descending score.
	Results []SearchHit
}
