package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/logger"
)

// uploadResponse is returned by POST /v1/uploads.
type uploadResponse struct {
	DocumentID string `json:"documentId"`
	Status     string `json:"status"`
}

// statusResponse is returned by GET /v1/uploads/status.
type statusResponse struct {
	DocumentID  string `json:"documentId"`
	Status      string `json:"status"`
	CandidateID string `json:"candidateId,omitempty"`
	Error       string `json:"error,omitempty"`
}

// searchRequest is the body of POST /v1/search.
type searchRequest struct {
	Namespace   string `json:"namespace"`
	RecruiterID string `json:"recruiterId,omitempty"`
	Query       string `json:"query"`
	TopK        int    `json:"topK,omitempty"`
}

// searchResponse is returned by POST /v1/search.
type searchResponse struct {
	QueryID string      `json:"queryId"`
	Results []searchHit `json:"results"`
}

type searchHit struct {
	DocumentID  string   `json:"documentId"`
	CandidateID string   `json:"candidateId,omitempty"`
	Score       float64  `json:"score"`
	Snippets    []string `json:"snippets,omitempty"`
}

// chatRequest is the body of POST /v1/chat.
type chatRequest struct {
	SessionID   string `json:"sessionId,omitempty"`
	Namespace   string `json:"namespace"`
	RecruiterID string `json:"recruiterId,omitempty"`
	Message     string `json:"message"`
}

// chatDonePayload terminates a successful chat stream.
type chatDonePayload struct {
	SessionID   string         `json:"sessionId"`
	FullMessage string         `json:"fullMessage"`
	Citations   []chatCitation `json:"citations"`
}

type chatCitation struct {
	Marker     int     `json:"marker"`
	ChunkID    string  `json:"chunkId"`
	DocumentID string  `json:"documentId"`
	Score      float64 `json:"score"`
}

// candidatePage is returned by GET /v1/candidates.
type candidatePage struct {
	Candidates []candidateSummary `json:"candidates"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	Total      int                `json:"total"`
}

type candidateSummary struct {
	ID              string   `json:"id"`
	Namespace       string   `json:"namespace"`
	Name            string   `json:"name"`
	Title           string   `json:"title,omitempty"`
	Company         string   `json:"company,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	ExperienceYears int      `json:"experienceYears,omitempty"`
	Summary         string   `json:"summary,omitempty"`
}

// handleUpload accepts one multipart resume upload.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, fmt.Errorf("%w: body exceeds %d bytes", domain.ErrPayloadTooLarge, maxBytesErr.Limit))
			return
		}
		writeError(w, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return
	}

	namespace := r.FormValue("namespace")
	if namespace == "" {
		writeError(w, fmt.Errorf("%w: namespace form field is required", domain.ErrInvalidInput))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("%w: file form field is required", domain.ErrInvalidInput))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, fmt.Errorf("read upload: %w", err))
		return
	}

	documentID, status, err := s.ports.Ingest.Submit(r.Context(), domain.UploadRequest{
		Namespace:   namespace,
		RecruiterID: r.FormValue("recruiterId"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, uploadResponse{
		DocumentID: documentID,
		Status:     status.String(),
	})
}

// handleUploadStatus reports a document's pipeline state.
func (s *Server) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	documentID := r.URL.Query().Get("documentId")
	if documentID == "" {
		writeError(w, fmt.Errorf("%w: documentId query parameter is required", domain.ErrInvalidInput))
		return
	}

	info, err := s.ports.Ingest.GetStatus(r.Context(), documentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		DocumentID:  info.DocumentID,
		Status:      info.Status.String(),
		CandidateID: info.CandidateID,
		Error:       info.ErrorDetail,
	})
}

// handleSearch runs the non-conversational candidate search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	resp, err := s.ports.Search.Search(r.Context(), domain.SearchRequest{
		Namespace:   req.Namespace,
		RecruiterID: req.RecruiterID,
		Query:       req.Query,
		TopK:        req.TopK,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	out := searchResponse{QueryID: resp.QueryID, Results: make([]searchHit, len(resp.Results))}
	for i, hit := range resp.Results {
		out.Results[i] = searchHit{
			DocumentID:  hit.DocumentID,
			CandidateID: hit.CandidateID,
			Score:       hit.Score,
			Snippets:    hit.Snippets,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleChat streams one conversational turn as Server-Sent Events:
// zero or more "token" events, then exactly one "done" or "error".
// Synchronous failures keep the plain JSON error envelope.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.ports.Chat == nil {
		writeError(w, domain.ErrLLMUnavailable)
		return
	}

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	events, err := s.ports.Chat.Chat(r.Context(), domain.ChatRequest{
		SessionID:   req.SessionID,
		Namespace:   req.Namespace,
		RecruiterID: req.RecruiterID,
		Message:     req.Message,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, fmt.Errorf("streaming unsupported by connection"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for event := range events {
		switch event.Type {
		case domain.ChatEventToken:
			writeSSE(w, "token", map[string]string{"token": event.Token})

		case domain.ChatEventDone:
			citations := make([]chatCitation, len(event.Citations))
			for i, c := range event.Citations {
				citations[i] = chatCitation{
					Marker:     c.Marker,
					ChunkID:    c.ChunkID,
					DocumentID: c.DocumentID,
					Score:      c.Score,
				}
			}
			writeSSE(w, "done", chatDonePayload{
				SessionID:   event.SessionID,
				FullMessage: event.Message,
				Citations:   citations,
			})

		case domain.ChatEventError:
			writeSSE(w, "error", map[string]string{"error": event.Err.Error()})
		}
		flusher.Flush()
	}
}

// writeSSE writes one Server-Sent Event with a JSON payload.
func writeSSE(w io.Writer, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("Encoding SSE payload failed: %v", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

// handleListCandidates returns one page of derived profiles.
func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	if s.ports.Candidates == nil {
		writeError(w, domain.ErrNotFound)
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))

	result, err := s.ports.Candidates.List(r.Context(), domain.CandidateFilter{
		Namespace:   q.Get("namespace"),
		RecruiterID: q.Get("recruiterId"),
		Skill:       q.Get("skill"),
		NamePrefix:  q.Get("name"),
	}, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	out := candidatePage{
		Candidates: make([]candidateSummary, len(result.Candidates)),
		Page:       result.Page,
		PageSize:   result.PageSize,
		Total:      result.Total,
	}
	for i := range result.Candidates {
		out.Candidates[i] = toCandidateSummary(&result.Candidates[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetCandidate returns one derived profile.
func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	if s.ports.Candidates == nil {
		writeError(w, domain.ErrNotFound)
		return
	}

	profile, err := s.ports.Candidates.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	out := struct {
		candidateSummary
		Snippets       []string `json:"snippets,omitempty"`
		SourceFilename string   `json:"sourceFilename"`
	}{
		candidateSummary: toCandidateSummary(profile),
		Snippets:         profile.Snippets,
		SourceFilename:   profile.SourceFilename,
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDeleteDocument cascades a document deletion.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.ports.Ingest.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toCandidateSummary(p *domain.CandidateProfile) candidateSummary {
	return candidateSummary{
		ID:              p.ID,
		Namespace:       p.Namespace,
		Name:            p.Name,
		Title:           p.Title,
		Company:         p.Company,
		Skills:          p.Skills,
		ExperienceYears: p.ExperienceYears,
		Summary:         p.Summary,
	}
}
