package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/logger"
)

// errorResponse is the error envelope for every non-2xx JSON response.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusMapping pairs a domain sentinel with its HTTP status and a
// stable machine-readable code.
type statusMapping struct {
	sentinel error
	status   int
	code     string
}

var statusMappings = []statusMapping{
	{domain.ErrInvalidFormat, http.StatusBadRequest, "invalid_format"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{domain.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge, "payload_too_large"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrEmptyNamespace, http.StatusUnprocessableEntity, "empty_namespace"},
	{domain.ErrEmptyContent, http.StatusUnprocessableEntity, "empty_content"},
	{domain.ErrSessionBusy, http.StatusConflict, "session_busy"},
	{domain.ErrGenerationUnavailable, http.StatusBadGateway, "generation_unavailable"},
	{domain.ErrLLMUnavailable, http.StatusServiceUnavailable, "llm_unavailable"},
	{domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, "embedding_unavailable"},
}

// writeError maps a service error onto the envelope. Unrecognised
// errors become opaque 500s so internals never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	for _, m := range statusMappings {
		if errors.Is(err, m.sentinel) {
			writeJSON(w, m.status, errorResponse{Error: err.Error(), Code: m.code})
			return
		}
	}

	logger.Warn("Internal error on API request: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error: "internal error",
		Code:  "internal",
	})
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Encoding API response failed: %v", err)
	}
}

// decodeJSON parses a request body strictly: unknown fields are
// rejected so malformed client payloads fail early.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return nil
}
