package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driven"
)

func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "test-key"})
	require.NoError(t, err)
	defer svc.Close()

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
}

func TestEmbed_MapsDocumentTaskType(t *testing.T) {
	var captured batchEmbedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/text-embedding-004:batchEmbedContents", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Write([]byte(`{"embeddings": [{"values": [0.1, 0.2]}, {"values": [0.3, 0.4]}]}`))
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	defer svc.Close()

	vectors, err := svc.Embed(context.Background(), []string{"alpha", "beta"}, driven.PurposeDocument)
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])

	require.Len(t, captured.Requests, 2)
	assert.Equal(t, "models/text-embedding-004", captured.Requests[0].Model)
	assert.Equal(t, taskRetrievalDocument, captured.Requests[0].TaskType)
	assert.Equal(t, "alpha", captured.Requests[0].Content.Parts[0].Text)
}

func TestEmbed_MapsQueryTaskType(t *testing.T) {
	var captured batchEmbedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"embeddings": [{"values": [0.5]}]}`))
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Embed(context.Background(), []string{"who knows Go?"}, driven.PurposeQuery)
	require.NoError(t, err)

	require.Len(t, captured.Requests, 1)
	assert.Equal(t, taskRetrievalQuery, captured.Requests[0].TaskType)
}

func TestEmbed_EmptyInput(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: "http://localhost:1"})
	require.NoError(t, err)
	defer svc.Close()

	vectors, err := svc.Embed(context.Background(), nil, driven.PurposeDocument)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbed_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"code": 429, "message": "quota exceeded", "status": "RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Embed(context.Background(), []string{"text"}, driven.PurposeDocument)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestEmbed_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "bad-key", BaseURL: server.URL})
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Embed(context.Background(), []string{"text"}, driven.PurposeDocument)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
	assert.NotErrorIs(t, err, domain.ErrRateLimited)
}

func TestEmbed_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings": [{"values": [0.1]}]}`))
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Embed(context.Background(), []string{"first", "second"}, driven.PurposeDocument)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 1 embeddings for 2 inputs")
}

func TestTaskType(t *testing.T) {
	assert.Equal(t, taskRetrievalDocument, taskType(driven.PurposeDocument))
	assert.Equal(t, taskRetrievalQuery, taskType(driven.PurposeQuery))
	assert.Equal(t, taskRetrievalDocument, taskType(""))
}

func TestPing_FetchesModelMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/text-embedding-004", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		w.Write([]byte(`{"name": "models/text-embedding-004"}`))
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	defer svc.Close()

	require.NoError(t, svc.Ping(context.Background()))
}
