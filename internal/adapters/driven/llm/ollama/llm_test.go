package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescout-labs/rescout/internal/core/ports/driven"
)

// drain reads a stream to completion, returning the concatenated text
// and the terminal error, if any.
func drain(ch <-chan driven.StreamChunk) (string, error) {
	var sb strings.Builder
	for chunk := range ch {
		if chunk.Err != nil {
			return sb.String(), chunk.Err
		}
		sb.WriteString(chunk.Delta)
	}
	return sb.String(), nil
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc := NewLLMService(LLMConfig{})
	defer svc.Close()

	assert.Equal(t, DefaultLLMModel, svc.ModelName())
}

func TestComplete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 1)

		w.Write([]byte(`{"message": {"role": "assistant", "content": "The answer."}, "done": true}`))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})
	defer svc.Close()

	result, err := svc.Complete(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "The answer.", result)
}

func TestComplete_PassesOptions(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"message": {"role": "assistant", "content": "ok"}, "done": true}`))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})
	defer svc.Close()

	_, err := svc.Complete(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}},
		driven.ChatOptions{MaxTokens: 50, Temperature: 0.7})
	require.NoError(t, err)

	require.NotNil(t, captured.Options)
	assert.Equal(t, 50, captured.Options.NumPredict)
	assert.InDelta(t, 0.7, captured.Options.Temperature, 1e-9)
}

func TestComplete_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "model \"missing\" not found"}`))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL, Model: "missing"})
	defer svc.Close()

	_, err := svc.Complete(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestStream_DeliversLineDelimitedChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Write([]byte(`{"message": {"role": "assistant", "content": "Hel"}, "done": false}` + "\n"))
		w.Write([]byte(`{"message": {"role": "assistant", "content": "lo"}, "done": false}` + "\n"))
		w.Write([]byte(`{"message": {"role": "assistant", "content": ""}, "done": true}` + "\n"))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})
	defer svc.Close()

	ch, err := svc.Stream(context.Background(), []driven.ChatMessage{{Role: "user", Content: "greet"}}, driven.ChatOptions{})
	require.NoError(t, err)

	text, err := drain(ch)
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
}

func TestStream_MidStreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Write([]byte(`{"message": {"role": "assistant", "content": "part"}, "done": false}` + "\n"))
		w.Write([]byte(`{"error": "unexpected EOF from model"}` + "\n"))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})
	defer svc.Close()

	ch, err := svc.Stream(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{})
	require.NoError(t, err)

	text, err := drain(ch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected EOF")
	assert.Equal(t, "part", text)
}

func TestStream_EndsOnBodyClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Write([]byte(`{"message": {"role": "assistant", "content": "only"}, "done": false}` + "\n"))
		// Body ends without a done marker; the stream closes cleanly.
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})
	defer svc.Close()

	ch, err := svc.Stream(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{})
	require.NoError(t, err)

	text, err := drain(ch)
	require.NoError(t, err)
	assert.Equal(t, "only", text)
}

func TestPing_ChecksTags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models": []}`))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})
	defer svc.Close()

	require.NoError(t, svc.Ping(context.Background()))
}
