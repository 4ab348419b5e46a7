package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		BaseURL:       srv.URL,
		EmbedModel:    "nomic-embed-text",
		GenerateModel: "llama3.2",
		Temperature:   0.3,
	})
}

func TestEmbed(t *testing.T) {
	var gotBody embedRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/embed", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float32{{0.1, 0.2, 0.3}},
		})
	})

	vec, err := c.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, "nomic-embed-text", gotBody.Model)
	assert.Equal(t, "hello world", gotBody.Input)
}

func TestEmbed_EmptyResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{})
	})

	_, err := c.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty embeddings")
}

func TestEmbed_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestGenerate(t *testing.T) {
	var gotBody chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(chatResponse{
			Message: message{Role: "assistant", Content: "the answer"},
		})
	})

	out, err := c.Generate(context.Background(), "a question", -1)
	require.NoError(t, err)
	assert.Equal(t, "the answer", out)
	assert.Equal(t, "llama3.2", gotBody.Model)
	assert.False(t, gotBody.Stream)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "user", gotBody.Messages[0].Role)
	assert.Equal(t, "a question", gotBody.Messages[0].Content)
	// Negative temperature falls back to the configured default.
	assert.InDelta(t, 0.3, gotBody.Options["temperature"], 0.001)
}

func TestGenerate_TemperatureOverride(t *testing.T) {
	var gotBody chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(chatResponse{
			Message: message{Role: "assistant", Content: "ok"},
		})
	})

	_, err := c.Generate(context.Background(), "q", 0.9)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, gotBody.Options["temperature"], 0.001)
}

func TestGenerate_EmptyContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{})
	})

	_, err := c.Generate(context.Background(), "q", -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestIsRunning(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.True(t, c.IsRunning(context.Background()))

	down := New(Config{BaseURL: "http://127.0.0.1:1"})
	assert.False(t, down.IsRunning(context.Background()))
}
