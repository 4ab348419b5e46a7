package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragvault/ragvault/internal/chat"
	"github.com/ragvault/ragvault/internal/log"
)

type mockChatService struct {
	lastReq chat.Request
	resp    *chat.Response
	err     error
}

func (m *mockChatService) Respond(_ context.Context, req chat.Request) (*chat.Response, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func newChatMux(svc ChatService) *http.ServeMux {
	mux := http.NewServeMux()
	NewChatHandler(svc, ChatDefaults{TopK: 5, Temperature: 0.3}, log.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestChat(t *testing.T) {
	svc := &mockChatService{resp: &chat.Response{
		SessionID: "s1",
		Answer:    "the answer",
		Sources:   []chat.Source{{DocumentID: "doc-1", Snippet: "context", Score: 0.9}},
	}}
	mux := newChatMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat",
		strings.NewReader(`{"sessionId":"s1","message":"what is it?","vaultId":"v1"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp chat.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, "the answer", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "doc-1", resp.Sources[0].DocumentID)

	// Defaults applied when no config block is sent.
	assert.Equal(t, 5, svc.lastReq.TopK)
	assert.InDelta(t, 0.3, svc.lastReq.Temperature, 0.001)
	assert.Equal(t, "v1", svc.lastReq.VaultID)
}

func TestChat_ConfigOverrides(t *testing.T) {
	svc := &mockChatService{resp: &chat.Response{SessionID: "s1", Answer: "ok"}}
	mux := newChatMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat",
		strings.NewReader(`{"sessionId":"s1","message":"q","config":{"topK":2,"temperature":0.9}}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, svc.lastReq.TopK)
	assert.InDelta(t, 0.9, svc.lastReq.Temperature, 0.001)
}

func TestChat_ZeroTemperatureOverride(t *testing.T) {
	svc := &mockChatService{resp: &chat.Response{SessionID: "s1", Answer: "ok"}}
	mux := newChatMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat",
		strings.NewReader(`{"sessionId":"s1","message":"q","config":{"temperature":0}}`)))

	// An explicit zero is an override, not an absent value.
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.0, svc.lastReq.Temperature, 0.001)
}

func TestChat_ConfigOutOfRange(t *testing.T) {
	for name, body := range map[string]string{
		"topK too large":       `{"sessionId":"s1","message":"q","config":{"topK":100000}}`,
		"topK negative":        `{"sessionId":"s1","message":"q","config":{"topK":-3}}`,
		"temperature too high": `{"sessionId":"s1","message":"q","config":{"temperature":99}}`,
		"temperature negative": `{"sessionId":"s1","message":"q","config":{"temperature":-0.1}}`,
	} {
		t.Run(name, func(t *testing.T) {
			svc := &mockChatService{resp: &chat.Response{SessionID: "s1", Answer: "ok"}}
			mux := newChatMux(svc)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat",
				strings.NewReader(body)))

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var errBody ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
			assert.Equal(t, "invalid_config", errBody.Error)
			// The orchestrator never sees the rejected request.
			assert.Empty(t, svc.lastReq.Message)
		})
	}
}

func TestChat_ConfigBoundaryValuesAccepted(t *testing.T) {
	svc := &mockChatService{resp: &chat.Response{SessionID: "s1", Answer: "ok"}}
	mux := newChatMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat",
		strings.NewReader(`{"sessionId":"s1","message":"q","config":{"topK":20,"temperature":2}}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, svc.lastReq.TopK)
	assert.InDelta(t, 2.0, svc.lastReq.Temperature, 0.001)
}

func TestChat_MissingFields(t *testing.T) {
	mux := newChatMux(&mockChatService{})

	for name, body := range map[string]string{
		"no session": `{"message":"q"}`,
		"no message": `{"sessionId":"s1"}`,
		"bad json":   `{oops`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat",
				strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestChat_ProviderFailureIsBadGateway(t *testing.T) {
	svc := &mockChatService{err: &chat.GenerationError{
		SessionID: "s1",
		Err: &chat.ProviderError{
			Operation: "generate",
			Attempts:  3,
			Err:       errors.New("status 503"),
		},
	}}
	mux := newChatMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat",
		strings.NewReader(`{"sessionId":"s1","message":"q"}`)))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "provider_unavailable", body.Error)
	assert.NotContains(t, rec.Body.String(), "503")
}

func TestChat_GenerationFailure(t *testing.T) {
	svc := &mockChatService{err: &chat.GenerationError{SessionID: "s1", Err: assert.AnError}}
	mux := newChatMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat",
		strings.NewReader(`{"sessionId":"s1","message":"q"}`)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "generation_failed", body.Error)
}
