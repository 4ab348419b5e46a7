package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ragvault/ragvault/internal/log"
)

func newTestServer() *Server {
	return NewServer(Deps{
		Vaults:    newMockVaultService(),
		Documents: newMockDocumentService(),
		Chat:      &mockChatService{},
		Agents:    newMockAgentService(),
		Defaults:  ChatDefaults{TopK: 5, Temperature: 0.3},
		Logger:    log.NewNop(),
	})
}

func TestServer_RoutesRegistered(t *testing.T) {
	s := newTestServer()
	h := s.Handler()

	// Liveness works without a database pool.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Readiness degrades without a pool instead of panicking.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// Unknown paths are 404.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Wrong method on a registered path is 405.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/vaults", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_GracefulShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	s := newTestServer()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, addr)
	}()

	// Wait for the server to accept connections.
	url := fmt.Sprintf("http://%s/health", addr)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}

	// Idle keep-alive connections from the probe client would trip goleak.
	http.DefaultClient.CloseIdleConnections()
}
