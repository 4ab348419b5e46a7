// Package api exposes the vault, document, chat, and agent operations
// over HTTP REST.
//
// Endpoints:
//
//	GET    /health                     liveness probe
//	GET    /ready                      readiness probe (database ping)
//	POST   /vaults                     create vault
//	GET    /vaults                     list vaults
//	GET    /vaults/{vaultID}           get vault
//	DELETE /vaults/{vaultID}           delete vault and its documents
//	POST   /ingest                     ingest a document
//	GET    /documents                  list documents, ?vaultId= filters
//	DELETE /documents/{documentID}     delete a document
//	POST   /chat                       one conversational turn
//	POST   /agents                     create agent
//	GET    /agents                     list agents, ?vaultId= filters
//	GET    /agents/{agentID}           get agent
//	DELETE /agents/{agentID}           delete agent
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ragvault/ragvault/internal/log"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads to resist slow-client abuse.
	ReadHeaderTimeout = 10 * time.Second

	ReadTimeout  = 30 * time.Second
	WriteTimeout = 120 * time.Second
	IdleTimeout  = 120 * time.Second
)

// Deps carries the application components the server routes to.
type Deps struct {
	Pool        *pgxpool.Pool
	Vaults      VaultService
	VaultLookup VaultChecker
	Documents   DocumentService
	Chat        ChatService
	Agents      AgentService
	Defaults    ChatDefaults
	Logger      log.Logger
}

// Server is the HTTP server for the REST API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
}

// NewServer creates a server with all routes registered.
func NewServer(deps Deps) *Server {
	mux := http.NewServeMux()

	NewHealthHandler(deps.Pool, deps.Logger).RegisterRoutes(mux)
	NewVaultHandler(deps.Vaults, deps.Logger).RegisterRoutes(mux)
	NewDocumentHandler(deps.Documents, deps.VaultLookup, deps.Logger).RegisterRoutes(mux)
	NewChatHandler(deps.Chat, deps.Defaults, deps.Logger).RegisterRoutes(mux)
	NewAgentHandler(deps.Agents, deps.Logger).RegisterRoutes(mux)

	return &Server{mux: mux, logger: deps.Logger}
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger))
}

// Run starts the server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
