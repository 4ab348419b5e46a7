package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ragvault/ragvault/internal/agent"
	"github.com/ragvault/ragvault/internal/chat"
	"github.com/ragvault/ragvault/internal/document"
	"github.com/ragvault/ragvault/internal/log"
	"github.com/ragvault/ragvault/internal/session"
	"github.com/ragvault/ragvault/internal/vault"
)

// writeJSON writes a JSON response with the given status code.
// Encoding failures after WriteHeader cannot reach the client, so the
// error is discarded.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// ErrorResponse is the JSON error body: a stable machine-readable code
// plus human-readable detail.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// writeDomainError maps domain errors onto HTTP statuses. Provider and
// storage internals are logged but not leaked to clients.
func writeDomainError(w http.ResponseWriter, logger log.Logger, err error) {
	switch {
	case errors.Is(err, vault.ErrNotFound):
		writeError(w, http.StatusNotFound, "vault_not_found", "no vault with that id")
	case errors.Is(err, vault.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "vault_exists", "a vault with that name already exists")
	case errors.Is(err, document.ErrNotFound):
		writeError(w, http.StatusNotFound, "document_not_found", "no document with that id")
	case errors.Is(err, agent.ErrNotFound):
		writeError(w, http.StatusNotFound, "agent_not_found", "no agent with that id")
	case errors.Is(err, session.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "invalid_role", "message role must be user, assistant, or system")
	default:
		var provErr *chat.ProviderError
		if errors.As(err, &provErr) {
			logger.Error("provider failure", "operation", provErr.Operation,
				"attempts", provErr.Attempts, "error", provErr)
			writeError(w, http.StatusBadGateway, "provider_unavailable",
				"the model provider did not respond")
			return
		}
		var ingErr *document.IngestError
		if errors.As(err, &ingErr) {
			logger.Error("ingestion failure", "document_id", ingErr.DocumentID, "error", ingErr)
			writeError(w, http.StatusInternalServerError, "ingest_failed",
				"the document could not be indexed")
			return
		}
		var genErr *chat.GenerationError
		if errors.As(err, &genErr) {
			logger.Error("chat turn failure", "session_id", genErr.SessionID, "error", genErr)
			writeError(w, http.StatusInternalServerError, "generation_failed",
				"the response could not be generated")
			return
		}
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
