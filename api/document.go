package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ragvault/ragvault/internal/document"
	"github.com/ragvault/ragvault/internal/log"
)

// DocumentService is the slice of the ingestion pipeline the handler needs.
type DocumentService interface {
	Ingest(ctx context.Context, req document.IngestRequest) (string, error)
	ListAll(ctx context.Context, vaultID string) ([]document.Info, error)
	Delete(ctx context.Context, documentID string) error
}

// VaultChecker verifies a vault exists before ingestion targets it.
type VaultChecker interface {
	ValidateExists(ctx context.Context, vaultID string) error
}

// DocumentHandler serves ingestion and document management endpoints.
type DocumentHandler struct {
	documents DocumentService
	vaults    VaultChecker
	logger    log.Logger
}

func NewDocumentHandler(documents DocumentService, vaults VaultChecker, logger log.Logger) *DocumentHandler {
	return &DocumentHandler{documents: documents, vaults: vaults, logger: logger}
}

func (h *DocumentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /ingest", h.ingest)
	mux.HandleFunc("GET /documents", h.list)
	mux.HandleFunc("DELETE /documents/{documentID}", h.delete)
}

// IngestRequest is the request body for POST /ingest.
type IngestRequest struct {
	Text     string            `json:"text"`
	Title    string            `json:"title,omitempty"`
	Source   string            `json:"source,omitempty"`
	VaultID  string            `json:"vaultId,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (h *DocumentHandler) ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "missing_text", "text is required")
		return
	}

	// Reject unknown vaults before any chunk is written.
	if req.VaultID != "" && h.vaults != nil {
		if err := h.vaults.ValidateExists(r.Context(), req.VaultID); err != nil {
			writeDomainError(w, h.logger, err)
			return
		}
	}

	documentID, err := h.documents.Ingest(r.Context(), document.IngestRequest{
		Text:     req.Text,
		Title:    req.Title,
		Source:   req.Source,
		VaultID:  req.VaultID,
		Metadata: req.Metadata,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"documentId": documentID,
		"status":     "indexed",
	})
}

func (h *DocumentHandler) list(w http.ResponseWriter, r *http.Request) {
	docs, err := h.documents.ListAll(r.Context(), r.URL.Query().Get("vaultId"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if docs == nil {
		docs = []document.Info{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"total":     len(docs),
	})
}

func (h *DocumentHandler) delete(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("documentID")
	if err := h.documents.Delete(r.Context(), documentID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"documentId": documentID,
		"status":     "deleted",
	})
}
