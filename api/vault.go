package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ragvault/ragvault/internal/log"
	"github.com/ragvault/ragvault/internal/vault"
)

// MaxVaultNameLength bounds vault names at creation.
const MaxVaultNameLength = 200

// VaultService is the slice of the vault registry the handler needs.
type VaultService interface {
	Create(ctx context.Context, name, description string) (*vault.Vault, error)
	Get(ctx context.Context, vaultID string) (*vault.Vault, error)
	List(ctx context.Context) ([]*vault.Vault, error)
	CountDocuments(ctx context.Context, vaultID string) (int, error)
	Delete(ctx context.Context, vaultID string) error
}

// VaultHandler serves vault CRUD endpoints.
type VaultHandler struct {
	vaults VaultService
	logger log.Logger
}

func NewVaultHandler(vaults VaultService, logger log.Logger) *VaultHandler {
	return &VaultHandler{vaults: vaults, logger: logger}
}

func (h *VaultHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /vaults", h.create)
	mux.HandleFunc("GET /vaults", h.list)
	mux.HandleFunc("GET /vaults/{vaultID}", h.get)
	mux.HandleFunc("DELETE /vaults/{vaultID}", h.delete)
}

// CreateVaultRequest is the request body for creating a vault.
type CreateVaultRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// VaultResponse is a vault plus its current document count.
type VaultResponse struct {
	*vault.Vault
	DocumentCount int `json:"documentCount"`
}

func (h *VaultHandler) vaultResponse(ctx context.Context, v *vault.Vault) (*VaultResponse, error) {
	count, err := h.vaults.CountDocuments(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	return &VaultResponse{Vault: v, DocumentCount: count}, nil
}

func (h *VaultHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateVaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing_name", "vault name is required")
		return
	}
	if len(req.Name) > MaxVaultNameLength {
		writeError(w, http.StatusBadRequest, "name_too_long", "vault name exceeds 200 characters")
		return
	}

	v, err := h.vaults.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	resp, err := h.vaultResponse(r.Context(), v)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *VaultHandler) list(w http.ResponseWriter, r *http.Request) {
	vaults, err := h.vaults.List(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	out := make([]*VaultResponse, 0, len(vaults))
	for _, v := range vaults {
		resp, err := h.vaultResponse(r.Context(), v)
		if err != nil {
			writeDomainError(w, h.logger, err)
			return
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *VaultHandler) get(w http.ResponseWriter, r *http.Request) {
	v, err := h.vaults.Get(r.Context(), r.PathValue("vaultID"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	resp, err := h.vaultResponse(r.Context(), v)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *VaultHandler) delete(w http.ResponseWriter, r *http.Request) {
	vaultID := r.PathValue("vaultID")

	// Count before the cascade removes the rows.
	count, err := h.vaults.CountDocuments(r.Context(), vaultID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if err := h.vaults.Delete(r.Context(), vaultID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"vaultId":       vaultID,
		"status":        "deleted",
		"documentCount": count,
	})
}
