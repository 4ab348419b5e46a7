package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ragvault/ragvault/internal/agent"
	"github.com/ragvault/ragvault/internal/log"
)

// AgentService is the slice of the agent store the handler needs.
type AgentService interface {
	Create(ctx context.Context, name, vaultID, systemPrompt string) (*agent.Agent, error)
	Get(ctx context.Context, agentID string) (*agent.Agent, error)
	List(ctx context.Context, vaultID string) ([]agent.Agent, error)
	Delete(ctx context.Context, agentID string) error
}

// AgentHandler serves agent CRUD endpoints.
type AgentHandler struct {
	agents AgentService
	logger log.Logger
}

func NewAgentHandler(agents AgentService, logger log.Logger) *AgentHandler {
	return &AgentHandler{agents: agents, logger: logger}
}

func (h *AgentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /agents", h.create)
	mux.HandleFunc("GET /agents", h.list)
	mux.HandleFunc("GET /agents/{agentID}", h.get)
	mux.HandleFunc("DELETE /agents/{agentID}", h.delete)
}

// CreateAgentRequest is the request body for creating an agent.
type CreateAgentRequest struct {
	Name         string `json:"name"`
	VaultID      string `json:"vaultId,omitempty"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
}

func (h *AgentHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing_name", "agent name is required")
		return
	}

	a, err := h.agents.Create(r.Context(), req.Name, req.VaultID, req.SystemPrompt)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AgentHandler) list(w http.ResponseWriter, r *http.Request) {
	agents, err := h.agents.List(r.Context(), r.URL.Query().Get("vaultId"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if agents == nil {
		agents = []agent.Agent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agents": agents,
		"total":  len(agents),
	})
}

func (h *AgentHandler) get(w http.ResponseWriter, r *http.Request) {
	a, err := h.agents.Get(r.Context(), r.PathValue("agentID"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AgentHandler) delete(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("agentID")
	if err := h.agents.Delete(r.Context(), agentID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"agentId": agentID,
		"status":  "deleted",
	})
}
