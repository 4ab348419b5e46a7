package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ragvault/ragvault/internal/chat"
	"github.com/ragvault/ragvault/internal/log"
)

// MaxMessageLength bounds a single chat message.
const MaxMessageLength = 32000

// Bounds for per-request config overrides.
const (
	MaxTopK        = 20
	MaxTemperature = 2.0
)

// ChatService answers one conversational turn.
type ChatService interface {
	Respond(ctx context.Context, req chat.Request) (*chat.Response, error)
}

// ChatDefaults supplies per-request defaults from configuration.
type ChatDefaults struct {
	TopK        int
	Temperature float32
}

// ChatHandler serves POST /chat.
type ChatHandler struct {
	chat     ChatService
	defaults ChatDefaults
	logger   log.Logger
}

func NewChatHandler(service ChatService, defaults ChatDefaults, logger log.Logger) *ChatHandler {
	return &ChatHandler{chat: service, defaults: defaults, logger: logger}
}

func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /chat", h.respond)
}

// ChatRequest is the request body for POST /chat.
type ChatRequest struct {
	SessionID string      `json:"sessionId"`
	UserID    string      `json:"userId,omitempty"`
	Message   string      `json:"message"`
	VaultID   string      `json:"vaultId,omitempty"`
	Config    *ChatConfig `json:"config,omitempty"`
}

// ChatConfig optionally overrides retrieval and generation settings for
// one turn.
type ChatConfig struct {
	TopK        int      `json:"topK,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
}

func (h *ChatHandler) respond(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "missing_session_id", "sessionId is required")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "missing_message", "message is required")
		return
	}
	if len(req.Message) > MaxMessageLength {
		writeError(w, http.StatusBadRequest, "message_too_long", "message exceeds 32000 bytes")
		return
	}

	topK := h.defaults.TopK
	temperature := h.defaults.Temperature
	if req.Config != nil {
		if req.Config.TopK != 0 {
			if req.Config.TopK < 1 || req.Config.TopK > MaxTopK {
				writeError(w, http.StatusBadRequest, "invalid_config", "topK must be between 1 and 20")
				return
			}
			topK = req.Config.TopK
		}
		if req.Config.Temperature != nil {
			if *req.Config.Temperature < 0 || *req.Config.Temperature > MaxTemperature {
				writeError(w, http.StatusBadRequest, "invalid_config", "temperature must be between 0 and 2")
				return
			}
			temperature = *req.Config.Temperature
		}
	}

	resp, err := h.chat.Respond(r.Context(), chat.Request{
		SessionID:   req.SessionID,
		UserID:      req.UserID,
		Message:     req.Message,
		VaultID:     req.VaultID,
		TopK:        topK,
		Temperature: temperature,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
