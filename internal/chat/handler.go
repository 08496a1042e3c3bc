// Package chat exposes the conversational assistant over HTTP.
package chat

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/maxai/calendar-assistant/internal/conversation"
	"github.com/maxai/calendar-assistant/pkg/logging"
)

// ChatRequest is one user turn.
type ChatRequest struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
}

// ChatResponse is the assistant's reply. Success is about the request
// shape, not the business outcome: "event not found" is still a
// successful turn.
type ChatResponse struct {
	Response string `json:"response"`
	Success  bool   `json:"success"`
}

// Handler handles HTTP requests for the chat endpoint.
type Handler struct {
	engine conversation.Service
	logger *logging.Logger
}

// NewHandler creates a new chat handler.
func NewHandler(engine conversation.Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

// HandleChat handles POST /api/chat requests.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode chat request", "error", err)
		writeJSON(w, http.StatusBadRequest, ChatResponse{
			Response: "Invalid request body.",
			Success:  false,
		})
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, ChatResponse{
			Response: "A message is required.",
			Success:  false,
		})
		return
	}
	if req.AccessToken == "" {
		writeJSON(w, http.StatusBadRequest, ChatResponse{
			Response: "An access_token is required.",
			Success:  false,
		})
		return
	}

	result, err := h.engine.HandleMessage(r.Context(), conversation.Request{
		Key:         conversation.KeyFor(req.UserID, req.AccessToken),
		Message:     req.Message,
		AccessToken: req.AccessToken,
	})
	if err != nil {
		h.logger.Error("chat turn failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, ChatResponse{
			Response: "Something went wrong on my end. Please try again.",
			Success:  false,
		})
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response: result.Message,
		Success:  true,
	})
}

// HealthCheck handles GET /health requests.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
