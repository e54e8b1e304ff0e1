package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gentaxai/gentax/internal/chat"
	"github.com/gentaxai/gentax/internal/log"
)

// ChatService runs one chat exchange.
type ChatService interface {
	Ask(ctx context.Context, in chat.Input) (chat.Output, error)
}

// ChatHandler handles the chat endpoint.
type ChatHandler struct {
	service ChatService
	logger  log.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(service ChatService, logger log.Logger) *ChatHandler {
	return &ChatHandler{service: service, logger: logger}
}

// RegisterRoutes registers the chat route on the mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.handleChat)
}

// chatRequest is the chat request body. TopK is loosely typed: clients
// send it as a number or a numeric string, both are accepted.
type chatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
	TopK      any    `json:"top_k,omitempty"`
}

// chatResponse is the successful chat response body. Citations are
// omitted when no knowledge was injected.
type chatResponse struct {
	Answer    string          `json:"answer"`
	SessionID string          `json:"session_id"`
	Citations []chat.Citation `json:"citations,omitempty"`
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	// An undecodable body carries no question, so it gets the same
	// response as an explicitly empty one.
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Empty question")
		return
	}

	topK, topKSet := chat.CoerceTopK(req.TopK)
	out, err := h.service.Ask(r.Context(), chat.Input{
		Question:  req.Question,
		SessionID: req.SessionID,
		TopK:      topK,
		TopKSet:   topKSet,
	})
	if err != nil {
		h.writeAskError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Answer:    out.Answer,
		SessionID: out.SessionID,
		Citations: out.Citations,
	})
}

// writeAskError maps chat service errors to HTTP responses. Completion
// failures surface their wrapped message so callers can see the upstream
// cause; anything unexpected gets a generic 500.
func (h *ChatHandler) writeAskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyQuestion):
		writeDetail(w, http.StatusBadRequest, "Empty question")
	case errors.Is(err, chat.ErrCompletion):
		writeDetail(w, http.StatusInternalServerError, err.Error())
	default:
		h.logger.Error("chat request failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal server error")
	}
}
