package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/gentaxai/gentax/internal/log"
)

// SessionHandler handles session creation. Generating an id is pure: the
// session itself is materialized lazily on the first chat exchange that
// references it.
type SessionHandler struct {
	logger log.Logger
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(logger log.Logger) *SessionHandler {
	return &SessionHandler{logger: logger}
}

// RegisterRoutes registers the session route on the mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/new-session", h.handleNewSession)
}

type newSessionResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (h *SessionHandler) handleNewSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	h.logger.Debug("issued session id", "session_id", id)
	writeJSON(w, http.StatusOK, newSessionResponse{
		SessionID: id,
		Message:   "New session created",
	})
}
