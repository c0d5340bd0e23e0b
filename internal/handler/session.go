package handler

import (
	"log/slog"
	"net/http"

	"contentnav/internal/config"
	"contentnav/internal/httputil"
	"contentnav/internal/middleware"
	"contentnav/internal/service/navigation"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// StartSessionRequest starts a workspace from the client's current URL path.
type StartSessionRequest struct {
	Path string `json:"path"`
}

// Validate implements validation.Validatable
func (r StartSessionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Length(0, config.MaxPathLength)),
	)
}

// SessionHandler starts, inspects and ends workspaces
type SessionHandler struct {
	registry *navigation.Registry
	sessions *middleware.WorkspaceSessions
	logger   *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(registry *navigation.Registry, sessions *middleware.WorkspaceSessions, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		registry: registry,
		sessions: sessions,
		logger:   logger,
	}
}

// Start handles POST /api/session
// A caller that already has a workspace gets it replaced, as on a page load.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}

	if old := httputil.GetWorkspace(r); old != nil {
		if err := h.registry.End(old.ID); err != nil {
			h.logger.Debug("previous workspace already ended", "workspace_id", old.ID, "error", err)
		}
	}

	ws := h.registry.Start(httputil.GetUserID(r), req.Path)
	if err := h.sessions.Bind(w, r, ws.ID); err != nil {
		h.logger.Error("failed to bind workspace to session", "workspace_id", ws.ID, "error", err)
		h.registry.End(ws.ID)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, ws.Snapshot())
}

// Get handles GET /api/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ws, ok := requireWorkspace(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, ws.Snapshot())
}

// End handles DELETE /api/session
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	ws, ok := requireWorkspace(w, r)
	if !ok {
		return
	}
	if err := h.registry.End(ws.ID); err != nil {
		handleError(w, err)
		return
	}
	if err := h.sessions.Unbind(w, r); err != nil {
		h.logger.Warn("failed to clear session cookie", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}
