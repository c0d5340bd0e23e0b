package handler

import (
	"net/http"

	"contentnav/internal/httputil"
)

// WorkspaceCounter reports how many workspaces are live.
type WorkspaceCounter interface {
	Len() int
}

// HealthHandler serves the liveness probe
type HealthHandler struct {
	workspaces WorkspaceCounter
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(workspaces WorkspaceCounter) *HealthHandler {
	return &HealthHandler{workspaces: workspaces}
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"workspaces": h.workspaces.Len(),
	})
}
