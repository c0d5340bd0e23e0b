package httputil

import (
	"context"
	"net/http"

	"contentnav/internal/service/navigation"
)

// Context key type to avoid collisions
type contextKey string

const (
	userIDKey    contextKey = "userID"
	workspaceKey contextKey = "workspace"
)

// WithUserID adds userID to the request context
func WithUserID(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	return r.WithContext(ctx)
}

// GetUserID retrieves userID from context, returns empty string if not found
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

// WithWorkspace adds the caller's workspace to the request context
func WithWorkspace(r *http.Request, ws *navigation.Workspace) *http.Request {
	ctx := context.WithValue(r.Context(), workspaceKey, ws)
	return r.WithContext(ctx)
}

// GetWorkspace retrieves the workspace from context, returns nil if the
// caller has none
func GetWorkspace(r *http.Request) *navigation.Workspace {
	ws, _ := r.Context().Value(workspaceKey).(*navigation.Workspace)
	return ws
}
