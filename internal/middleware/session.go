package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"contentnav/internal/httputil"
	"contentnav/internal/service/navigation"

	"github.com/gorilla/sessions"
)

const (
	sessionName         = "contentnav_session"
	sessionWorkspaceKey = "workspace_id"

	// WorkspaceHeader names the workspace for clients that do not keep cookies.
	WorkspaceHeader = "X-Workspace-ID"
)

// WorkspaceRegistry looks up live workspaces.
type WorkspaceRegistry interface {
	Get(id, userID string) (*navigation.Workspace, error)
}

// NewSessionStore creates the cookie store that remembers each browser's
// workspace id.
func NewSessionStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(86400) // 1 day; idle workspaces expire much sooner
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

// WorkspaceSessions binds workspaces to browser sessions.
type WorkspaceSessions struct {
	store    sessions.Store
	registry WorkspaceRegistry
	logger   *slog.Logger
}

func NewWorkspaceSessions(store sessions.Store, registry WorkspaceRegistry, logger *slog.Logger) *WorkspaceSessions {
	return &WorkspaceSessions{
		store:    store,
		registry: registry,
		logger:   logger,
	}
}

// Middleware attaches the caller's workspace, when it has a live one, to the
// request context. It must run after AuthMiddleware.
func (s *WorkspaceSessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := s.workspaceID(r); id != "" {
			ws, err := s.registry.Get(id, httputil.GetUserID(r))
			if err != nil {
				s.logger.Debug("session workspace unavailable", "workspace_id", id, "error", err)
			} else {
				r = httputil.WithWorkspace(r, ws)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *WorkspaceSessions) workspaceID(r *http.Request) string {
	if id := r.Header.Get(WorkspaceHeader); id != "" {
		return id
	}
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		// Undecodable cookies (e.g. after a secret rotation) start over
		s.logger.Debug("ignoring invalid session cookie", "error", err)
		return ""
	}
	id, _ := sess.Values[sessionWorkspaceKey].(string)
	return id
}

// Bind stores workspace id in the caller's session cookie.
func (s *WorkspaceSessions) Bind(w http.ResponseWriter, r *http.Request, id string) error {
	sess, _ := s.store.Get(r, sessionName)
	sess.Values[sessionWorkspaceKey] = id
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Unbind forgets the workspace of the caller's session.
func (s *WorkspaceSessions) Unbind(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.store.Get(r, sessionName)
	delete(sess.Values, sessionWorkspaceKey)
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
