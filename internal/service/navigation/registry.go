package navigation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"contentnav/internal/domain"
	"contentnav/internal/route"
)

// Registry tracks the live workspaces of the process by id.
type Registry struct {
	mu          sync.Mutex
	workspaces  map[string]*Workspace
	deps        Dependencies
	config      WorkspaceConfig
	idleTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// NewRegistry creates an empty registry. Workspaces untouched for longer
// than idleTimeout are ended by Expire; zero disables expiry.
func NewRegistry(deps Dependencies, config WorkspaceConfig, idleTimeout time.Duration) *Registry {
	return &Registry{
		workspaces:  make(map[string]*Workspace),
		deps:        deps,
		config:      config,
		idleTimeout: idleTimeout,
		now:         time.Now,
		logger:      deps.Logger,
	}
}

// Start creates a workspace for userID whose initial state is derived from
// the client's URL path.
func (r *Registry) Start(userID, path string) *Workspace {
	w := NewWorkspace(userID, route.Resolve(path), r.deps, r.config)

	r.mu.Lock()
	r.workspaces[w.ID] = w
	r.mu.Unlock()

	return w
}

// Get returns the workspace id owned by userID and marks it as used.
func (r *Registry) Get(id, userID string) (*Workspace, error) {
	r.mu.Lock()
	w, ok := r.workspaces[id]
	r.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("workspace %s: %w", id, domain.ErrNotFound)
	}
	if w.UserID != userID {
		return nil, fmt.Errorf("workspace %s belongs to another user: %w", id, domain.ErrForbidden)
	}
	w.touch(r.now())
	return w, nil
}

// End closes and forgets workspace id.
func (r *Registry) End(id string) error {
	r.mu.Lock()
	w, ok := r.workspaces[id]
	delete(r.workspaces, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("workspace %s: %w", id, domain.ErrNotFound)
	}
	w.Close()
	return nil
}

// Expire ends every workspace idle for longer than the idle timeout and
// returns how many were ended.
func (r *Registry) Expire() int {
	if r.idleTimeout <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTimeout)

	var expired []*Workspace
	r.mu.Lock()
	for id, w := range r.workspaces {
		if w.idleSince().Before(cutoff) {
			expired = append(expired, w)
			delete(r.workspaces, id)
		}
	}
	r.mu.Unlock()

	for _, w := range expired {
		w.Close()
		r.logger.Info("workspace expired", "workspace_id", w.ID, "user_id", w.UserID)
	}
	return len(expired)
}

// Run expires idle workspaces until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	if r.idleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(r.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Expire()
		}
	}
}

// ResetCaches drops the cache of every workspace, e.g. after the backing
// content changed outside of this process.
func (r *Registry) ResetCaches() {
	r.mu.Lock()
	live := make([]*Workspace, 0, len(r.workspaces))
	for _, w := range r.workspaces {
		live = append(live, w)
	}
	r.mu.Unlock()

	for _, w := range live {
		w.Cache().Reset()
	}
	r.logger.Info("workspace caches reset", "workspaces", len(live))
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Close ends every workspace.
func (r *Registry) Close() {
	r.mu.Lock()
	live := r.workspaces
	r.workspaces = make(map[string]*Workspace)
	r.mu.Unlock()

	for _, w := range live {
		w.Close()
	}
}
