package navigation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"contentnav/internal/cache"
	"contentnav/internal/capabilities"
	"contentnav/internal/debounce"
	"contentnav/internal/domain/models/content"
	contentRepo "contentnav/internal/domain/repositories/content"
	"contentnav/internal/notifier"
	"contentnav/internal/route"
	"contentnav/internal/service/viewer"

	"github.com/google/uuid"
)

// WorkspaceConfig tunes every workspace a registry starts.
type WorkspaceConfig struct {
	HostURL              string
	NavSearchDebounce    time.Duration
	MoveSearchDebounce   time.Duration
	CacheErrorTTL        time.Duration
	ViewerConnectTimeout time.Duration
	Loader               LoaderConfig

	// AfterFunc overrides the debounce scheduler of both overlays (tests).
	AfterFunc debounce.AfterFunc
}

// Dependencies are the process-wide collaborators shared by all workspaces.
type Dependencies struct {
	Repository    contentRepo.Repository
	Capabilities  *capabilities.Registry
	ViewerFactory viewer.Factory
	Logger        *slog.Logger
}

// Workspace is the state of one navigator UI session: its cache, tree
// loader, search overlays, relocate dialog and viewer session.
type Workspace struct {
	ID        string
	UserID    string
	Initial   route.Initial
	CreatedAt time.Time

	cache    *cache.Cache
	fetcher  *Fetcher
	loader   *Loader
	search   *Overlay
	relocate *Relocator
	viewer   *viewer.Session
	caps     *capabilities.Registry
	changes  *notifier.Notifier
	cancel   context.CancelFunc
	logger   *slog.Logger

	mu       sync.Mutex
	lastSeen time.Time
	closed   bool
}

// WorkspaceSnapshot is the session-level state rendered by the client.
type WorkspaceSnapshot struct {
	ID       string          `json:"id"`
	UserID   string          `json:"user_id"`
	Initial  route.Initial   `json:"initial"`
	Viewer   viewer.Snapshot `json:"viewer"`
	Search   SearchState     `json:"search"`
	Relocate RelocateState   `json:"relocate"`
	Kinds    []KindSummary   `json:"kinds"`
}

// KindSummary tells the client how to label and route a content kind.
type KindSummary struct {
	Kind         content.ContentKind `json:"kind"`
	Label        string              `json:"label"`
	RouteSegment string              `json:"route_segment"`
}

// NewWorkspace creates a workspace for userID starting from initial. When
// initial carries a selection the viewer starts loading it immediately.
func NewWorkspace(userID string, initial route.Initial, deps Dependencies, config WorkspaceConfig) *Workspace {
	id := uuid.NewString()
	logger := deps.Logger.With("workspace_id", id, "user_id", userID)
	ctx, cancel := context.WithCancel(context.Background())

	w := &Workspace{
		ID:        id,
		UserID:    userID,
		Initial:   initial,
		CreatedAt: time.Now(),
		caps:      deps.Capabilities,
		changes:   notifier.New(),
		cancel:    cancel,
		logger:    logger,
		lastSeen:  time.Now(),
	}

	w.cache = cache.New(cache.Config{ErrorTTL: config.CacheErrorTTL}, logger)
	w.fetcher = NewFetcher(deps.Repository, w.cache)
	w.loader = NewLoader(w.fetcher, deps.Capabilities, config.Loader, logger)
	w.search = NewOverlay(ctx, w.fetcher, OverlayConfig{
		Debounce:       config.NavSearchDebounce,
		IncludeContent: true,
		AfterFunc:      config.AfterFunc,
		OnChange:       w.changes.Broadcast,
	}, logger.With("overlay", "navigation"))
	w.relocate = NewRelocator(ctx, w.fetcher, OverlayConfig{
		Debounce:  config.MoveSearchDebounce,
		AfterFunc: config.AfterFunc,
		OnChange:  w.changes.Broadcast,
	}, logger.With("overlay", "relocate"))

	messages := deps.Capabilities.Messages()
	w.viewer = viewer.NewSession(ctx, deps.ViewerFactory, deps.Capabilities, viewer.SessionConfig{
		HostURL:          config.HostURL,
		Region:           id,
		ConnectTimeout:   config.ViewerConnectTimeout,
		IdleMessage:      messages.Idle,
		LoadErrorMessage: messages.LoadError,
		OnChange:         w.changes.Broadcast,
	}, logger)

	go w.forwardCacheChanges(ctx)

	if initial.Selection != nil {
		w.viewer.Select(*initial.Selection)
	}

	logger.Info("workspace started",
		"shared_folder_id", initial.SharedFolderID,
		"selection", initial.Selection,
	)
	return w
}

func (w *Workspace) forwardCacheChanges(ctx context.Context) {
	ch := w.cache.Subscribe()
	defer w.cache.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			w.changes.Broadcast()
		}
	}
}

// PersonalTree renders the caller's personal folder flattened.
func (w *Workspace) PersonalTree(ctx context.Context) *Node {
	folder, err := w.fetcher.PersonalFolder(ctx, w.UserID)
	if err != nil {
		w.logger.Warn("personal folder not ready", "error", err)
		return &Node{Kind: NodeLoading, ID: content.PersonalFolderID}
	}
	return w.loader.Resolve(ctx, FolderRef{ID: folder.ID, Name: folder.Name, Flatten: true})
}

// SharedTree renders the shared folder named by the initial route, expanded.
func (w *Workspace) SharedTree(ctx context.Context) *Node {
	return w.loader.Resolve(ctx, FolderRef{ID: w.Initial.SharedFolderID, DefaultOpen: true})
}

// FolderTree renders any folder, typically one the client just expanded.
func (w *Workspace) FolderTree(ctx context.Context, ref FolderRef) *Node {
	if ref.ID == content.PersonalFolderID {
		return w.PersonalTree(ctx)
	}
	return w.loader.Resolve(ctx, ref)
}

// RefreshFolder drops every cached listing of folder id.
func (w *Workspace) RefreshFolder(id string) {
	w.cache.InvalidateFolder(id)
	w.logger.Info("folder refreshed", "folder_id", id)
}

// Search feeds navigation search input.
func (w *Workspace) Search(text string) {
	w.search.Type(text)
}

// SearchView renders the navigation overlay.
func (w *Workspace) SearchView(ctx context.Context) SearchView {
	return w.search.Render(ctx, w.loader, w.caps.Messages().NoResults)
}

// Select changes the content shown in the viewer.
func (w *Workspace) Select(sel content.Selection) viewer.Snapshot {
	return w.viewer.Select(sel)
}

// Viewer returns the viewer session.
func (w *Workspace) Viewer() *viewer.Session {
	return w.viewer
}

// Relocator returns the relocate dialog.
func (w *Workspace) Relocator() *Relocator {
	return w.relocate
}

// Cache returns the workspace fetch cache.
func (w *Workspace) Cache() *cache.Cache {
	return w.cache
}

// Snapshot returns the session-level state.
func (w *Workspace) Snapshot() WorkspaceSnapshot {
	kinds := w.caps.Kinds()
	summaries := make([]KindSummary, 0, len(kinds))
	for _, k := range kinds {
		summaries = append(summaries, KindSummary{Kind: k.Kind, Label: k.Label, RouteSegment: k.RouteSegment})
	}
	return WorkspaceSnapshot{
		ID:       w.ID,
		UserID:   w.UserID,
		Initial:  w.Initial,
		Viewer:   w.viewer.Snapshot(),
		Search:   w.search.Snapshot(),
		Relocate: w.relocate.Snapshot(),
		Kinds:    summaries,
	}
}

// Subscribe returns a channel pinged whenever anything the client renders
// may have changed. Release it with Unsubscribe.
func (w *Workspace) Subscribe() chan struct{} {
	return w.changes.Subscribe()
}

// Unsubscribe releases a channel returned by Subscribe.
func (w *Workspace) Unsubscribe(ch chan struct{}) {
	w.changes.Unsubscribe(ch)
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// Close stops pending and in-flight searches, tears down the viewer and
// ends every subscription.
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.search.Close()
	w.relocate.Overlay().Close()
	w.viewer.Close()
	w.cancel()
	w.search.Wait()
	w.relocate.Overlay().Wait()
	w.changes.Close()
	w.logger.Info("workspace closed")
}
