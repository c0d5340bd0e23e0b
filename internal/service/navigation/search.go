package navigation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"contentnav/internal/debounce"
	"contentnav/internal/domain/models/content"

	"golang.org/x/sync/errgroup"
)

// OverlayConfig configures a search overlay.
type OverlayConfig struct {
	// Debounce is the quiet interval before typed text is committed.
	Debounce time.Duration
	// IncludeContent also searches documents and views.
	IncludeContent bool
	// AfterFunc overrides the debounce scheduler (tests).
	AfterFunc debounce.AfterFunc
	// OnChange is called after every state change.
	OnChange func()
}

// SearchState is a snapshot of an overlay.
type SearchState struct {
	Raw       string               `json:"raw"`
	Debounced string               `json:"debounced"`
	Loading   bool                 `json:"loading"`
	NoResults bool                 `json:"no_results"`
	Failed    bool                 `json:"failed"`
	Folders   []content.FolderNode `json:"folders,omitempty"`
	Content   []content.ContentHit `json:"content,omitempty"`
}

// Active reports whether the overlay replaces the regular tree.
func (s SearchState) Active() bool {
	return s.Debounced != ""
}

// Overlay turns keystrokes into debounced, cached searches. Results of a
// superseded query never replace those of a newer one.
type Overlay struct {
	mu             sync.Mutex
	ctx            context.Context
	fetcher        *Fetcher
	debouncer      *debounce.Debouncer
	includeContent bool
	onChange       func()
	logger         *slog.Logger

	raw       string
	debounced string
	loading   bool
	failed    bool
	folders   []content.FolderNode
	hits      []content.ContentHit
	queryGen  uint64
	resets    uint64
	closed    bool
	inflight  sync.WaitGroup
}

// NewOverlay creates an overlay whose queries live as long as ctx.
func NewOverlay(ctx context.Context, fetcher *Fetcher, config OverlayConfig, logger *slog.Logger) *Overlay {
	afterFunc := config.AfterFunc
	if afterFunc == nil {
		afterFunc = debounce.StdAfterFunc
	}
	onChange := config.OnChange
	if onChange == nil {
		onChange = func() {}
	}
	return &Overlay{
		ctx:            ctx,
		fetcher:        fetcher,
		debouncer:      debounce.NewWithAfterFunc(config.Debounce, afterFunc),
		includeContent: config.IncludeContent,
		onChange:       onChange,
		logger:         logger,
	}
}

// Type records raw input immediately and schedules its commit.
// Input typed after Close is ignored.
func (o *Overlay) Type(raw string) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.raw = raw
	resets := o.resets
	o.mu.Unlock()
	o.onChange()

	o.debouncer.Trigger(func() { o.commit(resets, raw) })
}

// Reset cancels any pending commit and clears all state. A commit whose
// timer already fired is dropped too.
func (o *Overlay) Reset() {
	o.debouncer.Cancel()

	o.mu.Lock()
	o.resetLocked()
	o.mu.Unlock()
	o.onChange()
}

// Close cancels any pending commit and rejects later input. Queries already
// running finish against the overlay's context; cancel it, then Wait.
func (o *Overlay) Close() {
	o.debouncer.Cancel()

	o.mu.Lock()
	o.closed = true
	o.resetLocked()
	o.mu.Unlock()
}

func (o *Overlay) resetLocked() {
	o.raw = ""
	o.debounced = ""
	o.resets++
	o.queryGen++
	o.clearLocked()
}

func (o *Overlay) clearLocked() {
	o.loading = false
	o.failed = false
	o.folders = nil
	o.hits = nil
}

func (o *Overlay) commit(resets uint64, query string) {
	o.mu.Lock()
	if o.closed || resets != o.resets {
		o.mu.Unlock()
		o.logger.Debug("dropping search commit after reset", "query", query)
		return
	}
	o.debounced = query
	o.queryGen++
	gen := o.queryGen
	o.clearLocked()
	if query == "" {
		o.mu.Unlock()
		o.onChange()
		return
	}
	o.loading = true
	o.inflight.Add(1)
	o.mu.Unlock()
	o.onChange()

	go func() {
		defer o.inflight.Done()
		o.run(gen, query)
	}()
}

func (o *Overlay) run(gen uint64, query string) {
	var (
		folders []content.FolderNode
		hits    []content.ContentHit
	)

	g, gctx := errgroup.WithContext(o.ctx)
	g.Go(func() (err error) {
		folders, err = o.fetcher.SearchFolders(gctx, query)
		return err
	})
	if o.includeContent {
		g.Go(func() (err error) {
			hits, err = o.fetcher.SearchContent(gctx, query)
			return err
		})
	}
	err := g.Wait()

	o.mu.Lock()
	if gen != o.queryGen {
		o.mu.Unlock()
		o.logger.Debug("discarding stale search results", "query", query)
		return
	}
	o.loading = false
	if err != nil {
		o.failed = true
		o.mu.Unlock()
		o.logger.Error("search failed", "query", query, "error", err)
		o.onChange()
		return
	}
	o.folders = folders
	o.hits = hits
	o.mu.Unlock()
	o.onChange()
}

// Wait blocks until every started query has finished.
func (o *Overlay) Wait() {
	o.inflight.Wait()
}

// Snapshot returns the current state.
func (o *Overlay) Snapshot() SearchState {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := SearchState{
		Raw:       o.raw,
		Debounced: o.debounced,
		Loading:   o.loading,
		Failed:    o.failed,
		Folders:   append([]content.FolderNode(nil), o.folders...),
		Content:   append([]content.ContentHit(nil), o.hits...),
	}
	s.NoResults = s.Debounced != "" && !s.Loading && !s.Failed && len(s.Folders) == 0 && len(s.Content) == 0
	return s
}

// SearchView is the rendered result list: every folder hit as a collapsed
// tree root followed by every content hit as a row.
type SearchView struct {
	State   SearchState  `json:"state"`
	Message string       `json:"message,omitempty"`
	Roots   []*Node      `json:"roots,omitempty"`
	Rows    []ContentRow `json:"rows,omitempty"`
}

// Render resolves the current results through loader. noResultsMessage is
// shown when a committed query matched nothing.
func (o *Overlay) Render(ctx context.Context, loader *Loader, noResultsMessage string) SearchView {
	state := o.Snapshot()
	view := SearchView{State: state}

	switch {
	case !state.Active(), state.Loading, state.Failed:
		return view
	case state.NoResults:
		view.Message = noResultsMessage
		return view
	}

	view.Roots = make([]*Node, len(state.Folders))
	g := new(errgroup.Group)
	g.SetLimit(loader.config.ChildConcurrency)
	for i, f := range state.Folders {
		g.Go(func() error {
			view.Roots[i] = loader.Resolve(ctx, FolderRef{ID: f.ID, Name: f.Name})
			return nil
		})
	}
	_ = g.Wait()

	view.Rows = loader.ContentRows(state.Content)
	return view
}
