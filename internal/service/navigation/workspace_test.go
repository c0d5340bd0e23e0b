package navigation

import (
	"context"
	"errors"
	"testing"
	"time"

	"contentnav/internal/cache"
	"contentnav/internal/debounce"
	"contentnav/internal/domain"
	"contentnav/internal/domain/models/content"
	"contentnav/internal/service/viewer"
)

func newTestRegistry(t *testing.T, repo *mockRepository, clock *debounce.ManualClock, idle time.Duration) *Registry {
	t.Helper()
	caps := testCapabilities(t)
	return NewRegistry(Dependencies{
		Repository:    repo,
		Capabilities:  caps,
		ViewerFactory: viewer.NewBridgeFactory(caps, caps.Events()),
		Logger:        testLogger(),
	}, WorkspaceConfig{
		HostURL:            "https://looker.example.com",
		NavSearchDebounce:  navDebounce,
		MoveSearchDebounce: moveDebounce,
		AfterFunc:          clock.AfterFunc,
	}, idle)
}

func TestRegistry_StartFromDashboardRoute(t *testing.T) {
	r := newTestRegistry(t, salesTree(), debounce.NewManualClock(), 0)
	defer r.Close()

	w := r.Start("dev-user", "/dashboards/42")

	if w.Initial.SharedFolderID != content.SharedRootID {
		t.Errorf("expected default shared folder, got %q", w.Initial.SharedFolderID)
	}
	want := content.Selection{Kind: content.KindDocument, ID: "42"}
	if w.Initial.Selection == nil || *w.Initial.Selection != want {
		t.Fatalf("expected initial selection %+v, got %+v", want, w.Initial.Selection)
	}

	snap := w.Viewer().Snapshot()
	if snap.State != viewer.StateLoading {
		t.Errorf("expected viewer loading, got %s", snap.State)
	}
	if snap.Selection == nil || *snap.Selection != want {
		t.Errorf("expected viewer selection %+v, got %+v", want, snap.Selection)
	}
}

func TestRegistry_GetChecksOwnership(t *testing.T) {
	r := newTestRegistry(t, salesTree(), debounce.NewManualClock(), 0)
	defer r.Close()

	w := r.Start("alice", "/")

	if _, err := r.Get(w.ID, "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Get(w.ID, "bob"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
	if _, err := r.Get("missing", "alice"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	if err := r.End(w.ID); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, err := r.Get(w.ID, "alice"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ended workspace to be gone, got %v", err)
	}
	if err := r.End(w.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found ending twice, got %v", err)
	}
}

func TestRegistry_ExpireIdle(t *testing.T) {
	r := newTestRegistry(t, salesTree(), debounce.NewManualClock(), time.Minute)
	defer r.Close()

	now := time.Now()
	r.now = func() time.Time { return now }

	stale := r.Start("alice", "/")
	fresh := r.Start("bob", "/")
	stale.touch(now.Add(-2 * time.Minute))
	fresh.touch(now)

	if got := r.Expire(); got != 1 {
		t.Fatalf("expected 1 expired workspace, got %d", got)
	}
	if _, err := r.Get(stale.ID, "alice"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected stale workspace gone, got %v", err)
	}
	if _, err := r.Get(fresh.ID, "bob"); err != nil {
		t.Errorf("expected fresh workspace kept, got %v", err)
	}
}

func TestRegistry_ResetCaches(t *testing.T) {
	repo := salesTree()
	r := newTestRegistry(t, repo, debounce.NewManualClock(), 0)
	defer r.Close()

	w := r.Start("alice", "/")
	w.SharedTree(context.Background())
	if w.Cache().Len() == 0 {
		t.Fatal("expected cached entries")
	}

	r.ResetCaches()
	if got := w.Cache().Len(); got != 0 {
		t.Errorf("expected empty cache, got %d entries", got)
	}
}

func TestWorkspace_Trees(t *testing.T) {
	repo := salesTree()
	repo.addFolder("", "100", "Dev Personal")
	repo.addFolder("100", "101", "Drafts")
	repo.addDocument("101", "60", "Scratch")
	repo.personal["dev-user"] = "100"

	r := newTestRegistry(t, repo, debounce.NewManualClock(), 0)
	defer r.Close()
	w := r.Start("dev-user", "/folders/2")

	shared := w.SharedTree(context.Background())
	if shared.ID != "2" || shared.Kind != NodeBranch || !shared.DefaultOpen {
		t.Errorf("expected open Sales branch from route, got %+v", shared)
	}

	personal := w.PersonalTree(context.Background())
	if personal.Kind != NodeFlattened || personal.ID != "100" {
		t.Errorf("expected flattened personal folder, got %+v", personal)
	}
	if len(personal.Children) != 1 || personal.Children[0].Name != "Drafts" {
		t.Errorf("unexpected personal children %+v", personal.Children)
	}

	viaSentinel := w.FolderTree(context.Background(), FolderRef{ID: content.PersonalFolderID})
	if viaSentinel.ID != "100" {
		t.Errorf("expected sentinel to resolve to folder 100, got %s", viaSentinel.ID)
	}
	if got := repo.callCount(cache.PersonalFolderKey("dev-user")); got != 1 {
		t.Errorf("expected personal folder to be fetched once, got %d", got)
	}
}

func TestWorkspace_PersonalFolderMissingRendersLoading(t *testing.T) {
	r := newTestRegistry(t, salesTree(), debounce.NewManualClock(), 0)
	defer r.Close()
	w := r.Start("nobody", "/")

	node := w.PersonalTree(context.Background())
	if node.Kind != NodeLoading {
		t.Errorf("expected loading, got %s", node.Kind)
	}
}

func TestWorkspace_RefreshFolder(t *testing.T) {
	repo := salesTree()
	r := newTestRegistry(t, repo, debounce.NewManualClock(), 0)
	defer r.Close()
	w := r.Start("alice", "/")

	w.FolderTree(context.Background(), FolderRef{ID: "3"})
	w.RefreshFolder("3")
	w.FolderTree(context.Background(), FolderRef{ID: "3"})

	for _, key := range []cache.Key{cache.FolderKey("3"), cache.FolderViewsKey("3")} {
		if got := repo.callCount(key); got != 2 {
			t.Errorf("%s: expected refetch after refresh, got %d", key, got)
		}
	}
}

func TestWorkspace_SubscribePingsOnSearch(t *testing.T) {
	clock := debounce.NewManualClock()
	r := newTestRegistry(t, salesTree(), clock, 0)
	defer r.Close()
	w := r.Start("alice", "/")

	ch := w.Subscribe()
	defer w.Unsubscribe(ch)

	w.Search("sales")
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected change ping after typing")
	}

	clock.Advance(navDebounce)
	view := w.SearchView(context.Background())
	if !view.State.Active() {
		t.Errorf("expected active search, got %+v", view.State)
	}
}

func TestRegistry_EndStopsPendingSearch(t *testing.T) {
	repo := salesTree()
	clock := debounce.NewManualClock()
	r := newTestRegistry(t, repo, clock, 0)
	defer r.Close()

	w := r.Start("dev-user", "/")
	w.Search("sales")
	if err := w.Relocator().Open(content.MoveTarget{ContentID: "42", Kind: content.KindDocument, Title: "Revenue"}); err != nil {
		t.Fatalf("open relocate: %v", err)
	}
	if err := w.Relocator().Search("sales"); err != nil {
		t.Fatalf("relocate search: %v", err)
	}

	if err := r.End(w.ID); err != nil {
		t.Fatalf("end: %v", err)
	}
	if got := clock.Scheduled(); got != 0 {
		t.Errorf("expected no live timers after End, got %d", got)
	}

	clock.Advance(moveDebounce + navDebounce)
	w.search.Wait()
	w.relocate.Overlay().Wait()

	if got := repo.callCount(cache.SearchFoldersKey("sales")); got != 0 {
		t.Errorf("expected no search after End, got %d", got)
	}
	if got := w.Snapshot().Search; got.Debounced != "" || got.Failed {
		t.Errorf("expected idle search after End, got %+v", got)
	}
}

func TestWorkspace_CloseEndsSubscriptions(t *testing.T) {
	r := newTestRegistry(t, salesTree(), debounce.NewManualClock(), 0)
	defer r.Close()

	w := r.Start("dev-user", "/")
	ch := w.Subscribe()
	defer w.Unsubscribe(ch)

	if err := r.End(w.ID); err != nil {
		t.Fatalf("end: %v", err)
	}

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription still open after End")
		}
	}
}
