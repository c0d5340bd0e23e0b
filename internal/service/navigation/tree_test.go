package navigation

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"contentnav/internal/cache"
	"contentnav/internal/domain/models/content"
)

func TestResolve_LeafAndBranch(t *testing.T) {
	tests := []struct {
		name           string
		folderID       string
		wantKind       NodeKind
		wantCount      int
		wantExpandable bool
		wantChildren   int
	}{
		{
			name:           "empty folder is a leaf",
			folderID:       "4",
			wantKind:       NodeLeaf,
			wantCount:      0,
			wantExpandable: false,
		},
		{
			name:           "children are not counted",
			folderID:       "2",
			wantKind:       NodeBranch,
			wantCount:      3,
			wantExpandable: true,
			wantChildren:   1,
		},
		{
			name:           "content only",
			folderID:       "3",
			wantKind:       NodeBranch,
			wantCount:      2,
			wantExpandable: true,
		},
		{
			name:           "folders only",
			folderID:       "1",
			wantKind:       NodeBranch,
			wantCount:      0,
			wantExpandable: true,
			wantChildren:   3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := newTestLoader(t, salesTree())
			node := loader.Resolve(context.Background(), FolderRef{ID: tt.folderID})

			if node.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, node.Kind)
			}
			if node.ContentCount != tt.wantCount {
				t.Errorf("expected count %d, got %d", tt.wantCount, node.ContentCount)
			}
			if node.Expandable() != tt.wantExpandable {
				t.Errorf("expected expandable=%v", tt.wantExpandable)
			}
			if len(node.Children) != tt.wantChildren {
				t.Errorf("expected %d children, got %d", tt.wantChildren, len(node.Children))
			}
		})
	}
}

func TestResolve_FetchesNameOnlyWhenMissing(t *testing.T) {
	repo := salesTree()
	loader := newTestLoader(t, repo)

	node := loader.Resolve(context.Background(), FolderRef{ID: "2"})
	if node.Name != "Sales" {
		t.Errorf("expected fetched name Sales, got %q", node.Name)
	}
	if got := repo.callCount(cache.FolderKey("2")); got != 1 {
		t.Errorf("expected 1 metadata fetch, got %d", got)
	}

	node = loader.Resolve(context.Background(), FolderRef{ID: "3", Name: "Marketing (from parent)"})
	if node.Name != "Marketing (from parent)" {
		t.Errorf("expected supplied name, got %q", node.Name)
	}
	if got := repo.callCount(cache.FolderKey("3")); got != 0 {
		t.Errorf("expected no metadata fetch, got %d", got)
	}
}

func TestResolve_ConcurrentRendersShareFetches(t *testing.T) {
	repo := salesTree()
	loader := newTestLoader(t, repo)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loader.Resolve(context.Background(), FolderRef{ID: "1", DefaultOpen: true})
		}()
	}
	wg.Wait()

	keys := []cache.Key{
		cache.FolderKey("1"),
		cache.FolderChildrenKey("1"),
		cache.FolderDocumentsKey("1"),
		cache.FolderViewsKey("1"),
		cache.FolderChildrenKey("2"),
		cache.FolderDocumentsKey("2"),
		cache.FolderViewsKey("3"),
		cache.FolderChildrenKey("4"),
	}
	for _, key := range keys {
		if got := repo.callCount(key); got != 1 {
			t.Errorf("%s: expected 1 fetch, got %d", key, got)
		}
	}
}

func TestResolve_OpenBranchResolvesChildren(t *testing.T) {
	loader := newTestLoader(t, salesTree())

	node := loader.Resolve(context.Background(), FolderRef{ID: "1", DefaultOpen: true})
	if !node.DefaultOpen {
		t.Error("expected root to keep default_open")
	}

	wantKinds := []NodeKind{NodeBranch, NodeBranch, NodeLeaf}
	for i, child := range node.Children {
		if child.Kind != wantKinds[i] {
			t.Errorf("child %s: expected %s, got %s", child.ID, wantKinds[i], child.Kind)
		}
		if child.DefaultOpen {
			t.Errorf("child %s: expected collapsed", child.ID)
		}
	}

	// Grandchildren stay unresolved until expanded
	sales := node.Children[0]
	if len(sales.Children) != 1 || sales.Children[0].Kind != NodeUnresolved {
		t.Errorf("expected unresolved grandchild, got %+v", sales.Children)
	}
	if sales.Children[0].Name != "Sales Archive" {
		t.Errorf("expected grandchild name from listing, got %q", sales.Children[0].Name)
	}
}

func TestResolve_PreservesRepositoryOrder(t *testing.T) {
	repo := newMockRepository()
	repo.addFolder("", "1", "Root")
	repo.addFolder("1", "9", "Zulu")
	repo.addFolder("1", "3", "Alpha")
	repo.addDocument("1", "50", "Zebra report")
	repo.addDocument("1", "10", "Apple report")
	repo.addView("1", "2", "Yak view")
	repo.addView("1", "1", "Ant view")

	loader := newTestLoader(t, repo)
	node := loader.Resolve(context.Background(), FolderRef{ID: "1"})

	var childIDs []string
	for _, c := range node.Children {
		childIDs = append(childIDs, c.ID)
	}
	if want := []string{"9", "3"}; !reflect.DeepEqual(childIDs, want) {
		t.Errorf("expected children %v, got %v", want, childIDs)
	}

	if len(node.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(node.Groups))
	}
	docs, views := node.Groups[0], node.Groups[1]
	if docs.Kind != content.KindDocument || docs.Label != "Dashboards" || docs.DefaultOpen {
		t.Errorf("unexpected document group %+v", docs)
	}
	if views.Kind != content.KindView || views.Label != "Looks" || views.DefaultOpen {
		t.Errorf("unexpected view group %+v", views)
	}
	if docs.Rows[0].Item.ID != "50" || docs.Rows[1].Item.ID != "10" {
		t.Errorf("documents re-sorted: %+v", docs.Rows)
	}
	if views.Rows[0].Item.ID != "2" || views.Rows[1].Item.ID != "1" {
		t.Errorf("views re-sorted: %+v", views.Rows)
	}
}

func TestResolve_RowActions(t *testing.T) {
	loader := newTestLoader(t, salesTree())
	node := loader.Resolve(context.Background(), FolderRef{ID: "2"})

	row := node.Groups[0].Rows[0]
	if row.Select != (content.Selection{Kind: content.KindDocument, ID: "42"}) {
		t.Errorf("unexpected select action %+v", row.Select)
	}
	if row.Relocate == nil || *row.Relocate != (content.MoveTarget{ContentID: "42", Kind: content.KindDocument, Title: "Pipeline"}) {
		t.Errorf("unexpected relocate action %+v", row.Relocate)
	}
}

func TestResolve_FlattenRoundTrip(t *testing.T) {
	repo := newMockRepository()
	repo.addFolder("", "100", "Personal")
	repo.addFolder("100", "101", "A")
	repo.addFolder("100", "102", "B")
	repo.addDocument("101", "60", "My dashboard")
	repo.addView("102", "61", "My look")

	loader := newTestLoader(t, repo)
	ctx := context.Background()

	flat := loader.Resolve(ctx, FolderRef{ID: "100", Flatten: true})
	if flat.Kind != NodeFlattened {
		t.Fatalf("expected flattened, got %s", flat.Kind)
	}
	if len(flat.Groups) != 0 {
		t.Errorf("expected no content groups, got %d", len(flat.Groups))
	}

	want := []*Node{
		loader.Resolve(ctx, FolderRef{ID: "101", Name: "A"}),
		loader.Resolve(ctx, FolderRef{ID: "102", Name: "B"}),
	}
	if !reflect.DeepEqual(flat.Children, want) {
		t.Errorf("flattened children differ from their own renderings:\n got %+v\nwant %+v", flat.Children, want)
	}
}

func TestResolve_FlattenEmpty(t *testing.T) {
	repo := newMockRepository()
	repo.addFolder("", "100", "Personal")

	node := newTestLoader(t, repo).Resolve(context.Background(), FolderRef{ID: "100", Flatten: true})
	if node.Kind != NodeEmpty {
		t.Errorf("expected empty, got %s", node.Kind)
	}
}

func TestResolve_FailureIsLocal(t *testing.T) {
	repo := salesTree()
	repo.fail(cache.FolderDocumentsKey("2"), errors.New("repository unavailable"))

	loader := newTestLoader(t, repo)
	node := loader.Resolve(context.Background(), FolderRef{ID: "1", DefaultOpen: true})

	if node.Kind != NodeBranch {
		t.Fatalf("expected root branch, got %s", node.Kind)
	}
	if got := node.Children[0].Kind; got != NodeLoading {
		t.Errorf("expected failing folder to render loading, got %s", got)
	}
	if got := node.Children[1].Kind; got != NodeBranch {
		t.Errorf("expected sibling unaffected, got %s", got)
	}
	if got := node.Children[2].Kind; got != NodeLeaf {
		t.Errorf("expected sibling unaffected, got %s", got)
	}

	// Errors are not retried until the key is invalidated
	loader.Resolve(context.Background(), FolderRef{ID: "2"})
	if got := repo.callCount(cache.FolderDocumentsKey("2")); got != 1 {
		t.Errorf("expected failed fetch to stay cached, got %d calls", got)
	}
}

func TestResolve_SelfReferenceIsNotFollowed(t *testing.T) {
	repo := newMockRepository()
	repo.addFolder("", "10", "Loop")
	repo.addFolder("10", "10", "Loop")

	node := newTestLoader(t, repo).Resolve(context.Background(), FolderRef{ID: "10", Flatten: true})
	if len(node.Children) != 1 || node.Children[0].Kind != NodeUnresolved {
		t.Errorf("expected the self-referencing child to stay unresolved, got %+v", node.Children)
	}
}

func TestContentRows(t *testing.T) {
	loader := newTestLoader(t, salesTree())
	rows := loader.ContentRows([]content.ContentHit{
		{ID: "42", Kind: content.KindDocument, Title: "Pipeline", FolderID: "2", FolderName: "Sales"},
		{ID: "8", Kind: content.KindView, Title: "Campaign ROI", FolderID: "3", FolderName: "Marketing"},
	})

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1].Select != (content.Selection{Kind: content.KindView, ID: "8"}) {
		t.Errorf("unexpected select %+v", rows[1].Select)
	}
	if rows[1].Relocate == nil || rows[1].Relocate.Title != "Campaign ROI" {
		t.Errorf("expected relocate action, got %+v", rows[1].Relocate)
	}
}
