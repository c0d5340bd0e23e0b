package navigation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"contentnav/internal/cache"
	"contentnav/internal/capabilities"
	"contentnav/internal/domain"
	"contentnav/internal/domain/models/content"
)

// mockRepository is an in-memory Repository that counts calls per
// operation and parameter.
type mockRepository struct {
	mu            sync.Mutex
	folders       map[string]content.FolderNode
	personal      map[string]string
	children      map[string][]content.FolderNode
	documents     map[string][]content.ContentItem
	views         map[string][]content.ContentItem
	searchFolders map[string][]content.FolderNode
	searchContent map[string][]content.ContentHit
	failing       map[cache.Key]error
	moveErr       error
	calls         map[cache.Key]int
	moves         []content.MoveRequest

	// gate, when set, blocks searches and moves until closed
	gate chan struct{}
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		folders:       make(map[string]content.FolderNode),
		personal:      make(map[string]string),
		children:      make(map[string][]content.FolderNode),
		documents:     make(map[string][]content.ContentItem),
		views:         make(map[string][]content.ContentItem),
		searchFolders: make(map[string][]content.FolderNode),
		searchContent: make(map[string][]content.ContentHit),
		failing:       make(map[cache.Key]error),
		calls:         make(map[cache.Key]int),
	}
}

func (m *mockRepository) addFolder(parentID, id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	node := content.FolderNode{ID: id, Name: name}
	m.folders[id] = node
	if parentID != "" {
		m.children[parentID] = append(m.children[parentID], node)
	}
}

func (m *mockRepository) addDocument(folderID, id, title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[folderID] = append(m.documents[folderID], content.ContentItem{ID: id, Kind: content.KindDocument, Title: title})
}

func (m *mockRepository) addView(folderID, id, title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views[folderID] = append(m.views[folderID], content.ContentItem{ID: id, Kind: content.KindView, Title: title})
}

func (m *mockRepository) fail(key cache.Key, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[key] = err
}

func (m *mockRepository) setMoveErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moveErr = err
}

func (m *mockRepository) callCount(key cache.Key) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[key]
}

func (m *mockRepository) record(key cache.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[key]++
	return m.failing[key]
}

func (m *mockRepository) wait(ctx context.Context) error {
	m.mu.Lock()
	gate := m.gate
	m.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *mockRepository) Folder(ctx context.Context, id string) (*content.FolderNode, error) {
	if err := m.record(cache.FolderKey(id)); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	return &f, nil
}

func (m *mockRepository) PersonalFolder(ctx context.Context, userID string) (*content.FolderNode, error) {
	if err := m.record(cache.PersonalFolderKey(userID)); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.folders[m.personal[userID]]
	if !ok {
		return nil, fmt.Errorf("personal folder for %s: %w", userID, domain.ErrNotFound)
	}
	return &f, nil
}

func (m *mockRepository) FolderChildren(ctx context.Context, id string) ([]content.FolderNode, error) {
	if err := m.record(cache.FolderChildrenKey(id)); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]content.FolderNode(nil), m.children[id]...), nil
}

func (m *mockRepository) FolderDocuments(ctx context.Context, id string) ([]content.ContentItem, error) {
	if err := m.record(cache.FolderDocumentsKey(id)); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]content.ContentItem(nil), m.documents[id]...), nil
}

func (m *mockRepository) FolderViews(ctx context.Context, id string) ([]content.ContentItem, error) {
	if err := m.record(cache.FolderViewsKey(id)); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]content.ContentItem(nil), m.views[id]...), nil
}

func (m *mockRepository) SearchFolders(ctx context.Context, query string) ([]content.FolderNode, error) {
	if err := m.record(cache.SearchFoldersKey(query)); err != nil {
		return nil, err
	}
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searchFolders[query], nil
}

func (m *mockRepository) SearchContent(ctx context.Context, query string) ([]content.ContentHit, error) {
	if err := m.record(cache.SearchContentKey(query)); err != nil {
		return nil, err
	}
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searchContent[query], nil
}

func (m *mockRepository) move(ctx context.Context, kind content.ContentKind, id, dest string) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.moveErr != nil {
		return m.moveErr
	}
	m.moves = append(m.moves, content.MoveRequest{ContentID: id, Kind: kind, DestinationFolderID: dest})
	return nil
}

func (m *mockRepository) MoveDocument(ctx context.Context, id, dest string) error {
	return m.move(ctx, content.KindDocument, id, dest)
}

func (m *mockRepository) MoveView(ctx context.Context, id, dest string) error {
	return m.move(ctx, content.KindView, id, dest)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCapabilities(t *testing.T) *capabilities.Registry {
	t.Helper()
	reg, err := capabilities.NewRegistry()
	if err != nil {
		t.Fatalf("failed to load capabilities: %v", err)
	}
	return reg
}

func newTestFetcher(repo *mockRepository) *Fetcher {
	return NewFetcher(repo, cache.New(cache.Config{}, testLogger()))
}

func newTestLoader(t *testing.T, repo *mockRepository) *Loader {
	t.Helper()
	return NewLoader(newTestFetcher(repo), testCapabilities(t), LoaderConfig{MaxDepth: 16}, testLogger())
}

// salesTree builds:
//
//	1 Shared
//	├── 2 Sales (docs 42, 43; view 7; child 5)
//	│   └── 5 Sales Archive (doc 44)
//	├── 3 Marketing (views 8, 9)
//	└── 4 Empty Team
func salesTree() *mockRepository {
	m := newMockRepository()
	m.addFolder("", "1", "Shared")
	m.addFolder("1", "2", "Sales")
	m.addFolder("1", "3", "Marketing")
	m.addFolder("1", "4", "Empty Team")
	m.addFolder("2", "5", "Sales Archive")
	m.addDocument("2", "42", "Pipeline")
	m.addDocument("2", "43", "Quota Attainment")
	m.addView("2", "7", "Open Deals")
	m.addDocument("5", "44", "FY24 Pipeline")
	m.addView("3", "8", "Campaign ROI")
	m.addView("3", "9", "Leads by Source")
	return m
}
