package fixture

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"contentnav/internal/domain"
	"contentnav/internal/domain/models/content"
	contentRepo "contentnav/internal/domain/repositories/content"
)

type folderRecord struct {
	id          string
	parentID    string
	name        string
	personalFor string
	children    []string
	documents   []content.ContentItem
	views       []content.ContentItem
}

// Repository implements the content Repository interface over an in-memory
// copy of a fixture tree.
type Repository struct {
	mu      sync.RWMutex
	folders map[string]*folderRecord
	order   []string // every folder id, depth-first in fixture order
	logger  *slog.Logger
}

var _ contentRepo.Repository = (*Repository)(nil)

// NewRepository creates a repository holding a copy of tree.
func NewRepository(tree *Tree, logger *slog.Logger) *Repository {
	r := &Repository{logger: logger}
	r.replace(tree)
	return r
}

// replace swaps the repository contents for tree.
func (r *Repository) replace(tree *Tree) {
	folders := make(map[string]*folderRecord)
	var order []string

	_ = tree.Walk(func(f *Folder, parentID string) error {
		rec := &folderRecord{
			id:          f.ID,
			parentID:    parentID,
			name:        f.Name,
			personalFor: f.PersonalFor,
		}
		for _, d := range f.Documents {
			rec.documents = append(rec.documents, content.ContentItem{ID: d.ID, Kind: content.KindDocument, Title: d.Title})
		}
		for _, v := range f.Views {
			rec.views = append(rec.views, content.ContentItem{ID: v.ID, Kind: content.KindView, Title: v.Title})
		}
		folders[f.ID] = rec
		order = append(order, f.ID)
		if parent, ok := folders[parentID]; ok {
			parent.children = append(parent.children, f.ID)
		}
		return nil
	})

	r.mu.Lock()
	r.folders = folders
	r.order = order
	r.mu.Unlock()
}

func (r *Repository) node(rec *folderRecord) content.FolderNode {
	return content.FolderNode{ID: rec.id, Name: rec.name, ChildCount: len(rec.children)}
}

func (r *Repository) lookup(id string) (*folderRecord, error) {
	rec, ok := r.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	return rec, nil
}

// Folder retrieves folder metadata by ID
func (r *Repository) Folder(ctx context.Context, id string) (*content.FolderNode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	node := r.node(rec)
	return &node, nil
}

// PersonalFolder retrieves the personal folder owned by userID
func (r *Repository) PersonalFolder(ctx context.Context, userID string) (*content.FolderNode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		rec := r.folders[id]
		if rec.personalFor == userID {
			node := r.node(rec)
			return &node, nil
		}
	}
	return nil, fmt.Errorf("personal folder for user %s: %w", userID, domain.ErrNotFound)
}

// FolderChildren lists immediate child folders
func (r *Repository) FolderChildren(ctx context.Context, id string) ([]content.FolderNode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	children := make([]content.FolderNode, 0, len(rec.children))
	for _, childID := range rec.children {
		children = append(children, r.node(r.folders[childID]))
	}
	return children, nil
}

// FolderDocuments lists documents directly inside a folder
func (r *Repository) FolderDocuments(ctx context.Context, id string) ([]content.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return append([]content.ContentItem{}, rec.documents...), nil
}

// FolderViews lists views directly inside a folder
func (r *Repository) FolderViews(ctx context.Context, id string) ([]content.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return append([]content.ContentItem{}, rec.views...), nil
}

// SearchFolders finds folders whose name contains the query, case-insensitively
func (r *Repository) SearchFolders(ctx context.Context, query string) ([]content.FolderNode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	results := []content.FolderNode{}
	for _, id := range r.order {
		rec := r.folders[id]
		if strings.Contains(strings.ToLower(rec.name), q) {
			results = append(results, r.node(rec))
		}
	}
	return results, nil
}

// SearchContent finds documents and views whose title contains the query
func (r *Repository) SearchContent(ctx context.Context, query string) ([]content.ContentHit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	results := []content.ContentHit{}
	for _, id := range r.order {
		rec := r.folders[id]
		for _, items := range [][]content.ContentItem{rec.documents, rec.views} {
			for _, item := range items {
				if strings.Contains(strings.ToLower(item.Title), q) {
					results = append(results, content.ContentHit{
						ID:         item.ID,
						Kind:       item.Kind,
						Title:      item.Title,
						FolderID:   rec.id,
						FolderName: rec.name,
					})
				}
			}
		}
	}
	return results, nil
}

// MoveDocument moves a document into the destination folder
func (r *Repository) MoveDocument(ctx context.Context, id, destinationFolderID string) error {
	return r.move(content.KindDocument, id, destinationFolderID)
}

// MoveView moves a view into the destination folder
func (r *Repository) MoveView(ctx context.Context, id, destinationFolderID string) error {
	return r.move(content.KindView, id, destinationFolderID)
}

func (r *Repository) move(kind content.ContentKind, id, destinationFolderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dest, err := r.lookup(destinationFolderID)
	if err != nil {
		return fmt.Errorf("destination %w", err)
	}

	list := func(rec *folderRecord) *[]content.ContentItem {
		if kind == content.KindView {
			return &rec.views
		}
		return &rec.documents
	}

	for _, folderID := range r.order {
		src := r.folders[folderID]
		items := list(src)
		for i, item := range *items {
			if item.ID != id {
				continue
			}
			if src.id == dest.id {
				return nil
			}
			*items = append((*items)[:i:i], (*items)[i+1:]...)
			destItems := list(dest)
			*destItems = append(*destItems, item)
			r.logger.Info("content moved",
				"kind", kind,
				"id", id,
				"from", src.id,
				"to", dest.id,
			)
			return nil
		}
	}

	return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
}
