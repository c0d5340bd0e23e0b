package content

import (
	"context"

	"contentnav/internal/domain/models/content"
)

// Repository defines read and move operations against the content
// hierarchy. Every list is returned in repository order; callers must not
// re-sort.
type Repository interface {
	// Folder retrieves folder metadata by ID
	Folder(ctx context.Context, id string) (*content.FolderNode, error)

	// PersonalFolder retrieves the personal folder owned by userID
	PersonalFolder(ctx context.Context, userID string) (*content.FolderNode, error)

	// FolderChildren lists immediate child folders
	FolderChildren(ctx context.Context, id string) ([]content.FolderNode, error)

	// FolderDocuments lists documents directly inside a folder
	FolderDocuments(ctx context.Context, id string) ([]content.ContentItem, error)

	// FolderViews lists views directly inside a folder
	FolderViews(ctx context.Context, id string) ([]content.ContentItem, error)

	// SearchFolders finds folders whose name matches the query
	SearchFolders(ctx context.Context, query string) ([]content.FolderNode, error)

	// SearchContent finds documents and views whose title matches the query
	SearchContent(ctx context.Context, query string) ([]content.ContentHit, error)

	// MoveDocument moves a document into the destination folder
	MoveDocument(ctx context.Context, id, destinationFolderID string) error

	// MoveView moves a view into the destination folder
	MoveView(ctx context.Context, id, destinationFolderID string) error
}

// Move dispatches to MoveDocument or MoveView by kind.
func Move(ctx context.Context, repo Repository, kind content.ContentKind, id, destinationFolderID string) error {
	if kind == content.KindView {
		return repo.MoveView(ctx, id, destinationFolderID)
	}
	return repo.MoveDocument(ctx, id, destinationFolderID)
}
