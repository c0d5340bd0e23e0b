package navigation

import (
	"context"

	"contentnav/internal/cache"
	"contentnav/internal/domain/models/content"
	contentRepo "contentnav/internal/domain/repositories/content"
)

// Fetcher routes every repository read through the workspace cache so that
// identical requests issued from different parts of the UI share one fetch.
type Fetcher struct {
	repo  contentRepo.Repository
	cache *cache.Cache
}

// NewFetcher creates a cached view of repo.
func NewFetcher(repo contentRepo.Repository, c *cache.Cache) *Fetcher {
	return &Fetcher{repo: repo, cache: c}
}

// Cache returns the underlying cache.
func (f *Fetcher) Cache() *cache.Cache {
	return f.cache
}

// Repository returns the underlying repository.
func (f *Fetcher) Repository() contentRepo.Repository {
	return f.repo
}

// Folder returns the metadata of folder id.
func (f *Fetcher) Folder(ctx context.Context, id string) (*content.FolderNode, error) {
	return cache.Get(ctx, f.cache, cache.FolderKey(id), func(ctx context.Context) (*content.FolderNode, error) {
		return f.repo.Folder(ctx, id)
	})
}

// PersonalFolder returns the personal folder of userID.
func (f *Fetcher) PersonalFolder(ctx context.Context, userID string) (*content.FolderNode, error) {
	return cache.Get(ctx, f.cache, cache.PersonalFolderKey(userID), func(ctx context.Context) (*content.FolderNode, error) {
		return f.repo.PersonalFolder(ctx, userID)
	})
}

// FolderChildren returns the direct subfolders of folder id.
func (f *Fetcher) FolderChildren(ctx context.Context, id string) ([]content.FolderNode, error) {
	return cache.Get(ctx, f.cache, cache.FolderChildrenKey(id), func(ctx context.Context) ([]content.FolderNode, error) {
		return f.repo.FolderChildren(ctx, id)
	})
}

// FolderDocuments returns the documents filed in folder id.
func (f *Fetcher) FolderDocuments(ctx context.Context, id string) ([]content.ContentItem, error) {
	return cache.Get(ctx, f.cache, cache.FolderDocumentsKey(id), func(ctx context.Context) ([]content.ContentItem, error) {
		return f.repo.FolderDocuments(ctx, id)
	})
}

// FolderViews returns the views filed in folder id.
func (f *Fetcher) FolderViews(ctx context.Context, id string) ([]content.ContentItem, error) {
	return cache.Get(ctx, f.cache, cache.FolderViewsKey(id), func(ctx context.Context) ([]content.ContentItem, error) {
		return f.repo.FolderViews(ctx, id)
	})
}

// SearchFolders returns folders whose name contains query.
func (f *Fetcher) SearchFolders(ctx context.Context, query string) ([]content.FolderNode, error) {
	return cache.Get(ctx, f.cache, cache.SearchFoldersKey(query), func(ctx context.Context) ([]content.FolderNode, error) {
		return f.repo.SearchFolders(ctx, query)
	})
}

// SearchContent returns documents and views whose title contains query.
func (f *Fetcher) SearchContent(ctx context.Context, query string) ([]content.ContentHit, error) {
	return cache.Get(ctx, f.cache, cache.SearchContentKey(query), func(ctx context.Context) ([]content.ContentHit, error) {
		return f.repo.SearchContent(ctx, query)
	})
}

// listingKey returns the per-folder listing key for a content kind.
func listingKey(kind content.ContentKind, folderID string) cache.Key {
	if kind == content.KindView {
		return cache.FolderViewsKey(folderID)
	}
	return cache.FolderDocumentsKey(folderID)
}
