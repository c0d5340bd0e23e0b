package navigation

import (
	"context"
	"log/slog"
	"maps"

	"contentnav/internal/capabilities"
	"contentnav/internal/domain/models/content"

	"golang.org/x/sync/errgroup"
)

// NodeKind is the render state of a folder node.
type NodeKind string

const (
	// NodeUnresolved is a child folder under a collapsed branch. Its
	// listings are fetched when the client expands it.
	NodeUnresolved NodeKind = "unresolved"

	// NodeLoading means metadata or a listing is still pending or failed.
	NodeLoading NodeKind = "loading"

	// NodeLeaf is a folder with no child folders and no content.
	NodeLeaf NodeKind = "leaf"

	// NodeBranch is an expandable folder row.
	NodeBranch NodeKind = "branch"

	// NodeFlattened renders its children and content groups without an own row.
	NodeFlattened NodeKind = "flattened"

	// NodeEmpty is a flattened folder with nothing to show.
	NodeEmpty NodeKind = "empty"
)

// FolderRef asks the loader for one folder.
// Name is used as-is when set; otherwise folder metadata is fetched.
type FolderRef struct {
	ID          string
	Name        string
	DefaultOpen bool
	Flatten     bool
}

// Node is a rendered folder.
//
// Children come first, then one group per content kind with at least one
// item. Every list keeps repository order.
type Node struct {
	Kind         NodeKind        `json:"kind"`
	ID           string          `json:"id"`
	Name         string          `json:"name,omitempty"`
	DefaultOpen  bool            `json:"default_open"`
	ContentCount int             `json:"content_count"`
	Children     []*Node         `json:"children,omitempty"`
	Groups       []*ContentGroup `json:"groups,omitempty"`
}

// Expandable reports whether the node renders as a disclosure row.
func (n *Node) Expandable() bool {
	return n.Kind == NodeBranch
}

// ContentGroup is the collapsible list of one kind of content in a folder.
type ContentGroup struct {
	Kind        content.ContentKind `json:"kind"`
	Label       string              `json:"label"`
	DefaultOpen bool                `json:"default_open"`
	Rows        []ContentRow        `json:"rows"`
}

// ContentRow is one clickable content item.
type ContentRow struct {
	Item     content.ContentItem `json:"item"`
	Select   content.Selection   `json:"select"`
	Relocate *content.MoveTarget `json:"relocate,omitempty"`
}

// KindCatalog supplies per-kind labels and actions.
type KindCatalog interface {
	Kinds() []capabilities.KindCapabilities
}

// LoaderConfig bounds tree resolution.
type LoaderConfig struct {
	MaxDepth         int
	ChildConcurrency int
}

// Loader resolves folder nodes through the cached fetcher.
type Loader struct {
	fetcher *Fetcher
	kinds   KindCatalog
	config  LoaderConfig
	logger  *slog.Logger
}

// NewLoader creates a tree loader.
func NewLoader(fetcher *Fetcher, kinds KindCatalog, config LoaderConfig, logger *slog.Logger) *Loader {
	if config.ChildConcurrency <= 0 {
		config.ChildConcurrency = 4
	}
	return &Loader{
		fetcher: fetcher,
		kinds:   kinds,
		config:  config,
		logger:  logger,
	}
}

// Resolve renders the folder named by ref.
//
// An open node (DefaultOpen or Flatten) resolves each child folder, which
// fetches the child's own listings so it can render as a leaf or a branch
// with a content count; grandchildren stay unresolved until expanded. A
// collapsed branch holds unresolved stubs for its children.
//
// Fetch failures never propagate: the affected node renders as loading and
// its siblings are unaffected.
func (l *Loader) Resolve(ctx context.Context, ref FolderRef) *Node {
	return l.resolve(ctx, ref, 0, map[string]bool{})
}

func (l *Loader) resolve(ctx context.Context, ref FolderRef, depth int, ancestors map[string]bool) *Node {
	if ancestors[ref.ID] {
		l.logger.Warn("folder cycle detected", "folder_id", ref.ID)
		return &Node{Kind: NodeUnresolved, ID: ref.ID, Name: ref.Name}
	}
	if l.config.MaxDepth > 0 && depth > l.config.MaxDepth {
		return &Node{Kind: NodeUnresolved, ID: ref.ID, Name: ref.Name}
	}

	var (
		name     = ref.Name
		children []content.FolderNode
		docs     []content.ContentItem
		views    []content.ContentItem
	)

	g, gctx := errgroup.WithContext(ctx)
	if name == "" {
		g.Go(func() error {
			f, err := l.fetcher.Folder(gctx, ref.ID)
			if err != nil {
				return err
			}
			name = f.Name
			return nil
		})
	}
	g.Go(func() (err error) {
		children, err = l.fetcher.FolderChildren(gctx, ref.ID)
		return err
	})
	g.Go(func() (err error) {
		docs, err = l.fetcher.FolderDocuments(gctx, ref.ID)
		return err
	})
	g.Go(func() (err error) {
		views, err = l.fetcher.FolderViews(gctx, ref.ID)
		return err
	})

	if err := g.Wait(); err != nil {
		l.logger.Debug("folder not ready", "folder_id", ref.ID, "error", err)
		return &Node{Kind: NodeLoading, ID: ref.ID, Name: ref.Name, DefaultOpen: ref.DefaultOpen}
	}

	contentCount := len(docs) + len(views)
	empty := len(children) == 0 && contentCount == 0

	node := &Node{
		ID:           ref.ID,
		Name:         name,
		DefaultOpen:  ref.DefaultOpen,
		ContentCount: contentCount,
	}

	switch {
	case ref.Flatten && empty:
		node.Kind = NodeEmpty
		return node
	case ref.Flatten:
		node.Kind = NodeFlattened
	case empty:
		node.Kind = NodeLeaf
		node.DefaultOpen = false
		return node
	default:
		node.Kind = NodeBranch
	}

	node.Children = make([]*Node, len(children))
	if ref.DefaultOpen || ref.Flatten {
		childAncestors := maps.Clone(ancestors)
		childAncestors[ref.ID] = true

		cg := new(errgroup.Group)
		cg.SetLimit(l.config.ChildConcurrency)
		for i, child := range children {
			cg.Go(func() error {
				node.Children[i] = l.resolve(ctx, FolderRef{ID: child.ID, Name: child.Name}, depth+1, childAncestors)
				return nil
			})
		}
		_ = cg.Wait()
	} else {
		for i, child := range children {
			node.Children[i] = &Node{Kind: NodeUnresolved, ID: child.ID, Name: child.Name}
		}
	}

	node.Groups = l.groups(docs, views)
	return node
}

// groups builds one collapsed group per non-empty content kind, in catalog order.
func (l *Loader) groups(docs, views []content.ContentItem) []*ContentGroup {
	var groups []*ContentGroup
	for _, kind := range l.kinds.Kinds() {
		items := docs
		if kind.Kind == content.KindView {
			items = views
		}
		if len(items) == 0 {
			continue
		}

		group := &ContentGroup{Kind: kind.Kind, Label: kind.Label, Rows: make([]ContentRow, 0, len(items))}
		for _, item := range items {
			row := ContentRow{
				Item:   item,
				Select: content.Selection{Kind: item.Kind, ID: item.ID},
			}
			if kind.SupportsRelocate {
				row.Relocate = &content.MoveTarget{ContentID: item.ID, Kind: item.Kind, Title: item.Title}
			}
			group.Rows = append(group.Rows, row)
		}
		groups = append(groups, group)
	}
	return groups
}

// ContentRows renders search hits as clickable rows with the same actions
// folder listings offer.
func (l *Loader) ContentRows(hits []content.ContentHit) []ContentRow {
	relocatable := make(map[content.ContentKind]bool)
	for _, kind := range l.kinds.Kinds() {
		relocatable[kind.Kind] = kind.SupportsRelocate
	}

	rows := make([]ContentRow, 0, len(hits))
	for _, hit := range hits {
		item := hit.Item()
		row := ContentRow{Item: item, Select: content.Selection{Kind: item.Kind, ID: item.ID}}
		if relocatable[item.Kind] {
			row.Relocate = &content.MoveTarget{ContentID: item.ID, Kind: item.Kind, Title: item.Title}
		}
		rows = append(rows, row)
	}
	return rows
}
