package content

import "fmt"

// ContentKind discriminates the two kinds of viewable content.
type ContentKind string

const (
	KindDocument ContentKind = "document" // dashboards
	KindView     ContentKind = "view"     // looks
)

// Kinds lists every content kind in display order.
var Kinds = []ContentKind{KindDocument, KindView}

// Valid reports whether k is a known kind.
func (k ContentKind) Valid() bool {
	return k == KindDocument || k == KindView
}

// ParseKind accepts both the canonical kind names and the legacy API labels.
func ParseKind(s string) (ContentKind, error) {
	switch s {
	case "document", "dashboard", "dashboards":
		return KindDocument, nil
	case "view", "look", "looks":
		return KindView, nil
	}
	return "", fmt.Errorf("unknown content kind %q", s)
}

// ContentItem is a single document or view inside a folder.
type ContentItem struct {
	ID    string      `json:"id"`
	Kind  ContentKind `json:"kind"`
	Title string      `json:"title"`
}

// ContentHit is a content item returned by a search, together with the
// folder it lives in.
type ContentHit struct {
	ID         string      `json:"id"`
	Kind       ContentKind `json:"kind"`
	Title      string      `json:"title"`
	FolderID   string      `json:"folder_id"`
	FolderName string      `json:"folder_name"`
}

// Item drops the folder information from a hit.
func (h ContentHit) Item() ContentItem {
	return ContentItem{ID: h.ID, Kind: h.Kind, Title: h.Title}
}
