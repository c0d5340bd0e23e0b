// Package route derives the initial navigation state from a URL path.
package route

import (
	"regexp"

	"contentnav/internal/domain/models/content"
)

var (
	folderPattern   = regexp.MustCompile(`/folders/(\d+)`)
	documentPattern = regexp.MustCompile(`/dashboards/(\d+)`)
	viewPattern     = regexp.MustCompile(`/looks/(\d+)`)
)

// Initial is the state a navigator starts in.
type Initial struct {
	SharedFolderID string             `json:"shared_folder_id"`
	Selection      *content.Selection `json:"selection,omitempty"`
}

// Resolve inspects path for a shared folder and a preselected item.
// Missing folders fall back to content.SharedRootID; a document match takes
// precedence over a view match.
func Resolve(path string) Initial {
	initial := Initial{SharedFolderID: content.SharedRootID}

	if m := folderPattern.FindStringSubmatch(path); m != nil {
		initial.SharedFolderID = m[1]
	}

	if m := documentPattern.FindStringSubmatch(path); m != nil {
		initial.Selection = &content.Selection{Kind: content.KindDocument, ID: m[1]}
	} else if m := viewPattern.FindStringSubmatch(path); m != nil {
		initial.Selection = &content.Selection{Kind: content.KindView, ID: m[1]}
	}

	return initial
}
