package content

// Selection identifies the content item shown in the viewer.
// A nil *Selection means nothing is selected.
type Selection struct {
	Kind ContentKind `json:"kind"`
	ID   string      `json:"id"`
}

// Equal reports whether two selections name the same item. Two nil
// selections are equal.
func (s *Selection) Equal(o *Selection) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Kind == o.Kind && s.ID == o.ID
}

// MoveTarget is the item a relocate dialog operates on.
type MoveTarget struct {
	ContentID string      `json:"content_id"`
	Kind      ContentKind `json:"kind"`
	Title     string      `json:"title"`
}

// MoveRequest is a fully specified relocation.
type MoveRequest struct {
	ContentID           string      `json:"content_id"`
	Kind                ContentKind `json:"kind"`
	Title               string      `json:"title"`
	DestinationFolderID string      `json:"destination_folder_id"`
}
