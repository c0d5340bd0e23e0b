package content

// Well-known folder identifiers.
const (
	// SharedRootID is the shared folder shown when no route names one.
	SharedRootID = "1"
	// PersonalFolderID is resolved by the repository to the caller's own
	// personal folder.
	PersonalFolderID = "personal"
)

// FolderNode is folder metadata as reported by the content repository.
// ChildCount is informational only; tree rendering never relies on it.
type FolderNode struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ChildCount int    `json:"child_count"`
}
