package cache

// Op names a repository operation whose results are cached.
type Op string

const (
	OpFolder          Op = "folder"
	OpPersonalFolder  Op = "personal_folder"
	OpFolderChildren  Op = "folder_children"
	OpFolderDocuments Op = "folder_documents"
	OpFolderViews     Op = "folder_views"
	OpSearchFolders   Op = "search_folders"
	OpSearchContent   Op = "search_content"
)

// folderOps are the operations keyed by a folder id.
var folderOps = []Op{OpFolder, OpFolderChildren, OpFolderDocuments, OpFolderViews}

// Key identifies one cached fetch: an operation plus its parameter.
// Keys are comparable and safe to use as map keys.
type Key struct {
	Op    Op
	Param string
}

func (k Key) String() string {
	return string(k.Op) + ":" + k.Param
}

func FolderKey(id string) Key { return Key{Op: OpFolder, Param: id} }
func PersonalFolderKey(userID string) Key { return Key{Op: OpPersonalFolder, Param: userID} }
func FolderChildrenKey(id string) Key { return Key{Op: OpFolderChildren, Param: id} }
func FolderDocumentsKey(id string) Key { return Key{Op: OpFolderDocuments, Param: id} }
func FolderViewsKey(id string) Key { return Key{Op: OpFolderViews, Param: id} }
func SearchFoldersKey(q string) Key { return Key{Op: OpSearchFolders, Param: q} }
func SearchContentKey(q string) Key { return Key{Op: OpSearchContent, Param: q} }
