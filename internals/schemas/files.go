package schemas

type FileNodeType string

const (
	FileNodeFile   FileNodeType = "file"
	FileNodeFolder FileNodeType = "folder"
)

type FileNode struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Type     FileNodeType `json:"type"`
	Path     string       `json:"path"`
	Children []FileNode   `json:"children,omitempty"`
	URL      string       `json:"url,omitempty"`
	MimeType string       `json:"mimeType,omitempty"`
}

func (n FileNode) IsFolder() bool {
	return n.Type == FileNodeFolder
}

// WorkspaceArchive is returned by the archive endpoint. A nil URL means the
// archive does not exist yet.
type WorkspaceArchive struct {
	URL      *string `json:"url"`
	Filename *string `json:"filename"`
}

func (a *WorkspaceArchive) Available() bool {
	return a != nil && a.URL != nil && *a.URL != ""
}
