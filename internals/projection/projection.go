// Package projection derives what the artifacts panel shows: the view mode,
// the workspace file sidebar and the artifact cards.
package projection

import "github.com/poco-ai/poco-console/internals/schemas"

type ViewMode string

const (
	ViewArtifacts ViewMode = "artifacts"
	ViewDocument  ViewMode = "document"
)

// Panel is the state of one artifacts panel. The zero value is not ready;
// use New.
type Panel struct {
	mode         ViewMode
	sidebarOpen  bool
	selected     *schemas.FileNode
	files        []schemas.FileNode
	filesFor     string
	filesFetched bool
}

func New() *Panel {
	return &Panel{mode: ViewArtifacts, files: []schemas.FileNode{}}
}

func (p *Panel) ViewMode() ViewMode { return p.mode }

func (p *Panel) SidebarOpen() bool { return p.sidebarOpen }

func (p *Panel) SelectedFile() *schemas.FileNode { return p.selected }

// Files never returns nil.
func (p *Panel) Files() []schemas.FileNode {
	if p.files == nil {
		return []schemas.FileNode{}
	}
	return p.files
}

// SelectFile shows a file in the document viewer.
func (p *Panel) SelectFile(file schemas.FileNode) {
	selected := file
	p.selected = &selected
	p.mode = ViewDocument
}

// ToggleSidebar flips the sidebar. Opening switches to the document view;
// closing goes back to the artifact list and drops the selection.
func (p *Panel) ToggleSidebar() {
	p.sidebarOpen = !p.sidebarOpen
	if p.sidebarOpen {
		p.mode = ViewDocument
		return
	}
	p.mode = ViewArtifacts
	p.selected = nil
}

// CloseSidebar closes an open sidebar. It does nothing when already closed.
func (p *Panel) CloseSidebar() {
	if p.sidebarOpen {
		p.ToggleSidebar()
	}
}

// ShowArtifacts leaves the document view without touching the sidebar.
func (p *Panel) ShowArtifacts() {
	if p.sidebarOpen {
		p.ToggleSidebar()
		return
	}
	p.mode = ViewArtifacts
	p.selected = nil
}

// NeedsFiles reports whether the file list for sessionID still has to be
// fetched. Each session id is fetched once, successful or not.
func (p *Panel) NeedsFiles(sessionID string) bool {
	return !p.filesFetched || p.filesFor != sessionID
}

// BeginFiles marks the fetch for sessionID as started and clears the list
// of the previous session.
func (p *Panel) BeginFiles(sessionID string) {
	if p.filesFor != sessionID {
		p.files = []schemas.FileNode{}
		p.selected = nil
	}
	p.filesFor = sessionID
	p.filesFetched = true
}

// SetFiles stores a fetched tree for sessionID. Results for another session
// or invalid trees are rejected and the list stays as it was.
func (p *Panel) SetFiles(sessionID string, files []schemas.FileNode) error {
	if sessionID != p.filesFor {
		return ErrStaleFiles
	}
	if err := ValidateTree(files); err != nil {
		return err
	}
	if files == nil {
		files = []schemas.FileNode{}
	}
	p.files = files
	return nil
}

// Reset returns the panel to its initial state, used on session switch.
func (p *Panel) Reset() {
	*p = *New()
}
