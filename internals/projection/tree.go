package projection

import (
	"errors"
	"fmt"

	"github.com/poco-ai/poco-console/internals/schemas"
)

var (
	ErrStaleFiles       = errors.New("file list belongs to another session")
	ErrDuplicateNode    = errors.New("duplicate file node id")
	ErrFileWithChildren = errors.New("file node has children")
	ErrEmptyNodeID      = errors.New("file node id is empty")
)

// ValidateTree checks that nodes form a strict tree: unique non-empty ids and
// children only under folders. Values decoded from JSON cannot be cyclic, so
// unique ids are enough to rule out shared parents.
func ValidateTree(nodes []schemas.FileNode) error {
	seen := map[string]struct{}{}
	return Walk(nodes, func(node schemas.FileNode, _ int) error {
		if node.ID == "" {
			return fmt.Errorf("%w: %q", ErrEmptyNodeID, node.Path)
		}
		if _, ok := seen[node.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, node.ID)
		}
		seen[node.ID] = struct{}{}
		if !node.IsFolder() && len(node.Children) > 0 {
			return fmt.Errorf("%w: %s", ErrFileWithChildren, node.ID)
		}
		return nil
	})
}

// Walk visits nodes depth first, parents before children. It stops at the
// first error.
func Walk(nodes []schemas.FileNode, fn func(node schemas.FileNode, depth int) error) error {
	return walk(nodes, 0, fn)
}

func walk(nodes []schemas.FileNode, depth int, fn func(schemas.FileNode, int) error) error {
	for _, node := range nodes {
		if err := fn(node, depth); err != nil {
			return err
		}
		if err := walk(node.Children, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

var errFound = errors.New("found")

func FindByID(nodes []schemas.FileNode, id string) (schemas.FileNode, bool) {
	var found schemas.FileNode
	err := Walk(nodes, func(node schemas.FileNode, _ int) error {
		if node.ID == id {
			found = node
			return errFound
		}
		return nil
	})
	return found, errors.Is(err, errFound)
}

// Row is one line of the flattened sidebar.
type Row struct {
	Node  schemas.FileNode
	Depth int
}

func Flatten(nodes []schemas.FileNode) []Row {
	rows := []Row{}
	_ = Walk(nodes, func(node schemas.FileNode, depth int) error {
		rows = append(rows, Row{Node: node, Depth: depth})
		return nil
	})
	return rows
}

// Selectable lists the file (non-folder) nodes in sidebar order.
func Selectable(nodes []schemas.FileNode) []schemas.FileNode {
	var out []schemas.FileNode
	_ = Walk(nodes, func(node schemas.FileNode, _ int) error {
		if !node.IsFolder() {
			out = append(out, node)
		}
		return nil
	})
	return out
}
