package vfs

import (
	"time"
)

// Reserved node ids.
const (
	RootID  = "root"
	TrashID = "trash"
)

// NodeType is either a file or a folder.
type NodeType string

const (
	NodeFile   NodeType = "file"
	NodeFolder NodeType = "folder"
)

// Node is an entry in the filesystem tree.
//
// Nodes are immutable once they are part of a tree: every change produces new
// nodes along the path to the root and shares the rest. Never modify a node
// returned by a Store; copy it with Clone or ShallowCopy first.
type Node struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Type             NodeType  `json:"type"`
	Content          string    `json:"content,omitempty"`
	Children         []*Node   `json:"children,omitempty"`
	MimeType         string    `json:"mimeType,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	Size             int64     `json:"size,omitempty"`
	OriginalParentID string    `json:"originalParentId,omitempty"`
}

// IsFolder reports whether n is a folder.
func (n *Node) IsFolder() bool {
	return n != nil && n.Type == NodeFolder
}

// IsFile reports whether n is a file.
func (n *Node) IsFile() bool {
	return n != nil && n.Type == NodeFile
}

// DisplayName returns the node name. Window titles use it.
func (n *Node) DisplayName() string {
	return n.Name
}

// ShallowCopy returns a copy of n sharing its children.
func (n *Node) ShallowCopy() *Node {
	c := *n
	return &c
}

// Child returns the first child named name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildNames returns the set of child names.
func (n *Node) ChildNames() map[string]bool {
	names := make(map[string]bool, len(n.Children))
	for _, c := range n.Children {
		names[c.Name] = true
	}
	return names
}

// Walk calls fn for n and every descendant, depth first. Returning false
// from fn skips the children of that node.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if n == nil || !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// NewFolder returns an empty folder node.
func NewFolder(id, name string, createdAt time.Time) *Node {
	return &Node{ID: id, Name: name, Type: NodeFolder, Children: []*Node{}, CreatedAt: createdAt}
}

// NewFile returns a file node. Size is the byte length of content.
func NewFile(id, name, content, mimeType string, createdAt time.Time) *Node {
	return &Node{
		ID:        id,
		Name:      name,
		Type:      NodeFile,
		Content:   content,
		MimeType:  mimeType,
		CreatedAt: createdAt,
		Size:      int64(len(content)),
	}
}
