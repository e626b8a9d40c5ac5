package vfs

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FindByID returns the first node with id in depth-first order, or nil.
func FindByID(root *Node, id string) *Node {
	if root == nil {
		return nil
	}
	var found *Node
	root.Walk(func(n *Node, _ int) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// PathSegmentsTo returns the ids from root to id, both inclusive, or nil when
// id is not in the tree.
func PathSegmentsTo(root *Node, id string) []string {
	if root == nil {
		return nil
	}
	if root.ID == id {
		return []string{root.ID}
	}
	for _, c := range root.Children {
		if rest := PathSegmentsTo(c, id); rest != nil {
			return append([]string{root.ID}, rest...)
		}
	}
	return nil
}

// ParentOf returns the folder that directly contains id, or nil for the root
// and for unknown ids.
func ParentOf(root *Node, id string) *Node {
	segs := PathSegmentsTo(root, id)
	if len(segs) < 2 {
		return nil
	}
	return FindByID(root, segs[len(segs)-2])
}

// PathString returns the display path of id, e.g. "~/Documents/notes.txt".
func PathString(root *Node, id string) string {
	segs := PathSegmentsTo(root, id)
	if segs == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(HomePrefix)
	n := root
	for _, sid := range segs[1:] {
		for _, c := range n.Children {
			if c.ID == sid {
				n = c
				break
			}
		}
		b.WriteString("/")
		b.WriteString(n.Name)
	}
	return b.String()
}

// ResolvePath returns the node at a shell path such as "~/Documents/Work".
func ResolvePath(root *Node, p string) *Node {
	if root == nil || ValidatePath(p) != nil {
		return nil
	}
	n := root
	for _, seg := range Segments(p) {
		n = n.Child(seg)
		if n == nil {
			return nil
		}
	}
	return n
}

// InTrash reports whether id is the trash folder or lies below it.
func InTrash(root *Node, id string) bool {
	for _, sid := range PathSegmentsTo(root, id) {
		if sid == TrashID {
			return true
		}
	}
	return false
}

// UniqueCopyName returns a name not in taken. A taken "x.txt" becomes
// "x (copy).txt", then "x (2).txt", "x (3).txt" and so on.
func UniqueCopyName(taken map[string]bool, name string) string {
	if !taken[name] {
		return name
	}
	base, ext := SplitName(name)
	candidate := base + " (copy)" + ext
	for n := 2; taken[candidate]; n++ {
		candidate = fmt.Sprintf("%s (%d)%s", base, n, ext)
	}
	return candidate
}

// NewFolderName returns "New Folder", or "New Folder (2)", "New Folder (3)"
// and so on when the name is taken in parent.
func NewFolderName(parent *Node) string {
	return numberedName(parent.ChildNames(), "New Folder")
}

func numberedName(taken map[string]bool, name string) string {
	candidate := name
	for n := 2; taken[candidate]; n++ {
		candidate = fmt.Sprintf("%s (%d)", name, n)
	}
	return candidate
}

// Clone deep-copies node with a fresh id for every copy. Trash provenance is
// not carried over.
func Clone(node *Node, ids IDGenerator) *Node {
	out := node.ShallowCopy()
	out.ID = ids.NewID(node.Type)
	out.OriginalParentID = ""
	if node.Children != nil {
		out.Children = make([]*Node, len(node.Children))
		for i, c := range node.Children {
			out.Children[i] = Clone(c, ids)
		}
	}
	return out
}

// CopyInto clones node for pasting into the folder destID. The copy gets a
// name that does not collide with the folder's children and a creation time
// of now. It returns false when destID is not a folder.
func CopyInto(root, node *Node, destID string, ids IDGenerator, now time.Time) (*Node, AddNode, bool) {
	dest := FindByID(root, destID)
	if node == nil || !dest.IsFolder() {
		return nil, AddNode{}, false
	}
	c := Clone(node, ids)
	c.Name = UniqueCopyName(dest.ChildNames(), node.Name)
	c.CreatedAt = now
	return c, AddNode{ParentID: destID, Node: c}, true
}

// MoveToTrash returns the actions moving node out of parentID into the trash.
// Nothing is returned when node is not a child of parentID, is reserved, or
// is already in the trash.
func MoveToTrash(root, node *Node, parentID string) []Action {
	if node == nil || node.ID == RootID || node.ID == TrashID || parentID == TrashID {
		return nil
	}
	parent := FindByID(root, parentID)
	if !parent.IsFolder() || !containsChild(parent, node.ID) {
		return nil
	}
	trashed := node.ShallowCopy()
	trashed.OriginalParentID = parentID
	return []Action{
		DeleteNode{NodeID: node.ID, ParentID: parentID},
		AddNode{ParentID: TrashID, Node: trashed},
	}
}

// RestoreFromTrash returns the actions moving node out of the trash back to
// its original parent. The restored node has no OriginalParentID. If the
// original parent is gone or is not a folder, the node goes to the root.
func RestoreFromTrash(root, node *Node) []Action {
	trash := FindByID(root, TrashID)
	if node == nil || !trash.IsFolder() || !containsChild(trash, node.ID) {
		return nil
	}
	target := node.OriginalParentID
	if dest := FindByID(root, target); !dest.IsFolder() || target == TrashID {
		target = root.ID
	}
	restored := node.ShallowCopy()
	restored.OriginalParentID = ""
	return []Action{
		DeleteNode{NodeID: node.ID, ParentID: TrashID},
		AddNode{ParentID: target, Node: restored},
	}
}

func containsChild(parent *Node, id string) bool {
	for _, c := range parent.Children {
		if c.ID == id {
			return true
		}
	}
	return false
}

// SearchFilter narrows search results by kind.
type SearchFilter string

const (
	FilterAll    SearchFilter = "all"
	FilterFolder SearchFilter = "folder"
	FilterText   SearchFilter = "text"
	FilterImage  SearchFilter = "image"
)

// Accepts reports whether n passes the filter.
func (f SearchFilter) Accepts(n *Node) bool {
	switch f {
	case FilterFolder:
		return n.IsFolder()
	case FilterText:
		return IsSearchableText(n.MimeType)
	case FilterImage:
		return IsImageMime(n.MimeType)
	default:
		return true
	}
}

// SearchResult is a matching node and its display path.
type SearchResult struct {
	Node *Node  `json:"node"`
	Path string `json:"path"`
}

// Search returns every node below the scope path, the scope included, whose
// name contains query case-insensitively, or whose content does for plain
// text and markdown files. Results are in depth-first order.
func Search(root *Node, query, scope string) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	if scope == "" {
		scope = HomePrefix
	}
	start := ResolvePath(root, scope)
	if start == nil {
		return nil
	}

	var results []SearchResult
	var walk func(n *Node, p string)
	walk = func(n *Node, p string) {
		if matches(n, q) {
			results = append(results, SearchResult{Node: n, Path: p})
		}
		for _, c := range n.Children {
			walk(c, p+"/"+c.Name)
		}
	}
	walk(start, Clean(scope))
	return results
}

func matches(n *Node, q string) bool {
	if strings.Contains(strings.ToLower(n.Name), q) {
		return true
	}
	return n.IsFile() && n.Content != "" && IsSearchableText(n.MimeType) &&
		strings.Contains(strings.ToLower(n.Content), q)
}

// SortKey orders folder listings.
type SortKey string

const (
	SortByName      SortKey = "name"
	SortBySize      SortKey = "size"
	SortByCreatedAt SortKey = "createdAt"
)

// SortedChildren returns a sorted copy of a folder's children. Folders come
// before files; the folder itself is not modified.
func SortedChildren(folder *Node, key SortKey, desc bool) []*Node {
	out := make([]*Node, len(folder.Children))
	copy(out, folder.Children)
	less := func(a, b *Node) bool {
		switch key {
		case SortBySize:
			if a.Size != b.Size {
				return a.Size < b.Size
			}
		case SortByCreatedAt:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsFolder() != b.IsFolder() {
			return a.IsFolder()
		}
		if desc {
			return less(b, a)
		}
		return less(a, b)
	})
	return out
}
