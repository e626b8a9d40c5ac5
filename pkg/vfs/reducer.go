package vfs

// Action is a mutation of the filesystem tree. The concrete types are
// AddNode, DeleteNode, UpdateNode and EmptyTrash.
type Action interface {
	Kind() string
}

// AddNode appends Node as the last child of the folder ParentID.
// When ParentID is the trash, Node.OriginalParentID is left as given.
type AddNode struct {
	ParentID string `json:"parentId"`
	Node     *Node  `json:"node"`
}

// DeleteNode removes the child NodeID from the folder ParentID.
type DeleteNode struct {
	NodeID   string `json:"nodeId"`
	ParentID string `json:"parentId"`
}

// UpdateNode merges Updates into the node NodeID, wherever it is in the tree.
type UpdateNode struct {
	NodeID  string     `json:"nodeId"`
	Updates NodeUpdate `json:"updates"`
}

// EmptyTrash removes every child of the trash folder.
type EmptyTrash struct{}

func (AddNode) Kind() string    { return "add_node" }
func (DeleteNode) Kind() string { return "delete_node" }
func (UpdateNode) Kind() string { return "update_node" }
func (EmptyTrash) Kind() string { return "empty_trash" }

// NodeUpdate holds the fields changed by UpdateNode. Nil fields are kept.
// Setting Content recomputes Size unless Size is also given.
type NodeUpdate struct {
	Name             *string `json:"name,omitempty"`
	Content          *string `json:"content,omitempty"`
	MimeType         *string `json:"mimeType,omitempty"`
	Size             *int64  `json:"size,omitempty"`
	OriginalParentID *string `json:"originalParentId,omitempty"`
}

// IsZero reports whether the update changes nothing.
func (u NodeUpdate) IsZero() bool {
	return u == NodeUpdate{}
}

func (u NodeUpdate) apply(n *Node) *Node {
	if u.IsZero() {
		return n
	}
	out := n.ShallowCopy()
	if u.Name != nil {
		out.Name = *u.Name
	}
	if u.Content != nil {
		out.Content = *u.Content
		out.Size = int64(len(*u.Content))
	}
	if u.MimeType != nil {
		out.MimeType = *u.MimeType
	}
	if u.Size != nil {
		out.Size = *u.Size
	}
	if u.OriginalParentID != nil {
		out.OriginalParentID = *u.OriginalParentID
	}
	return out
}

// Apply returns the tree produced by applying a to root. Unchanged subtrees
// are shared with root, and when nothing changes root itself is returned.
// Actions that reference missing nodes, add under a file, or would break the
// tree shape are no-ops.
func Apply(root *Node, a Action) *Node {
	if root == nil || a == nil {
		return root
	}

	switch act := a.(type) {
	case EmptyTrash:
		return rewrite(root, func(n *Node) (*Node, bool) {
			if n.ID != TrashID {
				return n, false
			}
			if len(n.Children) == 0 {
				return n, true
			}
			out := n.ShallowCopy()
			out.Children = []*Node{}
			return out, true
		})

	case AddNode:
		if act.Node == nil || act.Node.ID == "" || sharesIDs(root, act.Node) {
			return root
		}
		return rewrite(root, func(n *Node) (*Node, bool) {
			if n.ID != act.ParentID {
				return n, false
			}
			if !n.IsFolder() {
				return n, true
			}
			out := n.ShallowCopy()
			out.Children = make([]*Node, len(n.Children), len(n.Children)+1)
			copy(out.Children, n.Children)
			out.Children = append(out.Children, act.Node)
			return out, true
		})

	case DeleteNode:
		if act.NodeID == root.ID || act.NodeID == TrashID {
			return root
		}
		return rewrite(root, func(n *Node) (*Node, bool) {
			if n.ID != act.ParentID {
				return n, false
			}
			idx := -1
			for i, c := range n.Children {
				if c.ID == act.NodeID {
					idx = i
					break
				}
			}
			if idx < 0 {
				return n, true
			}
			out := n.ShallowCopy()
			out.Children = make([]*Node, 0, len(n.Children)-1)
			out.Children = append(out.Children, n.Children[:idx]...)
			out.Children = append(out.Children, n.Children[idx+1:]...)
			return out, true
		})

	case UpdateNode:
		return rewrite(root, func(n *Node) (*Node, bool) {
			if n.ID != act.NodeID {
				return n, false
			}
			return act.Updates.apply(n), true
		})
	}

	return root
}

// ApplyAll applies actions in order.
func ApplyAll(root *Node, actions ...Action) *Node {
	for _, a := range actions {
		root = Apply(root, a)
	}
	return root
}

// rewrite walks the tree depth first until match reports a hit, then rebuilds
// the ancestors of the replaced node. A matched node is not searched further.
func rewrite(n *Node, match func(*Node) (*Node, bool)) *Node {
	out, _ := rewriteNode(n, match)
	return out
}

func rewriteNode(n *Node, match func(*Node) (*Node, bool)) (*Node, bool) {
	if out, ok := match(n); ok {
		return out, true
	}
	for i, c := range n.Children {
		nc, ok := rewriteNode(c, match)
		if !ok {
			continue
		}
		if nc == c {
			return n, true
		}
		out := n.ShallowCopy()
		out.Children = make([]*Node, len(n.Children))
		copy(out.Children, n.Children)
		out.Children[i] = nc
		return out, true
	}
	return n, false
}

// sharesIDs reports whether any id in sub is already present in root.
func sharesIDs(root, sub *Node) bool {
	ids := make(map[string]bool)
	sub.Walk(func(n *Node, _ int) bool {
		ids[n.ID] = true
		return true
	})
	found := false
	root.Walk(func(n *Node, _ int) bool {
		if ids[n.ID] {
			found = true
		}
		return !found
	})
	return found
}
