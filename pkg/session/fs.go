package session

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	shellerr "webdesk/pkg/errors"
	"webdesk/pkg/logging"
	"webdesk/pkg/metrics"
	"webdesk/pkg/vfs"
)

// apply runs one read-compute-dispatch batch and records it. fn sees the
// current tree and must not call back into the controller.
func (c *Controller) apply(op string, fn func(root *vfs.Node) []vfs.Action) bool {
	var kinds []string
	changed := c.fs.Update(func(root *vfs.Node) []vfs.Action {
		actions := fn(root)
		kinds = kinds[:0]
		for _, a := range actions {
			kinds = append(kinds, a.Kind())
		}
		return actions
	})
	for _, k := range kinds {
		metrics.RecordFSAction(k)
	}
	if !changed {
		metrics.RecordFSNoop()
	}
	c.log.Debug("fs batch", zap.String("op", op), zap.Strings("actions", kinds), zap.Bool("changed", changed))
	return changed
}

// Node returns the node with id.
func (c *Controller) Node(id string) (*vfs.Node, error) {
	n := vfs.FindByID(c.fs.Root(), id)
	if n == nil {
		return nil, shellerr.NewReferenceNotFound("node", id)
	}
	return n, nil
}

// Resolve returns the node at a shell path such as "~/Documents".
func (c *Controller) Resolve(path string) (*vfs.Node, error) {
	if err := vfs.ValidatePath(path); err != nil {
		return nil, shellerr.NewInvalidRequest(err.Error())
	}
	n := vfs.ResolvePath(c.fs.Root(), path)
	if n == nil {
		return nil, shellerr.NewReferenceNotFound("path", path)
	}
	return n, nil
}

// List returns the sorted children of a folder.
func (c *Controller) List(folderID string, key vfs.SortKey, desc bool) ([]*vfs.Node, error) {
	n, err := c.folder(c.fs.Root(), folderID)
	if err != nil {
		return nil, err
	}
	return vfs.SortedChildren(n, key, desc), nil
}

// Search finds nodes below scope matching query, narrowed by filter.
func (c *Controller) Search(query, scope string, filter vfs.SearchFilter) []vfs.SearchResult {
	var out []vfs.SearchResult
	for _, r := range vfs.Search(c.fs.Root(), query, scope) {
		if filter.Accepts(r.Node) {
			out = append(out, r)
		}
	}
	return out
}

func (c *Controller) folder(root *vfs.Node, id string) (*vfs.Node, error) {
	n := vfs.FindByID(root, id)
	if n == nil {
		return nil, shellerr.NewReferenceNotFound("node", id)
	}
	if !n.IsFolder() {
		return nil, shellerr.NewStructuralViolation(fmt.Sprintf("%q is not a folder", n.Name))
	}
	return n, nil
}

// CreateFolder adds a folder below parentID. An empty name picks the next
// free "New Folder" name.
func (c *Controller) CreateFolder(parentID, name string) (*vfs.Node, error) {
	if name != "" {
		if err := vfs.ValidateName(name); err != nil {
			return nil, shellerr.NewInvalidRequest(err.Error())
		}
	}
	var created *vfs.Node
	var opErr error
	c.apply("create_folder", func(root *vfs.Node) []vfs.Action {
		parent, err := c.folder(root, parentID)
		if err != nil {
			opErr = err
			return nil
		}
		n := name
		if n == "" {
			n = vfs.NewFolderName(parent)
		}
		created = vfs.NewFolder(c.ids.NewID(vfs.NodeFolder), n, c.now())
		return []vfs.Action{vfs.AddNode{ParentID: parentID, Node: created}}
	})
	if opErr != nil {
		return nil, opErr
	}
	c.log.Debug("folder created", logging.NodeID(created.ID))
	return created, nil
}

// CreateFile adds a file below parentID. The mime type follows the extension.
func (c *Controller) CreateFile(parentID, name, content string) (*vfs.Node, error) {
	if err := vfs.ValidateName(name); err != nil {
		return nil, shellerr.NewInvalidRequest(err.Error())
	}
	var created *vfs.Node
	var opErr error
	c.apply("create_file", func(root *vfs.Node) []vfs.Action {
		if _, err := c.folder(root, parentID); err != nil {
			opErr = err
			return nil
		}
		created = vfs.NewFile(c.ids.NewID(vfs.NodeFile), name, content, vfs.MimeTypeFor(name), c.now())
		return []vfs.Action{vfs.AddNode{ParentID: parentID, Node: created}}
	})
	if opErr != nil {
		return nil, opErr
	}
	return created, nil
}

// GeneratedFolderID is where assistant output is saved.
const GeneratedFolderID = "documents"

// SaveGenerated stores assistant output as ai_generated_<millis>.<language>
// in Documents and opens it in the text editor.
func (c *Controller) SaveGenerated(content, language string) (*vfs.Node, error) {
	ext := strings.TrimPrefix(strings.TrimSpace(language), ".")
	if ext == "" {
		ext = "txt"
	}
	name := "ai_generated_" + strconv.FormatInt(c.now().UnixMilli(), 10) + "." + ext
	n, err := c.CreateFile(GeneratedFolderID, name, content)
	if err != nil {
		return nil, err
	}
	if _, err := c.OpenFile(n.ID); err != nil {
		return n, err
	}
	return n, nil
}

// Rename changes a node's name. The root and the trash keep their names.
func (c *Controller) Rename(id, name string) error {
	if err := vfs.ValidateName(name); err != nil {
		return shellerr.NewInvalidRequest(err.Error())
	}
	return c.update("rename", id, vfs.NodeUpdate{Name: &name}, false)
}

// SaveContent replaces a file's content. Its size follows.
func (c *Controller) SaveContent(id, content string) error {
	return c.update("save_content", id, vfs.NodeUpdate{Content: &content}, true)
}

func (c *Controller) update(op, id string, upd vfs.NodeUpdate, fileOnly bool) error {
	var opErr error
	c.apply(op, func(root *vfs.Node) []vfs.Action {
		n := vfs.FindByID(root, id)
		switch {
		case n == nil:
			opErr = shellerr.NewReferenceNotFound("node", id)
		case id == root.ID || id == vfs.TrashID:
			opErr = shellerr.NewStructuralViolation("the home folder and the trash cannot be changed")
		case fileOnly && !n.IsFile():
			opErr = shellerr.NewStructuralViolation(fmt.Sprintf("%q is not a file", n.Name))
		}
		if opErr != nil {
			return nil
		}
		return []vfs.Action{vfs.UpdateNode{NodeID: id, Updates: upd}}
	})
	return opErr
}

// Copy puts a node on the clipboard. The clipboard holds the node as it is
// now; later edits to the original do not change what gets pasted.
func (c *Controller) Copy(id string) error {
	n, err := c.Node(id)
	if err != nil {
		return err
	}
	if n.ID == vfs.RootID || n.ID == vfs.TrashID {
		return shellerr.NewStructuralViolation("the home folder and the trash cannot be copied")
	}
	c.mu.Lock()
	c.clipboard = n
	c.mu.Unlock()
	return nil
}

// Clipboard returns the node on the clipboard, or nil.
func (c *Controller) Clipboard() *vfs.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clipboard
}

// Paste copies the clipboard node into destID under a collision-free name.
func (c *Controller) Paste(destID string) (*vfs.Node, error) {
	src := c.Clipboard()
	if src == nil {
		return nil, shellerr.NewInvalidRequest("clipboard is empty")
	}
	var pasted *vfs.Node
	var opErr error
	c.apply("paste", func(root *vfs.Node) []vfs.Action {
		if _, err := c.folder(root, destID); err != nil {
			opErr = err
			return nil
		}
		n, add, _ := vfs.CopyInto(root, src, destID, c.ids, c.now())
		pasted = n
		return []vfs.Action{add}
	})
	if opErr != nil {
		return nil, opErr
	}
	c.notify("File Pasted", fmt.Sprintf("'%s' was successfully copied.", pasted.Name))
	return pasted, nil
}

// MoveToTrash moves a node from its current folder into the trash.
func (c *Controller) MoveToTrash(id string) error {
	var opErr error
	c.apply("move_to_trash", func(root *vfs.Node) []vfs.Action {
		n := vfs.FindByID(root, id)
		if n == nil {
			opErr = shellerr.NewReferenceNotFound("node", id)
			return nil
		}
		parent := vfs.ParentOf(root, id)
		if parent == nil || id == vfs.TrashID {
			opErr = shellerr.NewStructuralViolation("the home folder and the trash cannot be deleted")
			return nil
		}
		actions := vfs.MoveToTrash(root, n, parent.ID)
		if actions == nil {
			opErr = shellerr.NewStructuralViolation(fmt.Sprintf("%q is already in the trash", n.Name))
		}
		return actions
	})
	return opErr
}

// Restore moves a trashed node back to where it was deleted from.
func (c *Controller) Restore(id string) error {
	var opErr error
	c.apply("restore", func(root *vfs.Node) []vfs.Action {
		n := vfs.FindByID(root, id)
		if n == nil {
			opErr = shellerr.NewReferenceNotFound("node", id)
			return nil
		}
		actions := vfs.RestoreFromTrash(root, n)
		if actions == nil {
			opErr = shellerr.NewStructuralViolation(fmt.Sprintf("%q is not in the trash", n.Name))
		}
		return actions
	})
	return opErr
}

// DeletePermanently destroys a node in the trash. It must be confirmed.
func (c *Controller) DeletePermanently(id string, confirmed bool) error {
	var opErr error
	c.apply("delete_permanently", func(root *vfs.Node) []vfs.Action {
		n := vfs.FindByID(root, id)
		if n == nil {
			opErr = shellerr.NewReferenceNotFound("node", id)
			return nil
		}
		if p := vfs.ParentOf(root, id); p == nil || p.ID != vfs.TrashID {
			opErr = shellerr.NewStructuralViolation(fmt.Sprintf("%q is not in the trash", n.Name))
			return nil
		}
		if !confirmed {
			opErr = shellerr.NewConfirmationRequired(fmt.Sprintf("permanently deleting %q", n.Name))
			return nil
		}
		return []vfs.Action{vfs.DeleteNode{NodeID: id, ParentID: vfs.TrashID}}
	})
	return opErr
}

// EmptyTrash destroys everything in the trash. It must be confirmed unless
// the trash is already empty, in which case nothing happens. It reports
// whether anything was removed.
func (c *Controller) EmptyTrash(confirmed bool) (bool, error) {
	var opErr error
	var removed int
	changed := c.apply("empty_trash", func(root *vfs.Node) []vfs.Action {
		trash := vfs.FindByID(root, vfs.TrashID)
		if trash == nil || len(trash.Children) == 0 {
			return nil
		}
		if !confirmed {
			opErr = shellerr.NewConfirmationRequired("emptying the trash")
			return nil
		}
		removed = len(trash.Children)
		return []vfs.Action{vfs.EmptyTrash{}}
	})
	if opErr != nil {
		return false, opErr
	}
	if changed {
		c.notify("Trash Emptied", fmt.Sprintf("%d item(s) were permanently deleted.", removed))
	}
	return changed, nil
}
