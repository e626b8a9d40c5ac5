// Package vfs implements the virtual filesystem of the desktop shell as an
// immutable tree of nodes.
//
// The tree changes only through Apply, a pure reducer over four actions:
// AddNode, DeleteNode, UpdateNode and EmptyTrash. Apply never fails. An
// action that references a missing node, or that would break the tree shape,
// returns the input tree unchanged. Changed trees share every untouched
// subtree with their predecessor.
//
// Higher level operations (copy and paste, trash and restore, archive
// extraction) are plain functions that read a tree and return the actions to
// dispatch:
//
//	store := vfs.NewStore(nil)
//	root := store.Root()
//	node := vfs.ResolvePath(root, "~/Documents/notes.txt")
//	store.Dispatch(vfs.MoveToTrash(root, node, "documents")...)
//
// Paths are shell paths rooted at "~", such as "~/Pictures/logo.png".
package vfs
