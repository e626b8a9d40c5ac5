package vfs

import (
	"time"
)

const seedReadme = `# Welcome to WebDesk

A desktop shell with windows, a dock and a virtual filesystem.

## Keyboard Shortcuts

- **Alt + F4**: Close the active window
- **Ctrl + Alt + A**: Open AI Assistant
- **Ctrl + Alt + E**: Open File Explorer

Files you delete go to the Trash and can be restored from there.
`

func seedTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func seedFile(id, name, content, mime, created string, size int64) *Node {
	n := NewFile(id, name, content, mime, seedTime(created))
	if size > 0 {
		n.Size = size
	}
	return n
}

func seedFolder(id, name, created string, children ...*Node) *Node {
	f := NewFolder(id, name, seedTime(created))
	f.Children = append(f.Children, children...)
	return f
}

// SeedTree returns the tree a fresh session starts with. Each call builds a
// new tree.
func SeedTree() *Node {
	root := seedFolder(RootID, HomePrefix, "2023-01-01T10:00:00Z",
		seedFolder("desktop", "Desktop", "2023-01-01T10:01:00Z"),
		seedFolder("documents", "Documents", "2023-01-01T10:02:00Z",
			seedFile("doc1", "project_plan.txt", "Here is the project plan...", MimeText, "2023-04-15T14:30:00Z", 0),
			seedFile("notes-file", "notes.txt", "This is a persistent notepad.", MimeText, "2023-02-20T11:00:00Z", 0),
			seedFolder("work", "Work", "2023-01-10T09:00:00Z",
				seedFile("report1", "Q3_Report.txt", "Q3 report content.", MimeText, "2023-09-30T17:00:00Z", 0),
			),
		),
		seedFolder("downloads", "Downloads", "2023-01-01T10:03:00Z"),
		seedFolder("pictures", "Pictures", "2023-01-01T10:05:00Z",
			seedFile("pic1", "vacation.jpg", "https://images.unsplash.com/photo-1517760444937-f6397edcbbcd?q=80&w=2070", "image/jpeg", "2023-08-12T18:45:00Z", 120834),
			seedFile("pic2", "logo.png", "https://images.unsplash.com/photo-1629904853716-f0bc54eea48d?q=80&w=2070", "image/png", "2023-03-01T12:00:00Z", 98455),
		),
		seedFolder(TrashID, "Trash", "2023-01-01T09:00:00Z"),
		seedFile("readme", "README.md", seedReadme, MimeMarkdown, "2023-01-01T10:04:00Z", 0),
	)
	return root
}

// Validate checks the tree invariants: a folder root, unique ids, files
// without children and a trash folder directly below the root.
func Validate(root *Node) error {
	if !root.IsFolder() {
		return ErrInvalidTree
	}
	seen := make(map[string]bool)
	var err error
	root.Walk(func(n *Node, _ int) bool {
		if err != nil {
			return false
		}
		switch {
		case n.ID == "" || seen[n.ID]:
			err = ErrInvalidTree
		case n.Type != NodeFile && n.Type != NodeFolder:
			err = ErrInvalidTree
		case n.IsFile() && len(n.Children) > 0:
			err = ErrInvalidTree
		}
		seen[n.ID] = true
		return err == nil
	})
	if err != nil {
		return err
	}
	if !containsChild(root, TrashID) || !FindByID(root, TrashID).IsFolder() {
		return ErrInvalidTree
	}
	return nil
}
