package vfs

import (
	"context"
	"encoding/base64"
	"strings"
	"time"
)

// ArchiveEntry is one file read out of an archive. Data holds the raw bytes;
// IsText marks entries that are stored as plain text.
type ArchiveEntry struct {
	RelativePath string
	Data         []byte
	IsText       bool
}

// ArchiveSource is one entry handed to an archive encoder: a folder or a file
// with its decoded bytes.
type ArchiveSource struct {
	Path  string
	Data  []byte
	IsDir bool
}

// ArchiveCodec converts between archive blobs stored in file content and
// archive entries.
type ArchiveCodec interface {
	Decode(ctx context.Context, content string) ([]ArchiveEntry, error)
	Encode(ctx context.Context, sources []ArchiveSource) (string, error)
}

// ExtractionFolderName returns the folder an archive extracts into: the
// archive name without its ".zip" suffix.
func ExtractionFolderName(archiveName string) string {
	if name := strings.TrimSuffix(archiveName, ".zip"); name != "" {
		return name
	}
	return archiveName
}

// ArchiveName returns the name of the archive created from a node: the part
// of its name before the first dot plus ".zip".
func ArchiveName(nodeName string) string {
	base, _, _ := strings.Cut(nodeName, ".")
	if base == "" {
		base = nodeName
	}
	return base + ".zip"
}

// ExtractArchive folds archive entries into new nodes below destID. The
// entries land in a new folder named after the archive; intermediate folders
// are created on demand and reused for later entries with the same prefix.
// The returned actions are meant to be dispatched as one batch, and the first
// one adds the extraction folder.
func ExtractArchive(root *Node, destID, archiveName string, entries []ArchiveEntry, ids IDGenerator, now time.Time) (*Node, []Action) {
	dest := FindByID(root, destID)
	if !dest.IsFolder() {
		return nil, nil
	}

	top := NewFolder(ids.NewID(NodeFolder), ExtractionFolderName(archiveName), now)
	actions := []Action{AddNode{ParentID: destID, Node: top}}

	createdDirs := map[string]string{"": top.ID}
	for _, e := range entries {
		segs := archivePathSegments(e.RelativePath)
		if len(segs) == 0 {
			continue
		}
		fileName := segs[len(segs)-1]

		parentID := top.ID
		built := ""
		for _, part := range segs[:len(segs)-1] {
			parentPath := built
			if built == "" {
				built = part
			} else {
				built = built + "/" + part
			}
			id, ok := createdDirs[built]
			if !ok {
				folder := NewFolder(ids.NewID(NodeFolder), part, now)
				actions = append(actions, AddNode{ParentID: createdDirs[parentPath], Node: folder})
				id = folder.ID
				createdDirs[built] = id
			}
			parentID = id
		}

		actions = append(actions, AddNode{ParentID: parentID, Node: entryNode(ids.NewID(NodeFile), fileName, e, now)})
	}

	return top, actions
}

func entryNode(id, name string, e ArchiveEntry, now time.Time) *Node {
	n := &Node{
		ID:        id,
		Name:      name,
		Type:      NodeFile,
		CreatedAt: now,
		Size:      int64(len(e.Data)),
	}
	switch {
	case e.IsText || IsTextName(name):
		n.Content = string(e.Data)
		n.MimeType = MimeTypeFor(name)
	case IsImageName(name):
		n.MimeType = ImageMime(name)
		n.Content = "data:" + n.MimeType + ";base64," + base64.StdEncoding.EncodeToString(e.Data)
	default:
		n.MimeType = MimeTypeFor(name)
		n.Content = base64.StdEncoding.EncodeToString(e.Data)
	}
	return n
}

// CompressionSources walks node recursively and returns every folder and file
// below it, paths relative to node's parent so the archive keeps node's name
// as its top entry.
func CompressionSources(node *Node) []ArchiveSource {
	var out []ArchiveSource
	var walk func(n *Node, prefix string)
	walk = func(n *Node, prefix string) {
		p := n.Name
		if prefix != "" {
			p = prefix + "/" + n.Name
		}
		if n.IsFolder() {
			out = append(out, ArchiveSource{Path: p, IsDir: true})
			for _, c := range n.Children {
				walk(c, p)
			}
			return
		}
		out = append(out, ArchiveSource{Path: p, Data: FileBytes(n)})
	}
	if node != nil {
		walk(node, "")
	}
	return out
}

// FileBytes returns the raw bytes of a file node. Data URIs and base64
// payloads of binary files are decoded; text is returned as is.
func FileBytes(n *Node) []byte {
	content := n.Content
	if rest, ok := strings.CutPrefix(content, "data:"); ok {
		if _, payload, found := strings.Cut(rest, ";base64,"); found {
			if b, err := base64.StdEncoding.DecodeString(payload); err == nil {
				return b
			}
		}
		return []byte(content)
	}
	if n.MimeType == MimeBinary || n.MimeType == MimeZip {
		if b, err := base64.StdEncoding.DecodeString(content); err == nil {
			return b
		}
	}
	return []byte(content)
}
