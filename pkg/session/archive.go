package session

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	shellerr "webdesk/pkg/errors"
	"webdesk/pkg/hostimport"
	"webdesk/pkg/metrics"
	"webdesk/pkg/vfs"
)

// IsArchive reports whether n is a zip file with content.
func IsArchive(n *vfs.Node) bool {
	return n.IsFile() && n.Content != "" && (n.MimeType == vfs.MimeZip || vfs.IsZipName(n.Name))
}

// destination returns destID, or the parent of id when destID is empty.
func (c *Controller) destination(root *vfs.Node, id, destID string) (string, error) {
	if destID == "" {
		p := vfs.ParentOf(root, id)
		if p == nil {
			return "", shellerr.NewStructuralViolation("no destination folder")
		}
		destID = p.ID
	}
	if _, err := c.folder(root, destID); err != nil {
		return "", err
	}
	return destID, nil
}

// Decompress extracts a zip file into a new folder named after it, below
// destID or next to the archive. Extraction runs in the background; the
// result lands as one batch and is announced with a notification. If the
// destination is gone by then the batch is a no-op.
func (c *Controller) Decompress(id, destID string) error {
	root := c.fs.Root()
	n := vfs.FindByID(root, id)
	if n == nil {
		return shellerr.NewReferenceNotFound("node", id)
	}
	if !IsArchive(n) {
		return shellerr.NewInvalidRequest(fmt.Sprintf("%q is not a zip archive", n.Name))
	}
	dest, err := c.destination(root, id, destID)
	if err != nil {
		return err
	}

	c.notify("Decompressing...", fmt.Sprintf("Extracting %q.", n.Name))
	c.goAsync(func(ctx context.Context) {
		start := time.Now()
		entries, err := c.codec.Decode(ctx, n.Content)
		metrics.RecordArchiveOperation("decompress", time.Since(start), err == nil)
		if err != nil {
			c.log.Warn("decompression failed", zap.String("name", n.Name), zap.Error(err))
			c.notify("Decompression Failed", fmt.Sprintf("Could not extract %q. The file may be corrupt.", n.Name))
			return
		}
		c.apply("decompress", func(root *vfs.Node) []vfs.Action {
			_, actions := vfs.ExtractArchive(root, dest, n.Name, entries, c.ids, c.now())
			return actions
		})
		c.notify("Decompression Complete", fmt.Sprintf("Successfully extracted %q.", n.Name))
	})
	return nil
}

// Compress packs a node and everything below it into "<name>.zip" in destID
// or next to the node. Encoding runs in the background.
func (c *Controller) Compress(id, destID string) error {
	root := c.fs.Root()
	n := vfs.FindByID(root, id)
	if n == nil {
		return shellerr.NewReferenceNotFound("node", id)
	}
	if n.ID == vfs.RootID || n.ID == vfs.TrashID {
		return shellerr.NewStructuralViolation("the home folder and the trash cannot be compressed")
	}
	dest, err := c.destination(root, id, destID)
	if err != nil {
		return err
	}

	sources := vfs.CompressionSources(n)
	name := vfs.ArchiveName(n.Name)
	c.notify("Compressing...", fmt.Sprintf("Starting to compress %q.", n.Name))
	c.goAsync(func(ctx context.Context) {
		start := time.Now()
		blob, err := c.codec.Encode(ctx, sources)
		metrics.RecordArchiveOperation("compress", time.Since(start), err == nil)
		if err != nil {
			c.log.Warn("compression failed", zap.String("name", n.Name), zap.Error(err))
			c.notify("Compression Failed", fmt.Sprintf("Could not compress %q.", n.Name))
			return
		}
		zipNode := &vfs.Node{
			ID:        c.ids.NewID(vfs.NodeFile),
			Name:      name,
			Type:      vfs.NodeFile,
			Content:   blob,
			MimeType:  vfs.MimeZip,
			CreatedAt: c.now(),
		}
		zipNode.Size = int64(len(vfs.FileBytes(zipNode)))
		c.apply("compress", func(*vfs.Node) []vfs.Action {
			return []vfs.Action{vfs.AddNode{ParentID: dest, Node: zipNode}}
		})
		c.notify("Compression Complete", fmt.Sprintf("Successfully created %q.", name))
	})
	return nil
}

// ImportHostDir copies a host directory into a new folder below destID.
// Reading runs in the background.
func (c *Controller) ImportHostDir(dir, destID string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return shellerr.NewInvalidRequest(err.Error())
	}
	if c.importAllowed != nil && !c.importAllowed(abs) {
		return shellerr.NewInvalidRequest(fmt.Sprintf("importing from %s is not allowed", abs))
	}
	if _, err := c.folder(c.fs.Root(), destID); err != nil {
		return err
	}

	name := filepath.Base(abs)
	c.goAsync(func(ctx context.Context) {
		res, err := hostimport.Import(ctx, abs, c.importOpts)
		if err != nil {
			c.log.Warn("import failed", zap.String("dir", abs), zap.Error(err))
			c.notify("Import Failed", fmt.Sprintf("Could not import %q: %v", name, err))
			return
		}
		var total int64
		for _, e := range res.Entries {
			total += int64(len(e.Data))
		}
		c.apply("import", func(root *vfs.Node) []vfs.Action {
			_, actions := vfs.ExtractArchive(root, destID, name, res.Entries, c.ids, c.now())
			return actions
		})
		msg := fmt.Sprintf("Imported %d file(s) (%s) from %q.", len(res.Entries), humanize.Bytes(uint64(total)), name)
		if len(res.Skipped) > 0 {
			msg += fmt.Sprintf(" %d skipped.", len(res.Skipped))
		}
		c.notify("Import Complete", msg)
	})
	return nil
}
