// Package zipcodec reads and writes the base64 zip blobs stored in file
// nodes.
package zipcodec

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"

	"webdesk/pkg/vfs"
)

// DefaultMaxEntrySize bounds the uncompressed size of a single entry.
const DefaultMaxEntrySize = 64 << 20

// Codec implements vfs.ArchiveCodec for zip archives.
type Codec struct {
	// MaxEntrySize rejects archives with larger entries. Zero means
	// DefaultMaxEntrySize.
	MaxEntrySize uint64
}

var _ vfs.ArchiveCodec = (*Codec)(nil)

// New returns a codec with default limits.
func New() *Codec {
	return &Codec{MaxEntrySize: DefaultMaxEntrySize}
}

func (c *Codec) maxEntry() uint64 {
	if c.MaxEntrySize == 0 {
		return DefaultMaxEntrySize
	}
	return c.MaxEntrySize
}

// Decode reads a base64 zip blob, with or without a data URI prefix, and
// returns its file entries in archive order. Directory entries are skipped.
func (c *Codec) Decode(ctx context.Context, content string) ([]vfs.ArchiveEntry, error) {
	raw, err := decodeBlob(content)
	if err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("zipcodec: open archive: %w", err)
	}

	entries := make([]vfs.ArchiveEntry, 0, len(zr.File))
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		if f.UncompressedSize64 > c.maxEntry() {
			return nil, fmt.Errorf("zipcodec: entry %q is %d bytes, limit is %d", f.Name, f.UncompressedSize64, c.maxEntry())
		}

		data, err := readEntry(f, c.maxEntry())
		if err != nil {
			return nil, fmt.Errorf("zipcodec: read %q: %w", f.Name, err)
		}
		entries = append(entries, vfs.ArchiveEntry{
			RelativePath: f.Name,
			Data:         data,
			IsText:       vfs.IsTextName(f.Name),
		})
	}
	return entries, nil
}

func readEntry(f *zip.File, limit uint64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) > limit {
		return nil, fmt.Errorf("entry exceeds %d bytes", limit)
	}
	return data, nil
}

func decodeBlob(content string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(content, "data:"); ok {
		_, payload, found := strings.Cut(rest, ";base64,")
		if !found {
			return nil, fmt.Errorf("zipcodec: data URI is not base64")
		}
		content = payload
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(content))
	if err != nil {
		return nil, fmt.Errorf("zipcodec: decode base64: %w", err)
	}
	return raw, nil
}

// Encode writes sources into a deflate-compressed zip and returns it base64
// encoded. Folder sources become directory entries so empty folders survive.
func (c *Codec) Encode(ctx context.Context, sources []vfs.ArchiveSource) (string, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	sorted := make([]vfs.ArchiveSource, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	seen := make(map[string]bool, len(sorted))
	for _, s := range sorted {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		name := strings.TrimPrefix(s.Path, "/")
		if s.IsDir {
			name = strings.TrimSuffix(name, "/") + "/"
		}
		if name == "" || name == "/" || seen[name] {
			continue
		}
		seen[name] = true

		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
		if s.IsDir {
			hdr.Method = zip.Store
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return "", fmt.Errorf("zipcodec: create %q: %w", name, err)
		}
		if s.IsDir {
			continue
		}
		if _, err := w.Write(s.Data); err != nil {
			return "", fmt.Errorf("zipcodec: write %q: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("zipcodec: finish archive: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
