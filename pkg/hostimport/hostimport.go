// Package hostimport reads a directory of the host filesystem into archive
// entries that the virtual filesystem can fold into its tree.
package hostimport

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"webdesk/pkg/vfs"
)

// Defaults for Options.
const (
	DefaultMaxFileSize  = 8 << 20
	DefaultMaxTotalSize = 64 << 20
	DefaultMaxDepth     = 16
)

// ErrTooLarge is returned when the files to import exceed MaxTotalSize.
var ErrTooLarge = errors.New("hostimport: import exceeds size limit")

// Options bound what Import reads.
type Options struct {
	// MaxFileSize skips larger files. Zero means DefaultMaxFileSize.
	MaxFileSize int64
	// MaxTotalSize aborts the import once exceeded. Zero means DefaultMaxTotalSize.
	MaxTotalSize int64
	// MaxDepth skips entries nested deeper. Zero means DefaultMaxDepth.
	MaxDepth int
	// IncludeHidden imports dot files and dot folders.
	IncludeHidden bool
}

func (o Options) withDefaults() Options {
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if o.MaxTotalSize <= 0 {
		o.MaxTotalSize = DefaultMaxTotalSize
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	return o
}

// Result is what Import read and what it left out.
type Result struct {
	Entries []vfs.ArchiveEntry
	Skipped []string
}

// Import walks dir and returns its regular files as entries with paths
// relative to dir, sorted by path. Symlinks are not followed.
func Import(ctx context.Context, dir string, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("hostimport: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("hostimport: %s is not a directory", dir)
	}
	base := filepath.Clean(dir)

	var (
		mu     sync.Mutex
		res    Result
		total  int64
		tooBig bool
	)

	conf := &fastwalk.Config{Follow: false}
	err = fastwalk.Walk(conf, base, func(fullPath string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if walkErr != nil {
			mu.Lock()
			res.Skipped = append(res.Skipped, fullPath)
			mu.Unlock()
			return nil
		}
		if fullPath == base {
			return nil
		}

		rel, err := filepath.Rel(base, fullPath)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if !opts.IncludeHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}
		if fastwalk.DirEntryDepth(d) > opts.MaxDepth {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil || !info.Mode().IsRegular() || info.Size() > opts.MaxFileSize {
			mu.Lock()
			res.Skipped = append(res.Skipped, rel)
			mu.Unlock()
			return nil
		}

		data, err := os.ReadFile(fullPath)
		if err != nil {
			mu.Lock()
			res.Skipped = append(res.Skipped, rel)
			mu.Unlock()
			return nil
		}

		mu.Lock()
		defer mu.Unlock()
		total += int64(len(data))
		if total > opts.MaxTotalSize {
			tooBig = true
			return ErrTooLarge
		}
		res.Entries = append(res.Entries, vfs.ArchiveEntry{
			RelativePath: rel,
			Data:         data,
			IsText:       vfs.IsTextName(d.Name()),
		})
		return nil
	})
	if tooBig {
		return nil, ErrTooLarge
	}
	if err != nil {
		return nil, fmt.Errorf("hostimport: walk %s: %w", dir, err)
	}

	sort.Slice(res.Entries, func(i, j int) bool { return res.Entries[i].RelativePath < res.Entries[j].RelativePath })
	sort.Strings(res.Skipped)
	return &res, nil
}
