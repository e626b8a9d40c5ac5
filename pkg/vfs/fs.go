package vfs

import (
	"errors"
	"io"
	"io/fs"
	"slices"
	"strings"
	"sync"
	"time"
)

// ErrClosedFile is returned when operations are performed on a closed file.
var ErrClosedFile = errors.New("vfs: file is closed")

// FS is a read-only io/fs view of one tree snapshot. Names are relative to
// the home folder, e.g. "Documents/notes.txt"; "." is home itself.
type FS struct {
	root *Node
}

var (
	_ fs.ReadDirFS  = (*FS)(nil)
	_ fs.ReadFileFS = (*FS)(nil)
	_ fs.StatFS     = (*FS)(nil)
)

// NewFS returns a view of root. Later changes to the store are not visible.
func NewFS(root *Node) *FS {
	return &FS{root: root}
}

func (f *FS) lookup(op, name string) (*Node, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return f.root, nil
	}
	// io/fs names are plain slash-separated; backslashes are literal.
	n := f.root
	for _, elem := range strings.Split(name, "/") {
		if !n.IsFolder() {
			return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
		}
		if n = n.Child(elem); n == nil {
			return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
		}
	}
	return n, nil
}

// Open opens the named file or folder.
func (f *FS) Open(name string) (fs.File, error) {
	n, err := f.lookup("open", name)
	if err != nil {
		return nil, err
	}
	if n.IsFolder() {
		return &dirFile{node: n}, nil
	}
	return &nodeFile{node: n, r: strings.NewReader(n.Content)}, nil
}

// Stat describes the named node.
func (f *FS) Stat(name string) (fs.FileInfo, error) {
	n, err := f.lookup("stat", name)
	if err != nil {
		return nil, err
	}
	return nodeInfo{n}, nil
}

// ReadFile returns the content of the named file.
func (f *FS) ReadFile(name string) ([]byte, error) {
	n, err := f.lookup("readfile", name)
	if err != nil {
		return nil, err
	}
	if n.IsFolder() {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	return []byte(n.Content), nil
}

// ReadDir lists the named folder sorted by name.
func (f *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	n, err := f.lookup("readdir", name)
	if err != nil {
		return nil, err
	}
	if !n.IsFolder() {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	return sortedEntries(n), nil
}

func sortedEntries(n *Node) []fs.DirEntry {
	entries := make([]fs.DirEntry, len(n.Children))
	for i, c := range n.Children {
		entries[i] = fs.FileInfoToDirEntry(nodeInfo{c})
	}
	slices.SortFunc(entries, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return entries
}

// nodeInfo implements fs.FileInfo. Sys returns the *Node.
type nodeInfo struct {
	n *Node
}

func (i nodeInfo) Name() string       { return i.n.Name }
func (i nodeInfo) Size() int64        { return i.n.Size }
func (i nodeInfo) ModTime() time.Time { return i.n.CreatedAt }
func (i nodeInfo) IsDir() bool        { return i.n.IsFolder() }
func (i nodeInfo) Sys() any           { return i.n }

func (i nodeInfo) Mode() fs.FileMode {
	if i.n.IsFolder() {
		return fs.ModeDir | 0o555
	}
	return 0o444
}

// nodeFile is an open file. It also implements io.Seeker so it can be
// served with http.ServeContent.
type nodeFile struct {
	mu     sync.Mutex
	node   *Node
	r      *strings.Reader
	closed bool
}

func (f *nodeFile) Stat() (fs.FileInfo, error) {
	return nodeInfo{f.node}, nil
}

func (f *nodeFile) Read(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, ErrClosedFile
	}
	return f.r.Read(b)
}

func (f *nodeFile) Seek(offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, ErrClosedFile
	}
	return f.r.Seek(offset, whence)
}

func (f *nodeFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosedFile
	}
	f.closed = true
	return nil
}

// dirFile is an open folder.
type dirFile struct {
	node    *Node
	entries []fs.DirEntry
	offset  int
}

func (d *dirFile) Stat() (fs.FileInfo, error) {
	return nodeInfo{d.node}, nil
}

func (d *dirFile) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.node.Name, Err: fs.ErrInvalid}
}

func (d *dirFile) Close() error {
	return nil
}

// ReadDir follows fs.ReadDirFile: n <= 0 returns everything left.
func (d *dirFile) ReadDir(n int) ([]fs.DirEntry, error) {
	if d.entries == nil {
		d.entries = sortedEntries(d.node)
	}
	rest := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	if n > len(rest) {
		n = len(rest)
	}
	d.offset += n
	return rest[:n], nil
}
