package testutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryFS is an in-memory implementation of types.FS. Unlike afero's
// MemMapFs it models symlinks as first-class nodes, so Lstat, Readlink
// and dangling-link detection behave like a real filesystem. Paths must
// be absolute.
type MemoryFS struct {
	mu    sync.RWMutex
	nodes map[string]*node

	// errorPaths injects failures for specific paths.
	errorPaths map[string]error
}

type node struct {
	name     string
	mode     os.FileMode
	modTime  time.Time
	content  []byte
	isDir    bool
	isLink   bool
	linkDest string
	children map[string]*node
}

// NewMemoryFS creates an empty in-memory filesystem with a root directory.
func NewMemoryFS() *MemoryFS {
	root := &node{
		name:     "/",
		mode:     0o755 | os.ModeDir,
		modTime:  time.Now(),
		isDir:    true,
		children: make(map[string]*node),
	}
	return &MemoryFS{
		nodes:      map[string]*node{"/": root},
		errorPaths: make(map[string]error),
	}
}

// WithError makes every operation on path fail with err.
func (m *MemoryFS) WithError(path string, err error) *MemoryFS {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorPaths[filepath.Clean(path)] = err
	return m
}

func (m *MemoryFS) getNode(path string) (*node, error) {
	path = filepath.Clean(path)
	if err, ok := m.errorPaths[path]; ok {
		return nil, err
	}
	n, ok := m.nodes[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return n, nil
}

// resolve follows a chain of symlinks starting at path.
func (m *MemoryFS) resolve(path string) (*node, error) {
	path = filepath.Clean(path)
	for depth := 0; depth < 40; depth++ {
		n, err := m.getNode(path)
		if err != nil {
			return nil, err
		}
		if !n.isLink {
			return n, nil
		}
		dest := n.linkDest
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(filepath.Dir(path), dest)
		}
		path = dest
	}
	return nil, &fs.PathError{Op: "open", Path: path, Err: errors.New("too many levels of symbolic links")}
}

func (m *MemoryFS) parentOf(path string) (*node, string, error) {
	path = filepath.Clean(path)
	parent, err := m.getNode(filepath.Dir(path))
	if err != nil {
		return nil, "", err
	}
	if !parent.isDir {
		return nil, "", &fs.PathError{Op: "open", Path: filepath.Dir(path), Err: errors.New("not a directory")}
	}
	return parent, filepath.Base(path), nil
}

// Stat returns info for path, following symlinks.
func (m *MemoryFS) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	return &fileInfo{node: n, name: filepath.Base(name)}, nil
}

// Lstat returns info for path without following symlinks.
func (m *MemoryFS) Lstat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, err := m.getNode(name)
	if err != nil {
		return nil, err
	}
	return &fileInfo{node: n, name: filepath.Base(name)}, nil
}

// ReadFile reads a file's content, following symlinks.
func (m *MemoryFS) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	if n.isDir {
		return nil, &fs.PathError{Op: "read", Path: name, Err: errors.New("is a directory")}
	}
	out := make([]byte, len(n.content))
	copy(out, n.content)
	return out, nil
}

// WriteFile writes data to a file, creating parent directories as needed.
func (m *MemoryFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := filepath.Clean(name)
	if err, ok := m.errorPaths[path]; ok {
		return err
	}

	parent, base, err := m.parentOf(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := m.mkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		parent, base, err = m.parentOf(path)
	}
	if err != nil {
		return err
	}

	n := &node{
		name:    base,
		mode:    perm,
		modTime: time.Now(),
		content: append([]byte(nil), data...),
	}
	parent.children[base] = n
	m.nodes[path] = n
	return nil
}

// ReadDir lists a directory in name order.
func (m *MemoryFS) ReadDir(name string) ([]fs.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	if !n.isDir {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: errors.New("not a directory")}
	}

	names := make([]string, 0, len(n.children))
	for child := range n.children {
		names = append(names, child)
	}
	sort.Strings(names)

	entries := make([]fs.DirEntry, 0, len(names))
	for _, child := range names {
		entries = append(entries, &dirEntry{
			name: child,
			info: &fileInfo{node: n.children[child], name: child},
		})
	}
	return entries, nil
}

// MkdirAll creates a directory and all missing parents.
func (m *MemoryFS) MkdirAll(path string, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mkdirAll(path, perm)
}

func (m *MemoryFS) mkdirAll(path string, perm fs.FileMode) error {
	path = filepath.Clean(path)
	if err, ok := m.errorPaths[path]; ok {
		return err
	}
	if n, ok := m.nodes[path]; ok {
		if !n.isDir {
			return &fs.PathError{Op: "mkdir", Path: path, Err: errors.New("file exists")}
		}
		return nil
	}

	current := "/"
	cur := m.nodes["/"]
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		next := filepath.Join(current, part)
		if child, ok := cur.children[part]; ok {
			if !child.isDir {
				return &fs.PathError{Op: "mkdir", Path: next, Err: errors.New("not a directory")}
			}
			cur, current = child, next
			continue
		}
		dir := &node{
			name:     part,
			mode:     perm | os.ModeDir,
			modTime:  time.Now(),
			isDir:    true,
			children: make(map[string]*node),
		}
		cur.children[part] = dir
		m.nodes[next] = dir
		cur, current = dir, next
	}
	return nil
}

// Symlink creates a link at newname pointing to oldname. Dangling links
// are allowed, as on a real filesystem.
func (m *MemoryFS) Symlink(oldname, newname string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := filepath.Clean(newname)
	if err, ok := m.errorPaths[path]; ok {
		return err
	}
	if _, ok := m.nodes[path]; ok {
		return &fs.PathError{Op: "symlink", Path: newname, Err: os.ErrExist}
	}

	parent, base, err := m.parentOf(path)
	if err != nil {
		return err
	}

	n := &node{
		name:     base,
		mode:     0o777 | os.ModeSymlink,
		modTime:  time.Now(),
		isLink:   true,
		linkDest: oldname,
	}
	parent.children[base] = n
	m.nodes[path] = n
	return nil
}

// Readlink returns the destination of a symlink.
func (m *MemoryFS) Readlink(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, err := m.getNode(name)
	if err != nil {
		return "", err
	}
	if !n.isLink {
		return "", &fs.PathError{Op: "readlink", Path: name, Err: errors.New("invalid argument")}
	}
	return n.linkDest, nil
}

// Remove removes a file, symlink or empty directory.
func (m *MemoryFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := filepath.Clean(name)
	n, err := m.getNode(path)
	if err != nil {
		return err
	}
	if n.isDir && len(n.children) > 0 {
		return &fs.PathError{Op: "remove", Path: name, Err: errors.New("directory not empty")}
	}

	parent, base, err := m.parentOf(path)
	if err != nil {
		return err
	}
	delete(parent.children, base)
	delete(m.nodes, path)
	return nil
}

// RemoveAll removes path and everything below it.
func (m *MemoryFS) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	if err, ok := m.errorPaths[path]; ok {
		return err
	}

	var doomed []string
	for p := range m.nodes {
		if p == path || strings.HasPrefix(p, path+"/") {
			doomed = append(doomed, p)
		}
	}
	for _, p := range doomed {
		delete(m.nodes, p)
		if dir := filepath.Dir(p); dir != p {
			if parent, ok := m.nodes[dir]; ok && parent.isDir {
				delete(parent.children, filepath.Base(p))
			}
		}
	}
	return nil
}

// WriteSpecial creates a node with an arbitrary mode, for exercising
// paths that are neither files, directories nor symlinks.
func (m *MemoryFS) WriteSpecial(name string, mode fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := filepath.Clean(name)
	parent, base, err := m.parentOf(path)
	if err != nil {
		return err
	}
	n := &node{name: base, mode: mode, modTime: time.Now()}
	parent.children[base] = n
	m.nodes[path] = n
	return nil
}

// Exists reports whether a node is present at path (no symlink following).
func (m *MemoryFS) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.nodes[filepath.Clean(name)]
	return ok
}

type fileInfo struct {
	node *node
	name string
}

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return int64(len(fi.node.content)) }
func (fi *fileInfo) Mode() fs.FileMode  { return fi.node.mode }
func (fi *fileInfo) ModTime() time.Time { return fi.node.modTime }
func (fi *fileInfo) IsDir() bool        { return fi.node.isDir }
func (fi *fileInfo) Sys() interface{}   { return nil }

type dirEntry struct {
	name string
	info *fileInfo
}

func (d *dirEntry) Name() string               { return d.name }
func (d *dirEntry) IsDir() bool                { return d.info.IsDir() }
func (d *dirEntry) Type() fs.FileMode          { return d.info.Mode().Type() }
func (d *dirEntry) Info() (fs.FileInfo, error) { return d.info, nil }
