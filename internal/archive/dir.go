package archive

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirSource reads chapter entries from a directory tree. Entry names are
// slash-separated paths relative to the root.
type DirSource struct {
	root string
	fsys fs.FS
}

// OpenDir returns a source over the directory at root.
func OpenDir(root string) (*DirSource, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("open dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open dir: not a directory: %s", root)
	}
	return &DirSource{root: root, fsys: os.DirFS(root)}, nil
}

// NewFSSource returns a source over an arbitrary fs.FS.
func NewFSSource(name string, fsys fs.FS) *DirSource {
	return &DirSource{root: name, fsys: fsys}
}

// Name returns the root directory.
func (s *DirSource) Name() string { return s.root }

// Entries walks the tree and lists every regular file.
func (s *DirSource) Entries() ([]Entry, error) {
	var entries []Entry
	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		entries = append(entries, dirEntry{fsys: s.fsys, name: filepath.ToSlash(p)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}
	return entries, nil
}

// Close is a no-op.
func (s *DirSource) Close() error { return nil }

type dirEntry struct {
	fsys fs.FS
	name string
}

func (e dirEntry) Name() string { return e.name }

func (e dirEntry) ReadText() (string, error) {
	f, err := e.fsys.Open(e.name)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	data, err := readLimited(f, e.name)
	if err != nil {
		return "", err
	}
	return DecodeText(data)
}
