package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// ZipSource reads chapter entries from a ZIP archive.
type ZipSource struct {
	name   string
	reader *zip.Reader
	closer *zip.ReadCloser
}

// OpenZip opens the ZIP archive at path.
func OpenZip(path string) (*ZipSource, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	return &ZipSource{name: path, reader: &rc.Reader, closer: rc}, nil
}

// NewZipSource reads a ZIP archive held in memory.
func NewZipSource(name string, data []byte) (*ZipSource, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read zip: %w", err)
	}
	return &ZipSource{name: name, reader: r}, nil
}

// Name returns the archive name.
func (s *ZipSource) Name() string { return s.name }

// Entries lists the non-directory files of the archive.
func (s *ZipSource) Entries() ([]Entry, error) {
	entries := make([]Entry, 0, len(s.reader.File))
	for _, f := range s.reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, zipEntry{file: f})
	}
	return entries, nil
}

// Close closes the underlying file, if the source owns one.
func (s *ZipSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

type zipEntry struct {
	file *zip.File
}

func (e zipEntry) Name() string { return e.file.Name }

func (e zipEntry) ReadText() (string, error) {
	rc, err := e.file.Open()
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer rc.Close()

	data, err := readLimited(rc, e.file.Name)
	if err != nil {
		return "", err
	}
	return DecodeText(data)
}
