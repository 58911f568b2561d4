package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// TarSource reads chapter entries from a tar archive, optionally gzip or xz
// compressed. Tar is sequential, so regular files are buffered when the
// source is opened. Files over MaxEntrySize are skipped unread and only fail
// when read as a chapter.
type TarSource struct {
	name    string
	entries []Entry
}

// OpenTar opens the tar archive at path. Compression is chosen by suffix:
// .tar.gz/.tgz (gzip), .tar.xz/.txz (xz), .tar (none).
func OpenTar(path string) (*TarSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tar: %w", err)
	}
	defer f.Close()

	return NewTarSource(path, f, compressionFor(path))
}

// Compression identifies a tar stream compression.
type Compression int

const (
	// CompressionNone is a plain tar stream.
	CompressionNone Compression = iota
	// CompressionGzip is a gzip compressed tar stream.
	CompressionGzip
	// CompressionXZ is an xz compressed tar stream.
	CompressionXZ
)

func compressionFor(path string) Compression {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return CompressionGzip
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return CompressionXZ
	default:
		return CompressionNone
	}
}

// NewTarSource reads a tar stream from r.
func NewTarSource(name string, r io.Reader, c Compression) (*TarSource, error) {
	var reader io.Reader = r
	switch c {
	case CompressionGzip:
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gzr.Close()
		reader = gzr
	case CompressionXZ:
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		reader = xzr
	}

	src := &TarSource{name: name}
	tr := tar.NewReader(reader)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		name := strings.TrimPrefix(header.Name, "./")
		if header.Size > MaxEntrySize {
			src.entries = append(src.entries, oversizedEntry{name: name, size: header.Size})
			continue
		}
		data, err := readLimited(tr, header.Name)
		if err != nil {
			return nil, err
		}
		src.entries = append(src.entries, bytesEntry{name: name, data: data})
	}
	return src, nil
}

// Name returns the archive name.
func (s *TarSource) Name() string { return s.name }

// Entries returns the buffered regular files.
func (s *TarSource) Entries() ([]Entry, error) {
	return append([]Entry(nil), s.entries...), nil
}

// Close is a no-op; the stream is consumed when the source is created.
func (s *TarSource) Close() error { return nil }

type bytesEntry struct {
	name string
	data []byte
}

func (e bytesEntry) Name() string { return e.name }

func (e bytesEntry) ReadText() (string, error) {
	return DecodeText(e.data)
}

// oversizedEntry stands in for a tar member too large to buffer.
type oversizedEntry struct {
	name string
	size int64
}

func (e oversizedEntry) Name() string { return e.name }

func (e oversizedEntry) ReadText() (string, error) {
	return "", fmt.Errorf("entry %s is %d bytes, over the %d byte limit", e.name, e.size, MaxEntrySize)
}
