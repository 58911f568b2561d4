package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/roach88/novelbackup/internal/ir"
)

func names(raw []RawChapter) []string {
	out := make([]string, len(raw))
	for i, r := range raw {
		out[i] = r.Name
	}
	return out
}

func TestReadNaturalOrder(t *testing.T) {
	src := NewMemorySource("mem",
		MemoryEntry{EntryName: "chapter10.txt", Content: "Foo"},
		MemoryEntry{EntryName: "chapter2.txt", Content: "Hello\nWorld"},
		MemoryEntry{EntryName: "Chapter1.TXT", Content: "First"},
	)

	raw, err := Read(src, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Chapter1.TXT", "chapter2.txt", "chapter10.txt"}, names(raw))
	assert.Equal(t, "Hello\nWorld", raw[1].Text)
}

func TestReadFiltersNonChapterEntries(t *testing.T) {
	src := NewMemorySource("mem",
		MemoryEntry{EntryName: "cover.jpg", Content: "binary"},
		MemoryEntry{EntryName: "notes.md", Content: "# notes"},
		MemoryEntry{EntryName: "__MACOSX/._chapter1.txt", Content: "junk"},
		MemoryEntry{EntryName: "book/._chapter1.txt", Content: "junk"},
		MemoryEntry{EntryName: ".hidden.txt", Content: "junk"},
		MemoryEntry{EntryName: "book/chapter1.txt", Content: "real"},
	)

	raw, err := Read(src, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"book/chapter1.txt"}, names(raw))
}

func TestReadCustomExtensions(t *testing.T) {
	src := NewMemorySource("mem",
		MemoryEntry{EntryName: "a.txt", Content: "a"},
		MemoryEntry{EntryName: "b.md", Content: "b"},
		MemoryEntry{EntryName: "c.MD", Content: "c"},
	)

	raw, err := Read(src, Options{Extensions: []string{"md"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.md", "c.MD"}, names(raw))
}

func TestReadEmptyArchive(t *testing.T) {
	src := NewMemorySource("empty.zip",
		MemoryEntry{EntryName: "readme.md", Content: "nothing here"},
	)

	_, err := Read(src, Options{})
	require.Error(t, err)
	assert.True(t, ir.IsEmptyArchive(err))

	var e *ir.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "empty.zip", e.Entry)
	assert.Equal(t, "1", e.Details["entries_scanned"])
}

func TestNaturalLessTotalOrder(t *testing.T) {
	less := NaturalLess()

	assert.True(t, less("chapter2", "chapter10"))
	assert.False(t, less("chapter10", "chapter2"))
	assert.True(t, less("a1b2", "a1b10"))
	// Case-insensitive equal names still get a deterministic order.
	assert.NotEqual(t, less("ch1", "CH1"), less("CH1", "ch1"))
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"plain utf8", []byte("Hello"), "Hello"},
		{"utf8 bom", []byte("\xEF\xBB\xBFHello"), "Hello"},
		{"utf16 le bom", []byte("\xFF\xFEH\x00i\x00"), "Hi"},
		{"utf16 be bom", []byte("\xFE\xFF\x00H\x00i"), "Hi"},
		{"invalid utf8", []byte("a\xffb"), "a\uFFFDb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeExtensions(t *testing.T) {
	assert.Equal(t, []string{".txt"}, NormalizeExtensions(nil))
	assert.Equal(t, []string{".md", ".txt"}, NormalizeExtensions([]string{"MD", " .txt ", ""}))
	assert.Equal(t, ".TXT", MatchExtension("a.TXT", nil))
	assert.Equal(t, "", MatchExtension("a.txt.bak", nil))
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("folder/")
	require.NoError(t, err)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestZipSource(t *testing.T) {
	data := zipBytes(t, map[string]string{
		"folder/chapter10.txt": "Foo",
		"folder/chapter2.txt":  "Hello\nWorld",
	})

	src, err := NewZipSource("book.zip", data)
	require.NoError(t, err)
	defer src.Close()

	entries, err := src.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 2, "directory entries are skipped")

	raw, err := Read(src, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"folder/chapter2.txt", "folder/chapter10.txt"}, names(raw))
}

func TestOpenZipFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.zip")
	require.NoError(t, os.WriteFile(path, zipBytes(t, map[string]string{"c1.txt": "x"}), 0644))

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	raw, err := Read(src, Options{})
	require.NoError(t, err)
	assert.Equal(t, "x", raw[0].Text)
	assert.Equal(t, path, src.Name())
}

func tarBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "./book/", Typeflag: tar.TypeDir, Mode: 0755}))
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func TestTarSourceCompressions(t *testing.T) {
	plain := tarBytes(t, map[string]string{
		"./book/chapter2.txt":  "two",
		"./book/chapter10.txt": "ten",
	})

	var gz bytes.Buffer
	gzw := gzip.NewWriter(&gz)
	_, err := gzw.Write(plain)
	require.NoError(t, err)
	require.NoError(t, gzw.Close())

	var xzBuf bytes.Buffer
	xzw, err := xz.NewWriter(&xzBuf)
	require.NoError(t, err)
	_, err = xzw.Write(plain)
	require.NoError(t, err)
	require.NoError(t, xzw.Close())

	tests := []struct {
		name        string
		data        []byte
		compression Compression
	}{
		{"plain", plain, CompressionNone},
		{"gzip", gz.Bytes(), CompressionGzip},
		{"xz", xzBuf.Bytes(), CompressionXZ},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewTarSource("book.tar", bytes.NewReader(tt.data), tt.compression)
			require.NoError(t, err)

			raw, err := Read(src, Options{})
			require.NoError(t, err)
			assert.Equal(t, []string{"book/chapter2.txt", "book/chapter10.txt"}, names(raw))
			assert.Equal(t, "ten", raw[1].Text)
		})
	}
}

// oversizedTarGz returns a gzipped tar holding one chapter and one entry
// named big just over MaxEntrySize.
func oversizedTarGz(t *testing.T, big string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)

	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "chapter1.txt", Mode: 0o644, Size: 3, Typeflag: tar.TypeReg}))
	_, err := tw.Write([]byte("one"))
	require.NoError(t, err)

	size := int64(MaxEntrySize + 1)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: big, Mode: 0o644, Size: size, Typeflag: tar.TypeReg}))
	chunk := make([]byte, 1<<20)
	for written := int64(0); written < size; {
		n := min(int64(len(chunk)), size-written)
		_, err := tw.Write(chunk[:n])
		require.NoError(t, err)
		written += n
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gzw.Close())
	return buf.Bytes()
}

func TestTarSourceOversizedEntry(t *testing.T) {
	t.Run("non-chapter is skipped", func(t *testing.T) {
		data := oversizedTarGz(t, "cover.png")
		src, err := NewTarSource("book.tar.gz", bytes.NewReader(data), CompressionGzip)
		require.NoError(t, err)

		raw, err := Read(src, Options{})
		require.NoError(t, err)
		assert.Equal(t, []string{"chapter1.txt"}, names(raw))
	})

	t.Run("chapter fails on read", func(t *testing.T) {
		data := oversizedTarGz(t, "chapter2.txt")
		src, err := NewTarSource("book.tar.gz", bytes.NewReader(data), CompressionGzip)
		require.NoError(t, err)

		_, err = Read(src, Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chapter2.txt")
	})
}

func TestCompressionFor(t *testing.T) {
	assert.Equal(t, CompressionGzip, compressionFor("a.TAR.GZ"))
	assert.Equal(t, CompressionGzip, compressionFor("a.tgz"))
	assert.Equal(t, CompressionXZ, compressionFor("a.tar.xz"))
	assert.Equal(t, CompressionXZ, compressionFor("a.txz"))
	assert.Equal(t, CompressionNone, compressionFor("a.tar"))
}

func TestDirSource(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "part1"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "part1", "chapter1.txt"), []byte("one"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "chapter0.txt"), []byte("zero"), 0644))

	src, err := Open(root)
	require.NoError(t, err)

	raw, err := Read(src, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"chapter0.txt", "part1/chapter1.txt"}, names(raw))
}

func TestFSSource(t *testing.T) {
	fsys := fstest.MapFS{
		"b.txt": {Data: []byte("b")},
		"a.txt": {Data: []byte("a")},
	}

	raw, err := Read(NewFSSource("mapfs", fsys), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names(raw))
}

func TestOpenRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.rar")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported archive format")

	_, err = Open(filepath.Join(t.TempDir(), "missing.zip"))
	require.Error(t, err)
}
