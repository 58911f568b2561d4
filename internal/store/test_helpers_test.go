package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/novelbackup/internal/ir"
	"github.com/roach88/novelbackup/internal/testutil"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestDocument creates a small valid document.
func createTestDocument(title string, paragraphs ...string) *ir.Document {
	chapters := make([]ir.Chapter, len(paragraphs))
	for i, p := range paragraphs {
		chapters[i] = testutil.Chapter(
			"c"+string(rune('1'+i)),
			"Chapter "+string(rune('1'+i)),
			p,
		)
	}
	return testutil.Document(title, chapters...)
}
