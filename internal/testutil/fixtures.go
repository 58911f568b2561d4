package testutil

import (
	"github.com/roach88/novelbackup/internal/archive"
	"github.com/roach88/novelbackup/internal/ir"
)

// Chapter builds a chapter with a correct fingerprint. The order is fixed
// up by Document.
func Chapter(id, title string, paragraphs ...string) ir.Chapter {
	if paragraphs == nil {
		paragraphs = []string{}
	}
	return ir.Chapter{
		ID:          id,
		Title:       title,
		Paragraphs:  paragraphs,
		Fingerprint: ir.Fingerprint(paragraphs),
	}
}

// Document builds a current-format document from chapters, numbering them
// in the given order.
func Document(title string, chapters ...ir.Chapter) *ir.Document {
	return &ir.Document{
		FormatVersion: ir.CurrentFormatVersion,
		Title:         title,
		Chapters:      ir.Renumber(chapters),
	}
}

// Archive builds an in-memory archive from name/content pairs:
//
//	Archive("book.zip", "chapter1.txt", "Hello", "chapter2.txt", "World")
//
// Panics on an odd number of arguments.
func Archive(name string, pairs ...string) *archive.MemorySource {
	if len(pairs)%2 != 0 {
		panic("testutil.Archive: pairs must be name/content")
	}
	entries := make([]archive.MemoryEntry, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		entries = append(entries, archive.MemoryEntry{EntryName: pairs[i], Content: pairs[i+1]})
	}
	return archive.NewMemorySource(name, entries...)
}

// Titles returns the chapter titles of d in order.
func Titles(d *ir.Document) []string {
	out := make([]string, len(d.Chapters))
	for i, ch := range d.Chapters {
		out[i] = ch.Title
	}
	return out
}
