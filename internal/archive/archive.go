// Package archive decodes chapter archives into ordered raw chapter candidates.
//
// An archive is any container of named text entries: a ZIP file, a tar file
// (optionally gzip or xz compressed), a plain directory, or an in-memory list.
// Every variant exposes its entries through the Entry interface, so the
// reader below never cares where the text came from.
package archive

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/roach88/novelbackup/internal/ir"
)

// DefaultExtensions lists the chapter file extensions recognised when no
// explicit list is configured.
var DefaultExtensions = []string{".txt"}

// Entry is a named readable text source inside an archive.
type Entry interface {
	// Name is the entry path inside the archive, using forward slashes.
	Name() string

	// ReadText returns the decoded entry content.
	ReadText() (string, error)
}

// Source is an archive of entries.
type Source interface {
	// Name identifies the archive in errors (usually its path).
	Name() string

	// Entries lists every file entry. Directories are never returned.
	Entries() ([]Entry, error)

	// Close releases any resources held by the source.
	Close() error
}

// RawChapter is a chapter candidate before normalization.
type RawChapter struct {
	Name string
	Text string
}

// Options controls which entries qualify as chapter files.
type Options struct {
	// Extensions are matched case-insensitively against the entry name.
	// Empty means DefaultExtensions.
	Extensions []string
}

// NormalizeExtensions returns lowercase extensions with a leading dot,
// falling back to DefaultExtensions when exts is empty.
func NormalizeExtensions(exts []string) []string {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// MatchExtension returns the recognised extension of name (as spelled in
// name) or "" if name is not a chapter file.
func MatchExtension(name string, exts []string) string {
	ext := path.Ext(name)
	if ext == "" {
		return ""
	}
	for _, want := range NormalizeExtensions(exts) {
		if strings.EqualFold(ext, want) {
			return ext
		}
	}
	return ""
}

// Qualifies reports whether an entry name is a chapter file: it has a
// recognised extension and is not a hidden file or macOS resource fork.
func Qualifies(name string, exts []string) bool {
	if strings.HasPrefix(name, "__MACOSX/") || strings.Contains(name, "/__MACOSX/") {
		return false
	}
	if strings.HasPrefix(path.Base(name), ".") {
		return false
	}
	return MatchExtension(name, exts) != ""
}

// Read returns the chapter entries of src as raw chapters, ordered by a
// natural, numeric-aware comparison of their names ("chapter2" before
// "chapter10").
//
// Fails with an EMPTY_ARCHIVE error if no entry qualifies.
func Read(src Source, opts Options) ([]RawChapter, error) {
	entries, err := src.Entries()
	if err != nil {
		return nil, fmt.Errorf("list entries of %s: %w", src.Name(), err)
	}

	var chapters []Entry
	for _, e := range entries {
		if Qualifies(e.Name(), opts.Extensions) {
			chapters = append(chapters, e)
		}
	}
	if len(chapters) == 0 {
		return nil, ir.NewEmptyArchiveError(src.Name(), len(entries))
	}

	SortEntries(chapters)

	raw := make([]RawChapter, 0, len(chapters))
	for _, e := range chapters {
		text, err := e.ReadText()
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", e.Name(), err)
		}
		raw = append(raw, RawChapter{Name: e.Name(), Text: text})
	}
	return raw, nil
}

// SortEntries sorts entries by NaturalLess on their names.
func SortEntries(entries []Entry) {
	less := NaturalLess()
	sort.SliceStable(entries, func(i, j int) bool {
		return less(entries[i].Name(), entries[j].Name())
	})
}

// NaturalLess returns a comparison that orders digit runs numerically and
// ignores case and diacritics, with a byte comparison as the final
// tie-break so the order is total.
//
// The returned function is not safe for concurrent use.
func NaturalLess() func(a, b string) bool {
	c := collate.New(language.Und, collate.Numeric, collate.IgnoreCase, collate.IgnoreDiacritics)
	return func(a, b string) bool {
		if r := c.CompareString(a, b); r != 0 {
			return r < 0
		}
		return a < b
	}
}
