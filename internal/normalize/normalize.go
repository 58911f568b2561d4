// Package normalize turns raw chapter text into document chapters.
//
// Normalization is deterministic: the same entry name and text always yield
// the same title, paragraphs and fingerprint. Ids are assigned by the caller.
package normalize

import (
	"path"
	"strings"
	"unicode"

	"github.com/roach88/novelbackup/internal/archive"
	"github.com/roach88/novelbackup/internal/ir"
)

// Options controls normalization.
type Options struct {
	// Extensions are the chapter extensions stripped from titles.
	// Empty means archive.DefaultExtensions.
	Extensions []string
}

// Chapter builds a chapter from an archive entry. The id is left empty.
//
// The title is the base name of the entry with its chapter extension
// removed. Paragraphs are the trimmed, non-empty lines of the text.
func Chapter(name, text string, order int, opts Options) ir.Chapter {
	paragraphs := Paragraphs(text)
	return ir.Chapter{
		Title:       Title(name, opts),
		Paragraphs:  paragraphs,
		Fingerprint: ir.Fingerprint(paragraphs),
		Order:       order,
	}
}

// Title derives a chapter title from an entry name: "book/Chapter 1.TXT"
// becomes "Chapter 1".
func Title(name string, opts Options) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if ext := archive.MatchExtension(base, opts.Extensions); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// Paragraphs splits text into lines on LF, CRLF or a bare CR, trims each
// line and drops the empty ones. It never returns nil.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = Trim(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Trim removes leading and trailing whitespace, including a stray byte
// order mark.
func Trim(s string) string {
	return strings.TrimFunc(s, isSpace)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
