package engine

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/novelbackup/internal/ir"
	"github.com/roach88/novelbackup/internal/normalize"
)

// Options controls pattern matching in FindReplace. The zero value matches
// the pattern literally and case-sensitively.
type Options struct {
	// IgnoreCase folds case (Unicode simple folding).
	IgnoreCase bool

	// Regex treats the pattern as an RE2 regular expression and expands
	// $1 / ${name} in the replacement. Otherwise both are literal.
	Regex bool

	// WholeWord rejects a match that touches a word rune on either side.
	// Letters, digits and combining marks of every script count, as does '_'.
	WholeWord bool
}

// Scope selects the chapters FindReplace edits.
type Scope struct {
	all bool
	ids []string
}

// AllChapters selects every chapter.
func AllChapters() Scope {
	return Scope{all: true}
}

// ChapterIDs selects the chapters with the given ids.
func ChapterIDs(ids ...string) Scope {
	return Scope{ids: append([]string(nil), ids...)}
}

// All reports whether the scope selects every chapter.
func (s Scope) All() bool { return s.all }

// IDs returns the selected ids (nil for AllChapters).
func (s Scope) IDs() []string { return append([]string(nil), s.ids...) }

// Request describes a find/replace run.
type Request struct {
	Pattern     string
	Replacement string
	Options     Options
	Scope       Scope
}

// Compile returns the regular expression matching r.Pattern under r.Options.
//
// Fails with an INVALID_PATTERN error if the pattern is empty or does not
// compile.
func (r Request) Compile() (*regexp.Regexp, error) {
	if r.Pattern == "" {
		return nil, ir.NewInvalidPatternError(r.Pattern, nil)
	}
	expr := r.Pattern
	if !r.Options.Regex {
		expr = regexp.QuoteMeta(expr)
	}
	if r.Options.IgnoreCase {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, ir.NewInvalidPatternError(r.Pattern, err)
	}
	return re, nil
}

// FindReplace replaces every non-overlapping match of the request pattern in
// the in-scope chapters of doc.
//
// Paragraphs are matched independently and empty matches are ignored. A
// paragraph changed by a replacement is re-split into lines, trimmed and
// dropped if empty, so a replacement may introduce line breaks or erase a
// paragraph without breaking document invariants. Chapters are never added, removed or
// reordered; ids, titles and orders stay the same, and a chapter whose text
// did not change keeps its fingerprint.
//
// Fails with INVALID_PATTERN for an unusable pattern and UNKNOWN_CHAPTER if
// the scope names an id not in doc.
func (e *Engine) FindReplace(doc *ir.Document, req Request) (*ir.Document, *ChangeReport, error) {
	if err := checkInput("document", doc); err != nil {
		return nil, nil, err
	}
	re, err := req.Compile()
	if err != nil {
		return nil, nil, err
	}

	inScope := func(string) bool { return true }
	if !req.Scope.All() {
		ids := make(map[string]bool, len(req.Scope.ids))
		for _, id := range req.Scope.ids {
			if _, ok := doc.ChapterByID(id); !ok {
				return nil, nil, ir.NewUnknownChapterError(id)
			}
			ids[id] = true
		}
		inScope = func(id string) bool { return ids[id] }
	}

	out := doc.Clone()
	out.FormatVersion = ir.CurrentFormatVersion
	report := &ChangeReport{Chapters: []ChapterChange{}}

	for i, ch := range out.Chapters {
		if !inScope(ch.ID) {
			continue
		}
		paragraphs, matches := replaceParagraphs(re, ch.Paragraphs, req.Replacement, req.Options.Regex, req.Options.WholeWord)
		changed := !slices.Equal(paragraphs, ch.Paragraphs)
		if changed {
			ch.Paragraphs = paragraphs
			ch.Fingerprint = ir.Fingerprint(paragraphs)
			out.Chapters[i] = ch
			report.ChaptersAffected++
		}
		report.TotalMatches += matches
		report.Chapters = append(report.Chapters, ChapterChange{
			ID:      ch.ID,
			Title:   ch.Title,
			Matches: matches,
			Changed: changed,
		})

		if matches > 0 {
			e.logger.Debug("chapter matched",
				"id", ch.ID,
				"matches", matches,
				"changed", changed,
			)
		}
	}

	if err := ir.Validate(out); err != nil {
		return nil, nil, fmt.Errorf("edited document: %w", err)
	}
	e.notifier.Notify(Event{
		Operation: OperationFindReplace,
		Title:     out.Title,
		Chapters:  len(out.Chapters),
		Summary:   report.summary(),
	})
	return out, report, nil
}

func replaceParagraphs(re *regexp.Regexp, paragraphs []string, repl string, expand, wholeWord bool) ([]string, int) {
	out := make([]string, 0, len(paragraphs))
	total := 0
	for _, p := range paragraphs {
		matches := findMatches(re, p, wholeWord)
		if len(matches) == 0 {
			out = append(out, p)
			continue
		}
		total += len(matches)

		var b strings.Builder
		last := 0
		for _, m := range matches {
			b.WriteString(p[last:m[0]])
			if expand {
				b.Write(re.ExpandString(nil, repl, p, m))
			} else {
				b.WriteString(repl)
			}
			last = m[1]
		}
		b.WriteString(p[last:])

		replaced := b.String()
		if replaced == p {
			out = append(out, p)
			continue
		}
		out = append(out, normalize.Paragraphs(replaced)...)
	}
	return out, total
}

// findMatches returns the submatch indexes of every non-empty match in p.
// With wholeWord set, matches touching a word rune on either side are
// dropped.
func findMatches(re *regexp.Regexp, p string, wholeWord bool) [][]int {
	var kept [][]int
	for _, m := range re.FindAllStringSubmatchIndex(p, -1) {
		if m[0] == m[1] {
			continue
		}
		if wholeWord && !atWordBoundary(p, m[0], m[1]) {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

func atWordBoundary(p string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(p[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(p) {
		if r, _ := utf8.DecodeRuneInString(p[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
