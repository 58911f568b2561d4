package harness

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/novelbackup/internal/ir"
	"github.com/roach88/novelbackup/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Target   string   // Document or step under test
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Titles   []string // Chapter titles of the target document, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s (%s)\n", e.Type, e.Target)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Titles) > 0 {
		fmt.Fprintf(&buf, "\nChapters:\n")
		for i, title := range e.Titles {
			fmt.Fprintf(&buf, "  [%d] %s\n", i, title)
		}
	}

	return buf.String()
}

// AssertionContext provides what assertions need beyond the result.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertChapterTitles:
		return withDocument(result, a, func(doc *ir.Document) error {
			return assertChapterTitles(doc, a)
		})
	case AssertChapterIDs:
		return withDocument(result, a, func(doc *ir.Document) error {
			return assertChapterIDs(doc, a)
		})
	case AssertChapterCount:
		return withDocument(result, a, func(doc *ir.Document) error {
			return assertChapterCount(doc, a)
		})
	case AssertParagraphs:
		return withDocument(result, a, func(doc *ir.Document) error {
			return assertParagraphs(doc, a)
		})
	case AssertInvariants:
		return withDocument(result, a, func(doc *ir.Document) error {
			if err := ir.Validate(doc); err != nil {
				return &AssertionError{
					Type:     a.Type,
					Target:   a.Document,
					Expected: "document satisfies every invariant",
					Actual:   err.Error(),
					Titles:   titles(doc),
				}
			}
			return nil
		})
	case AssertReportCounts:
		return assertReportCounts(result, a)
	case AssertErrorCode:
		return assertErrorCode(result, a)
	case AssertSnapshotCount:
		return assertSnapshotCount(a, actx)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// withDocument resolves the assertion's document. A document missing because
// its step failed is an assertion failure.
func withDocument(result *Result, a Assertion, fn func(*ir.Document) error) error {
	doc, ok := result.Documents[a.Document]
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Target:   a.Document,
			Expected: "document to exist",
			Actual:   "not produced (its step failed)",
		}
	}
	return fn(doc)
}

func assertChapterTitles(doc *ir.Document, a Assertion) error {
	got := titles(doc)
	if slices.Equal(got, a.Titles) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Target:   a.Document,
		Expected: fmt.Sprintf("%q", a.Titles),
		Actual:   fmt.Sprintf("%q", got),
	}
}

func assertChapterIDs(doc *ir.Document, a Assertion) error {
	got := doc.IDs()
	if slices.Equal(got, a.IDs) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Target:   a.Document,
		Expected: fmt.Sprintf("%q", a.IDs),
		Actual:   fmt.Sprintf("%q", got),
		Titles:   titles(doc),
	}
}

func assertChapterCount(doc *ir.Document, a Assertion) error {
	if len(doc.Chapters) == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Target:   a.Document,
		Expected: fmt.Sprintf("%d chapters", *a.Count),
		Actual:   fmt.Sprintf("%d chapters", len(doc.Chapters)),
		Titles:   titles(doc),
	}
}

func assertParagraphs(doc *ir.Document, a Assertion) error {
	for _, ch := range doc.Chapters {
		if ch.Title != a.Chapter {
			continue
		}
		want := a.Paragraphs
		if want == nil {
			want = []string{}
		}
		if slices.Equal(ch.Paragraphs, want) {
			return nil
		}
		return &AssertionError{
			Type:     a.Type,
			Target:   fmt.Sprintf("%s/%s", a.Document, a.Chapter),
			Expected: fmt.Sprintf("%q", want),
			Actual:   fmt.Sprintf("%q", ch.Paragraphs),
		}
	}
	return &AssertionError{
		Type:     a.Type,
		Target:   a.Document,
		Expected: fmt.Sprintf("a chapter titled %q", a.Chapter),
		Actual:   "no such chapter",
		Titles:   titles(doc),
	}
}

func assertReportCounts(result *Result, a Assertion) error {
	rec, ok := result.Step(a.Step)
	if !ok {
		return fmt.Errorf("step %q did not run", a.Step)
	}
	got := reportCounts(rec)
	if got == nil {
		return &AssertionError{
			Type:     a.Type,
			Target:   a.Step,
			Expected: "a merge or find/replace report",
			Actual:   fmt.Sprintf("%s step produced no report", rec.Op),
		}
	}

	keys := make([]string, 0, len(a.Counts))
	for k := range a.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var mismatches []string
	for _, k := range keys {
		actual, known := got[k]
		switch {
		case !known:
			mismatches = append(mismatches, fmt.Sprintf("%s: unknown counter", k))
		case actual != a.Counts[k]:
			mismatches = append(mismatches, fmt.Sprintf("%s: expected %d, got %d", k, a.Counts[k], actual))
		}
	}
	if len(mismatches) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Target:   a.Step,
		Expected: fmt.Sprintf("%v", a.Counts),
		Actual:   strings.Join(mismatches, "; "),
	}
}

// reportCounts flattens a step's report counters, or returns nil if the
// step has no report.
func reportCounts(rec StepRecord) map[string]int {
	switch {
	case rec.Merge != nil:
		return map[string]int{
			"kept":      rec.Merge.Counts.Kept,
			"skipped":   rec.Merge.Counts.Skipped,
			"conflicts": rec.Merge.Counts.Conflicts,
			"appended":  rec.Merge.Counts.Appended,
		}
	case rec.Change != nil:
		return map[string]int{
			"total_matches":     rec.Change.TotalMatches,
			"chapters_affected": rec.Change.ChaptersAffected,
		}
	}
	return nil
}

func assertErrorCode(result *Result, a Assertion) error {
	rec, ok := result.Step(a.Step)
	if !ok {
		return fmt.Errorf("step %q did not run", a.Step)
	}
	if rec.ErrorCode == a.Code {
		return nil
	}
	actual := "step succeeded"
	if rec.Failed() {
		actual = fmt.Sprintf("code %q: %s", rec.ErrorCode, rec.Error)
	}
	return &AssertionError{
		Type:     a.Type,
		Target:   a.Step,
		Expected: fmt.Sprintf("code %q", a.Code),
		Actual:   actual,
	}
}

func assertSnapshotCount(a Assertion, actx *AssertionContext) error {
	if actx == nil || actx.Store == nil {
		return fmt.Errorf("snapshot_count requires a store")
	}
	ctx := actx.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	history, err := actx.Store.History(ctx, a.Name)
	if err != nil {
		return fmt.Errorf("read history of %q: %w", a.Name, err)
	}
	if len(history) == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Target:   a.Name,
		Expected: fmt.Sprintf("%d snapshots", *a.Count),
		Actual:   fmt.Sprintf("%d snapshots", len(history)),
	}
}

func titles(doc *ir.Document) []string {
	out := make([]string, len(doc.Chapters))
	for i, ch := range doc.Chapters {
		out[i] = ch.Title
	}
	return out
}
