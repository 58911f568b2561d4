package harness

import (
	"context"
	"fmt"

	"github.com/roach88/novelbackup/internal/archive"
	"github.com/roach88/novelbackup/internal/engine"
	"github.com/roach88/novelbackup/internal/ir"
	"github.com/roach88/novelbackup/internal/logging"
	"github.com/roach88/novelbackup/internal/normalize"
	"github.com/roach88/novelbackup/internal/store"
	"github.com/roach88/novelbackup/internal/testutil"
)

// Harness executes scenario steps against a real engine.
type Harness struct {
	scenario *Scenario
	engine   *engine.Engine
	store    *store.Store
}

// Run executes a scenario and returns the result.
//
// Each scenario runs with a fresh engine whose ids come from a sequential
// source, and a fresh in-memory snapshot store, so two runs of the same
// scenario produce identical results.
//
// Execution flow:
//  1. Materialize the inline documents
//  2. Run each step, recording its result or error
//  3. Flag step failures no error_code assertion accounts for
//  4. Evaluate assertions
//
// The returned error is reserved for harness failures such as a store that
// cannot be opened. Engine errors are step outcomes.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		scenario: scenario,
		engine: engine.New(
			engine.WithIDSource(testutil.NewSequentialIDs(scenario.IDPrefix)),
			engine.WithLogger(logging.Discard()),
		),
		store: st,
	}

	result := NewResult()
	for name, spec := range scenario.Documents {
		result.Documents[name] = buildDocument(spec)
	}

	ctx := context.Background()
	for i, step := range scenario.Steps {
		rec, err := h.executeStep(ctx, step, result)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.As, err)
		}
		result.Steps = append(result.Steps, rec)
	}

	expected := expectedFailures(scenario.Assertions)
	for _, rec := range result.Steps {
		if rec.Failed() && !expected[rec.Name] {
			result.AddError(fmt.Sprintf("step %q (%s) failed: %s", rec.Name, rec.Op, rec.Error))
		}
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// executeStep runs one step. A missing input (because the step producing it
// failed) is recorded as a step failure rather than a harness error.
func (h *Harness) executeStep(ctx context.Context, step Step, result *Result) (StepRecord, error) {
	rec := StepRecord{Op: step.Op, Name: step.As}

	input := func(name string) (*ir.Document, bool) {
		doc, ok := result.Documents[name]
		if !ok {
			rec.Error = fmt.Sprintf("input %q is unavailable", name)
		}
		return doc, ok
	}

	var (
		doc *ir.Document
		err error
	)
	switch step.Op {
	case OpBuild:
		doc, err = h.engine.Build(h.archive(step.Archive), ir.Metadata{Title: step.Title, Author: step.Author})

	case OpMerge:
		base, ok := input(step.Base)
		if !ok {
			return rec, nil
		}
		incoming, ok := input(step.Incoming)
		if !ok {
			return rec, nil
		}
		doc, rec.Merge, err = h.engine.Merge(base, incoming)

	case OpAugment:
		base, ok := input(step.Document)
		if !ok {
			return rec, nil
		}
		doc, rec.Merge, err = h.engine.Augment(base, h.archive(step.Archive))

	case OpReplace:
		base, ok := input(step.Document)
		if !ok {
			return rec, nil
		}
		doc, rec.Change, err = h.engine.FindReplace(base, replaceRequest(step))

	case OpSnapshot:
		base, ok := input(step.Document)
		if !ok {
			return rec, nil
		}
		snap, inserted, serr := h.store.SaveSnapshot(ctx, step.SnapshotName(), OpSnapshot, base)
		if serr != nil {
			setError(&rec, serr)
			return rec, nil
		}
		rec.SnapshotSeq = snap.Seq
		rec.Inserted = inserted
		return rec, nil

	default:
		return rec, fmt.Errorf("unknown op %q", step.Op)
	}

	if err != nil {
		setError(&rec, err)
		return rec, nil
	}
	result.Documents[step.As] = doc
	return rec, nil
}

// archive returns a fresh in-memory source for the named scenario archive.
func (h *Harness) archive(name string) archive.Source {
	specs := h.scenario.Archives[name]
	entries := make([]archive.MemoryEntry, len(specs))
	for i, e := range specs {
		entries[i] = archive.MemoryEntry{EntryName: e.Name, Content: e.Text}
	}
	return archive.NewMemorySource(name, entries...)
}

func setError(rec *StepRecord, err error) {
	rec.ErrorCode = string(ir.CodeOf(err))
	rec.Error = err.Error()
}

func replaceRequest(step Step) engine.Request {
	scope := engine.AllChapters()
	if len(step.Chapters) > 0 {
		scope = engine.ChapterIDs(step.Chapters...)
	}
	return engine.Request{
		Pattern:     step.Find,
		Replacement: step.Replace,
		Options: engine.Options{
			IgnoreCase: step.IgnoreCase,
			Regex:      step.Regex,
			WholeWord:  step.WholeWord,
		},
		Scope: scope,
	}
}

// buildDocument materializes an inline document. It is not validated: a
// scenario may deliberately feed the engine a bad document.
func buildDocument(spec DocumentSpec) *ir.Document {
	chapters := make([]ir.Chapter, len(spec.Chapters))
	for i, ch := range spec.Chapters {
		chapters[i] = testutil.Chapter(ch.ID, ch.Title, normalize.Paragraphs(ch.Text)...)
	}
	doc := testutil.Document(spec.Title, chapters...)
	doc.Author = spec.Author
	if spec.FormatVersion != 0 {
		doc.FormatVersion = spec.FormatVersion
	}
	return doc
}

// expectedFailures returns the steps named by error_code assertions.
func expectedFailures(assertions []Assertion) map[string]bool {
	out := make(map[string]bool)
	for _, a := range assertions {
		if a.Type == AssertErrorCode {
			out[a.Step] = true
		}
	}
	return out
}
