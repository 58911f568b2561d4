package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a reconciliation scenario.
// A scenario declares input documents and archives, runs a list of engine
// operations over them and asserts on the named results.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// IDPrefix is the prefix of the sequential chapter ids drawn by the
	// engine ("ch" when empty), so ids in assertions and goldens are stable.
	IDPrefix string `yaml:"id_prefix,omitempty"`

	// Documents are inline backup documents, keyed by name.
	Documents map[string]DocumentSpec `yaml:"documents,omitempty"`

	// Archives are in-memory chapter archives, keyed by name.
	Archives map[string][]EntrySpec `yaml:"archives,omitempty"`

	// Steps run in order. Each stores its result under Step.As.
	Steps []Step `yaml:"steps"`

	// Assertions validate the named results once every step has run.
	Assertions []Assertion `yaml:"assertions"`
}

// DocumentSpec is an inline backup document.
type DocumentSpec struct {
	Title  string `yaml:"title,omitempty"`
	Author string `yaml:"author,omitempty"`

	// FormatVersion defaults to the current format when zero.
	FormatVersion int `yaml:"format_version,omitempty"`

	Chapters []ChapterSpec `yaml:"chapters"`
}

// ChapterSpec is an inline chapter. Text is normalized into paragraphs the
// same way archive entries are.
type ChapterSpec struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

// EntrySpec is one entry of an in-memory archive.
type EntrySpec struct {
	Name string `yaml:"name"`
	Text string `yaml:"text"`
}

// Step is one engine operation.
type Step struct {
	// Op is one of build, merge, augment, replace, snapshot.
	Op string `yaml:"op"`

	// As names the step result. Later steps and assertions refer to it.
	As string `yaml:"as"`

	// Archive names the source archive (build, augment).
	Archive string `yaml:"archive,omitempty"`

	// Title and Author are the metadata of a built document (build).
	Title  string `yaml:"title,omitempty"`
	Author string `yaml:"author,omitempty"`

	// Base and Incoming name the merge inputs (merge).
	Base     string `yaml:"base,omitempty"`
	Incoming string `yaml:"incoming,omitempty"`

	// Document names the input document (augment, replace, snapshot).
	Document string `yaml:"document,omitempty"`

	// Find/replace parameters (replace). Chapters empty means every chapter.
	Find       string   `yaml:"find,omitempty"`
	Replace    string   `yaml:"replace,omitempty"`
	Regex      bool     `yaml:"regex,omitempty"`
	IgnoreCase bool     `yaml:"ignore_case,omitempty"`
	WholeWord  bool     `yaml:"whole_word,omitempty"`
	Chapters   []string `yaml:"chapters,omitempty"`

	// Snapshot is the store name a document is saved under (snapshot).
	// Defaults to As.
	Snapshot string `yaml:"snapshot,omitempty"`
}

// SnapshotName returns the store name used by a snapshot step.
func (s Step) SnapshotName() string {
	if s.Snapshot != "" {
		return s.Snapshot
	}
	return s.As
}

// Step operation constants.
const (
	OpBuild    = "build"
	OpMerge    = "merge"
	OpAugment  = "augment"
	OpReplace  = "replace"
	OpSnapshot = "snapshot"
)

// Assertion validates a named result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "chapter_titles": document chapter titles, in order
	// - "chapter_ids": document chapter ids, in order
	// - "chapter_count": number of chapters in a document
	// - "report_counts": merge or find/replace report counters of a step
	// - "paragraphs": paragraphs of the first chapter with a given title
	// - "error_code": a step failed with the given error code
	// - "invariants": a document passes ir.Validate
	// - "snapshot_count": number of snapshots stored under a name
	Type string `yaml:"type"`

	// Document names the document under test.
	Document string `yaml:"document,omitempty"`

	// Step names the step under test (report_counts, error_code).
	Step string `yaml:"step,omitempty"`

	// Titles is the expected title list (chapter_titles).
	Titles []string `yaml:"titles,omitempty"`

	// IDs is the expected id list (chapter_ids).
	IDs []string `yaml:"ids,omitempty"`

	// Count is the expected count (chapter_count, snapshot_count).
	Count *int `yaml:"count,omitempty"`

	// Counts are the expected report counters (report_counts).
	// Only the listed counters are compared.
	Counts map[string]int `yaml:"counts,omitempty"`

	// Chapter is the chapter title to look up (paragraphs).
	Chapter string `yaml:"chapter,omitempty"`

	// Paragraphs are the expected paragraphs (paragraphs).
	Paragraphs []string `yaml:"paragraphs,omitempty"`

	// Code is the expected error code (error_code).
	Code string `yaml:"code,omitempty"`

	// Name is the snapshot name (snapshot_count).
	Name string `yaml:"name,omitempty"`
}

// Assertion type constants.
const (
	AssertChapterTitles = "chapter_titles"
	AssertChapterIDs    = "chapter_ids"
	AssertChapterCount  = "chapter_count"
	AssertReportCounts  = "report_counts"
	AssertParagraphs    = "paragraphs"
	AssertErrorCode     = "error_code"
	AssertInvariants    = "invariants"
	AssertSnapshotCount = "snapshot_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or refers to undefined inputs.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks required fields and that every step and assertion
// only refers to names defined before it.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if len(s.Steps) == 0 {
		return errors.New("at least one step is required")
	}

	docs := make(map[string]bool, len(s.Documents)+len(s.Steps))
	for name, d := range s.Documents {
		for i, ch := range d.Chapters {
			if ch.ID == "" {
				return fmt.Errorf("documents.%s.chapters[%d]: id is required", name, i)
			}
		}
		docs[name] = true
	}
	steps := make(map[string]bool, len(s.Steps))
	snapshots := make(map[string]bool)

	needDoc := func(i int, field, name string) error {
		if name == "" {
			return fmt.Errorf("steps[%d]: %s is required for %s", i, field, s.Steps[i].Op)
		}
		if !docs[name] {
			return fmt.Errorf("steps[%d]: %s %q is not defined", i, field, name)
		}
		return nil
	}
	needArchive := func(i int, name string) error {
		if name == "" {
			return fmt.Errorf("steps[%d]: archive is required for %s", i, s.Steps[i].Op)
		}
		if _, ok := s.Archives[name]; !ok {
			return fmt.Errorf("steps[%d]: archive %q is not defined", i, name)
		}
		return nil
	}

	for i, step := range s.Steps {
		if step.As == "" {
			return fmt.Errorf("steps[%d]: as is required", i)
		}
		if steps[step.As] || docs[step.As] {
			return fmt.Errorf("steps[%d]: result name %q already used", i, step.As)
		}

		var err error
		switch step.Op {
		case OpBuild:
			err = needArchive(i, step.Archive)
		case OpMerge:
			if err = needDoc(i, "base", step.Base); err == nil {
				err = needDoc(i, "incoming", step.Incoming)
			}
		case OpAugment:
			if err = needDoc(i, "document", step.Document); err == nil {
				err = needArchive(i, step.Archive)
			}
		case OpReplace:
			err = needDoc(i, "document", step.Document)
		case OpSnapshot:
			err = needDoc(i, "document", step.Document)
		default:
			err = fmt.Errorf("steps[%d]: unknown op %q (valid: build, merge, augment, replace, snapshot)", i, step.Op)
		}
		if err != nil {
			return err
		}

		steps[step.As] = true
		if step.Op == OpSnapshot {
			snapshots[step.SnapshotName()] = true
		} else {
			docs[step.As] = true
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, docs, steps, snapshots); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}

	return nil
}

// validateAssertion checks that an assertion has the fields its type needs.
func validateAssertion(a Assertion, docs, steps, snapshots map[string]bool) error {
	needDoc := func() error {
		if a.Document == "" {
			return fmt.Errorf("%s requires 'document' field", a.Type)
		}
		if !docs[a.Document] {
			return fmt.Errorf("%s: document %q is not defined", a.Type, a.Document)
		}
		return nil
	}
	needStep := func() error {
		if a.Step == "" {
			return fmt.Errorf("%s requires 'step' field", a.Type)
		}
		if !steps[a.Step] {
			return fmt.Errorf("%s: step %q is not defined", a.Type, a.Step)
		}
		return nil
	}

	switch a.Type {
	case AssertChapterTitles:
		if err := needDoc(); err != nil {
			return err
		}
		if a.Titles == nil {
			return errors.New("chapter_titles requires 'titles' field")
		}
	case AssertChapterIDs:
		if err := needDoc(); err != nil {
			return err
		}
		if a.IDs == nil {
			return errors.New("chapter_ids requires 'ids' field")
		}
	case AssertChapterCount:
		if err := needDoc(); err != nil {
			return err
		}
		if a.Count == nil {
			return errors.New("chapter_count requires 'count' field")
		}
	case AssertReportCounts:
		if err := needStep(); err != nil {
			return err
		}
		if len(a.Counts) == 0 {
			return errors.New("report_counts requires 'counts' field")
		}
	case AssertParagraphs:
		if err := needDoc(); err != nil {
			return err
		}
		if a.Chapter == "" {
			return errors.New("paragraphs requires 'chapter' field")
		}
	case AssertErrorCode:
		if err := needStep(); err != nil {
			return err
		}
		if a.Code == "" {
			return errors.New("error_code requires 'code' field")
		}
	case AssertInvariants:
		return needDoc()
	case AssertSnapshotCount:
		if a.Name == "" {
			return errors.New("snapshot_count requires 'name' field")
		}
		if !snapshots[a.Name] {
			return fmt.Errorf("snapshot_count: snapshot %q is never taken", a.Name)
		}
		if a.Count == nil {
			return errors.New("snapshot_count requires 'count' field")
		}
	case "":
		return errors.New("assertion type is required")
	default:
		return fmt.Errorf("unknown assertion type: %q (valid: chapter_titles, chapter_ids, chapter_count, report_counts, paragraphs, error_code, invariants, snapshot_count)", a.Type)
	}
	return nil
}
