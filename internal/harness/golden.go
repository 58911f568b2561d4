package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/novelbackup/internal/ir"
)

// snapshotMap converts a run into the generic form accepted by
// ir.MarshalCanonical: one entry per step with its outcome and, for steps
// producing a document, the resulting chapters.
//
// Fingerprints are omitted; paragraphs already pin the content.
func snapshotMap(scenarioName string, result *Result) map[string]any {
	steps := make([]any, len(result.Steps))
	for i, rec := range result.Steps {
		entry := map[string]any{
			"name": rec.Name,
			"op":   rec.Op,
		}

		if rec.Failed() {
			if rec.ErrorCode != "" {
				entry["error_code"] = rec.ErrorCode
			} else {
				entry["error"] = rec.Error
			}
			steps[i] = entry
			continue
		}

		if doc, ok := result.Documents[rec.Name]; ok && rec.Op != OpSnapshot {
			entry["chapters"] = chapterList(doc)
		}
		switch {
		case rec.Merge != nil:
			outcomes := make([]string, len(rec.Merge.Entries))
			for j, e := range rec.Merge.Entries {
				outcomes[j] = string(e.Outcome)
			}
			entry["outcomes"] = outcomes
			entry["counts"] = countsMap(rec)
		case rec.Change != nil:
			entry["counts"] = countsMap(rec)
		}
		if rec.Op == OpSnapshot {
			entry["seq"] = rec.SnapshotSeq
			entry["inserted"] = rec.Inserted
		}
		steps[i] = entry
	}

	return map[string]any{
		"scenario_name": scenarioName,
		"steps":         steps,
	}
}

func chapterList(doc *ir.Document) []any {
	out := make([]any, len(doc.Chapters))
	for i, ch := range doc.Chapters {
		out[i] = map[string]any{
			"id":         ch.ID,
			"order":      ch.Order,
			"title":      ch.Title,
			"paragraphs": ch.Paragraphs,
		}
	}
	return out
}

func countsMap(rec StepRecord) map[string]any {
	counts := reportCounts(rec)
	out := make(map[string]any, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}

// SnapshotJSON returns the canonical JSON snapshot of a run, as stored in
// golden files.
func SnapshotJSON(scenarioName string, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(snapshotMap(scenarioName, result))
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := SnapshotJSON(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
