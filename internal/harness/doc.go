// Package harness runs reconciliation scenarios against the engine.
//
// A scenario declares inline backup documents and in-memory archives, runs
// engine operations over them and asserts on the named results. Scenarios
// double as executable examples of the merge rules.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: augment_append
//	description: "A new chapter from an archive is appended"
//	documents:
//	  base:
//	    title: Novel
//	    chapters:
//	      - id: b1
//	        title: Chapter 1
//	        text: "Hello"
//	archives:
//	  update:
//	    - name: chapter1.txt
//	      text: "Hello again"
//	steps:
//	  - op: augment
//	    document: base
//	    archive: update
//	    as: augmented
//	assertions:
//	  - type: chapter_titles
//	    document: augmented
//	    titles: ["Chapter 1", "chapter1"]
//	  - type: report_counts
//	    step: augmented
//	    counts: { appended: 1 }
//
// Inline chapter text is split into paragraphs exactly like archive entries.
//
// # Steps
//
//   - build: archive (+ title, author) → document
//   - merge: base + incoming → document and merge report
//   - augment: document + archive → document and merge report
//   - replace: document + find/replace options → document and change report
//   - snapshot: document → snapshot in the scenario's in-memory store
//
// A failing step records its error code instead of a document. Unless an
// error_code assertion names the step, the failure fails the scenario.
//
// # Assertion Types
//
//   - chapter_titles: chapter titles of a document, in order
//   - chapter_ids: chapter ids of a document, in order
//   - chapter_count: number of chapters in a document
//   - report_counts: a subset of a step's report counters
//   - paragraphs: paragraphs of the first chapter with a given title
//   - error_code: a step failed with the given code
//   - invariants: a document passes ir.Validate
//   - snapshot_count: number of snapshots stored under a name
//
// # Deterministic Testing
//
// Chapter ids come from testutil.SequentialIDs ("ch-0001", "ch-0002", ...,
// or a custom id_prefix), so ids are stable across runs and golden
// snapshots compare byte for byte.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/title_conflict.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
