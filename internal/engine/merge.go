package engine

import (
	"fmt"

	"github.com/roach88/novelbackup/internal/ir"
)

// Merge reconciles incoming into base and returns the merged document with
// one report entry per incoming chapter.
//
// Chapter identity is the content fingerprint:
//   - an incoming chapter whose fingerprint is already present is skipped
//   - a new chapter whose title matches a base chapter is a conflict: it is
//     kept as "<title> (n)" and placed right after that base chapter
//   - any other new chapter is appended after all base chapters
//
// Suffixes start at 2 and are assigned in incoming order, skipping any title
// already present in the result. Base chapters keep their ids; kept incoming
// chapters get fresh ones. Orders are renumbered densely. Title and author
// come from base.
//
// Fails with an INCOMPATIBLE_FORMAT error if either document has an
// unsupported format version. Neither input is modified.
func (e *Engine) Merge(base, incoming *ir.Document) (*ir.Document, *MergeReport, error) {
	doc, report, err := e.merge(base, incoming)
	if err != nil {
		return nil, nil, err
	}
	e.notifier.Notify(Event{
		Operation: OperationMerge,
		Title:     doc.Title,
		Chapters:  len(doc.Chapters),
		Summary:   report.summary(),
	})
	return doc, report, nil
}

func (e *Engine) merge(base, incoming *ir.Document) (*ir.Document, *MergeReport, error) {
	if err := checkInput("base", base); err != nil {
		return nil, nil, err
	}
	if err := checkInput("incoming", incoming); err != nil {
		return nil, nil, err
	}

	// seen maps fingerprints to the chapter id holding that content.
	seen := make(map[string]string, len(base.Chapters)+len(incoming.Chapters))
	// counterpart maps a title to the index of the first base chapter with it.
	counterpart := make(map[string]int, len(base.Chapters))
	used := make(map[string]bool, len(base.Chapters)+len(incoming.Chapters))
	titles := make(map[string]bool, len(base.Chapters))

	for i, ch := range base.Chapters {
		if _, ok := seen[ch.Fingerprint]; !ok {
			seen[ch.Fingerprint] = ch.ID
		}
		if _, ok := counterpart[ch.Title]; !ok {
			counterpart[ch.Title] = i
		}
		used[ch.ID] = true
		titles[ch.Title] = true
	}

	report := &MergeReport{
		Entries: make([]MergeEntry, 0, len(incoming.Chapters)),
		Counts:  MergeCounts{Kept: len(base.Chapters)},
	}
	insertions := make([][]ir.Chapter, len(base.Chapters))
	var appended []ir.Chapter
	nextSuffix := make(map[string]int)

	for i, ch := range incoming.Chapters {
		entry := MergeEntry{Incoming: i, SourceID: ch.ID, Title: ch.Title}

		if id, ok := seen[ch.Fingerprint]; ok {
			entry.Outcome = OutcomeSkipped
			entry.Reason = ReasonIdentical
			entry.MatchedID = id
			report.Counts.Skipped++
			report.Entries = append(report.Entries, entry)
			e.logger.Debug("incoming chapter skipped",
				"incoming", i,
				"title", ch.Title,
				"matched", id,
			)
			continue
		}

		out := ch.Clone()
		out.ID = e.freshID(used)

		if idx, ok := counterpart[ch.Title]; ok {
			out.Title = conflictTitle(ch.Title, nextSuffix, titles)
			insertions[idx] = append(insertions[idx], out)

			entry.Outcome = OutcomeConflict
			entry.Reason = ReasonConflict
			entry.MatchedID = base.Chapters[idx].ID
			report.Counts.Conflicts++
		} else {
			appended = append(appended, out)

			entry.Outcome = OutcomeAppended
			entry.Reason = ReasonNew
			report.Counts.Appended++
		}
		entry.ResultID = out.ID
		entry.ResultTitle = out.Title
		report.Entries = append(report.Entries, entry)

		titles[out.Title] = true
		seen[out.Fingerprint] = out.ID

		e.logger.Debug("incoming chapter kept",
			"incoming", i,
			"outcome", entry.Outcome,
			"title", out.Title,
			"id", out.ID,
		)
	}

	chapters := make([]ir.Chapter, 0, len(base.Chapters)+report.Counts.Conflicts+report.Counts.Appended)
	for i, ch := range base.Chapters {
		chapters = append(chapters, ch)
		chapters = append(chapters, insertions[i]...)
	}
	chapters = append(chapters, appended...)

	doc := &ir.Document{
		FormatVersion: ir.CurrentFormatVersion,
		Title:         base.Title,
		Author:        base.Author,
		Chapters:      ir.Renumber(chapters),
	}
	if err := ir.Validate(doc); err != nil {
		return nil, nil, fmt.Errorf("merged document: %w", err)
	}
	return doc, report, nil
}

// conflictTitle returns the next free "<title> (n)" for title.
func conflictTitle(title string, next map[string]int, titles map[string]bool) string {
	n := next[title]
	if n < 2 {
		n = 2
	}
	for {
		candidate := fmt.Sprintf("%s (%d)", title, n)
		n++
		if !titles[candidate] {
			next[title] = n
			return candidate
		}
	}
}

// checkInput rejects documents the engine must not operate on.
func checkInput(role string, d *ir.Document) error {
	if d == nil {
		return ir.NewInvalidDocumentError("", "document", role+" document is nil")
	}
	if !ir.SupportedFormat(d.FormatVersion) {
		return ir.NewIncompatibleFormatError(role, d.FormatVersion)
	}
	if err := ir.Validate(d); err != nil {
		return fmt.Errorf("%s document: %w", role, err)
	}
	return nil
}
