package engine

import (
	"github.com/roach88/novelbackup/internal/archive"
	"github.com/roach88/novelbackup/internal/ir"
)

// Augment adds the chapters of src to doc.
//
// The archive is built into an ephemeral document carrying doc's metadata,
// which is then merged into doc. Duplicates, conflicts and new chapters are
// therefore handled exactly as in Merge.
func (e *Engine) Augment(doc *ir.Document, src archive.Source) (*ir.Document, *MergeReport, error) {
	if err := checkInput("base", doc); err != nil {
		return nil, nil, err
	}

	incoming, err := e.build(src, doc.Metadata())
	if err != nil {
		return nil, nil, err
	}

	out, report, err := e.merge(doc, incoming)
	if err != nil {
		return nil, nil, err
	}
	e.notifier.Notify(Event{
		Operation: OperationAugment,
		Title:     out.Title,
		Chapters:  len(out.Chapters),
		Summary:   report.summary(),
	})
	return out, report, nil
}
