package engine

import (
	"github.com/roach88/novelbackup/internal/archive"
	"github.com/roach88/novelbackup/internal/ir"
	"github.com/roach88/novelbackup/internal/normalize"
)

// Build reads every chapter entry of src and assembles a new document.
//
// Chapters follow the natural order of their entry names and are numbered
// from 0. Each chapter gets a fresh id. The source is not closed.
//
// Fails with an EMPTY_ARCHIVE error when src holds no chapter entries.
func (e *Engine) Build(src archive.Source, meta ir.Metadata) (*ir.Document, error) {
	doc, err := e.build(src, meta)
	if err != nil {
		return nil, err
	}
	e.notifier.Notify(Event{
		Operation: OperationBuild,
		Title:     doc.Title,
		Chapters:  len(doc.Chapters),
		Summary: map[string]int{
			"chapters":   len(doc.Chapters),
			"paragraphs": doc.ParagraphCount(),
		},
	})
	return doc, nil
}

func (e *Engine) build(src archive.Source, meta ir.Metadata) (*ir.Document, error) {
	raw, err := archive.Read(src, e.archiveOptions())
	if err != nil {
		return nil, err
	}

	used := make(map[string]bool, len(raw))
	chapters := make([]ir.Chapter, len(raw))
	for i, r := range raw {
		ch := normalize.Chapter(r.Name, r.Text, i, e.normalizeOptions())
		ch.ID = e.freshID(used)
		chapters[i] = ch

		e.logger.Debug("chapter built",
			"entry", r.Name,
			"id", ch.ID,
			"order", ch.Order,
			"paragraphs", len(ch.Paragraphs),
			"fingerprint", ir.ShortFingerprint(ch.Fingerprint),
		)
	}

	doc := &ir.Document{
		FormatVersion: ir.CurrentFormatVersion,
		Title:         meta.Title,
		Author:        meta.Author,
		Chapters:      chapters,
	}
	if err := ir.Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
