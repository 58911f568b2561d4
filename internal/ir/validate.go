package ir

import (
	"fmt"
	"strings"
)

// Validate checks every document invariant:
//   - the format version is readable by this build
//   - chapter orders are exactly 0..n-1 in slice order
//   - chapter ids are non-empty and unique
//   - every paragraph is non-empty and trimmed
//   - every fingerprint matches its paragraphs
//
// A repeated id returns a DUPLICATE_ID error; every other violation returns
// INVALID_DOCUMENT naming the chapter and the check that failed.
func Validate(d *Document) error {
	if d == nil {
		return NewInvalidDocumentError("", "document", "document is nil")
	}
	if !SupportedFormat(d.FormatVersion) {
		return NewIncompatibleFormatError("document", d.FormatVersion)
	}

	seen := make(map[string]int, len(d.Chapters))
	for i, ch := range d.Chapters {
		if ch.ID == "" {
			return NewInvalidDocumentError("", "id", fmt.Sprintf("chapter at position %d has no id", i))
		}
		if first, ok := seen[ch.ID]; ok {
			return NewDuplicateIDError(ch.ID, first, i)
		}
		seen[ch.ID] = i

		if ch.Order != i {
			return NewInvalidDocumentError(ch.ID, "order",
				fmt.Sprintf("chapter at position %d has order %d", i, ch.Order))
		}
		for j, p := range ch.Paragraphs {
			if p == "" || strings.TrimSpace(p) != p || strings.ContainsAny(p, "\r\n") {
				return NewInvalidDocumentError(ch.ID, "paragraphs",
					fmt.Sprintf("paragraph %d is empty, untrimmed or spans lines", j))
			}
		}
		if ch.Fingerprint != Fingerprint(ch.Paragraphs) {
			return NewInvalidDocumentError(ch.ID, "fingerprint", "fingerprint does not match paragraphs")
		}
	}
	return nil
}
