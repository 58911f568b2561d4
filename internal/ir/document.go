package ir

// Chapter is one unit of narrative content.
//
// A Chapter is never mutated after it is placed into a finalized Document.
// Operations that change a chapter build a new value.
type Chapter struct {
	// ID is unique within a document and assigned when the chapter is created.
	ID string `json:"id"`

	// Title is the display name. Titles are not required to be unique.
	Title string `json:"title"`

	// Paragraphs holds the trimmed, non-empty text lines in reading order.
	Paragraphs []string `json:"paragraphs"`

	// Fingerprint is the content digest of Paragraphs (see Fingerprint).
	// Two chapters with equal fingerprints are duplicates regardless of title or id.
	Fingerprint string `json:"fingerprint"`

	// Order is the chapter's 0-based reading position.
	Order int `json:"order"`
}

// Clone returns a deep copy of the chapter.
func (c Chapter) Clone() Chapter {
	c.Paragraphs = append(make([]string, 0, len(c.Paragraphs)), c.Paragraphs...)
	return c
}

// Text returns the chapter paragraphs joined with newlines.
func (c Chapter) Text() string {
	n := 0
	for _, p := range c.Paragraphs {
		n += len(p) + 1
	}
	buf := make([]byte, 0, n)
	for i, p := range c.Paragraphs {
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, p...)
	}
	return string(buf)
}

// Document is a backup of a serialized novel.
type Document struct {
	// FormatVersion gates reader compatibility (see SupportedFormat).
	FormatVersion int `json:"format_version"`

	// Title and Author are optional free-text metadata.
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`

	// Chapters are kept sorted by Order.
	Chapters []Chapter `json:"chapters"`
}

// Metadata is the descriptive part of a document supplied by callers when a
// document is created.
type Metadata struct {
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
}

// Metadata returns the document's title and author.
func (d *Document) Metadata() Metadata {
	return Metadata{Title: d.Title, Author: d.Author}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Chapters = make([]Chapter, len(d.Chapters))
	for i, ch := range d.Chapters {
		out.Chapters[i] = ch.Clone()
	}
	return &out
}

// ChapterByID returns the chapter with the given id.
func (d *Document) ChapterByID(id string) (Chapter, bool) {
	for _, ch := range d.Chapters {
		if ch.ID == id {
			return ch, true
		}
	}
	return Chapter{}, false
}

// IDs returns chapter ids in reading order.
func (d *Document) IDs() []string {
	ids := make([]string, len(d.Chapters))
	for i, ch := range d.Chapters {
		ids[i] = ch.ID
	}
	return ids
}

// ParagraphCount returns the total number of paragraphs across all chapters.
func (d *Document) ParagraphCount() int {
	n := 0
	for _, ch := range d.Chapters {
		n += len(ch.Paragraphs)
	}
	return n
}

// Renumber returns copies of chapters with dense 0-based orders assigned from
// their slice position.
func Renumber(chapters []Chapter) []Chapter {
	out := make([]Chapter, len(chapters))
	for i, ch := range chapters {
		ch = ch.Clone()
		ch.Order = i
		out[i] = ch
	}
	return out
}
