package engine

// Outcome is what Merge did with one incoming chapter.
type Outcome string

const (
	// OutcomeSkipped means the chapter's content was already present.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeConflict means the chapter shares a title with a base chapter
	// but differs in content; it was kept under a suffixed title.
	OutcomeConflict Outcome = "conflict"

	// OutcomeAppended means the chapter was new and added at the end.
	OutcomeAppended Outcome = "appended"
)

// Reasons recorded in merge entries.
const (
	ReasonIdentical = "identical content"
	ReasonConflict  = "title collision, content differs"
	ReasonNew       = "new chapter"
)

// MergeEntry records the outcome for one incoming chapter.
type MergeEntry struct {
	// Incoming is the chapter's position in the incoming document.
	Incoming int    `json:"incoming"`
	SourceID string `json:"source_id"`
	Title    string `json:"title"`

	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason"`

	// ResultID and ResultTitle identify the chapter in the merged document.
	// Empty for skipped chapters.
	ResultID    string `json:"result_id,omitempty"`
	ResultTitle string `json:"result_title,omitempty"`

	// MatchedID is the merged-document chapter this one duplicated
	// (skipped) or collided with (conflict).
	MatchedID string `json:"matched_id,omitempty"`
}

// MergeCounts summarises a merge.
type MergeCounts struct {
	// Kept is the number of base chapters carried over.
	Kept      int `json:"kept"`
	Skipped   int `json:"skipped"`
	Conflicts int `json:"conflicts"`
	Appended  int `json:"appended"`
}

// Total returns the number of incoming chapters accounted for.
func (c MergeCounts) Total() int {
	return c.Skipped + c.Conflicts + c.Appended
}

// MergeReport lists one entry per incoming chapter, in incoming order.
type MergeReport struct {
	Entries []MergeEntry `json:"entries"`
	Counts  MergeCounts  `json:"counts"`
}

func (r *MergeReport) summary() map[string]int {
	return map[string]int{
		"kept":      r.Counts.Kept,
		"skipped":   r.Counts.Skipped,
		"conflicts": r.Counts.Conflicts,
		"appended":  r.Counts.Appended,
	}
}

// ChapterChange records find/replace results for one in-scope chapter.
type ChapterChange struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Matches int    `json:"matches"`
	Changed bool   `json:"changed"`
}

// ChangeReport summarises a find/replace run.
type ChangeReport struct {
	Chapters         []ChapterChange `json:"chapters"`
	TotalMatches     int             `json:"total_matches"`
	ChaptersAffected int             `json:"chapters_affected"`
}

func (r *ChangeReport) summary() map[string]int {
	return map[string]int{
		"total_matches":     r.TotalMatches,
		"chapters_affected": r.ChaptersAffected,
	}
}
