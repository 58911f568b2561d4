package store

// Snapshot is the metadata of one saved document.
type Snapshot struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Operation     string `json:"operation"`
	Digest        string `json:"digest"`
	FormatVersion int    `json:"format_version"`
	Title         string `json:"title,omitempty"`
	Author        string `json:"author,omitempty"`
	ChapterCount  int    `json:"chapter_count"`
	Seq           int64  `json:"seq"`
	EngineVersion string `json:"engine_version"`
}

// ChapterHit locates a chapter inside a stored snapshot.
type ChapterHit struct {
	SnapshotID int64  `json:"snapshot_id"`
	Name       string `json:"name"`
	Seq        int64  `json:"seq"`
	ChapterID  string `json:"chapter_id"`
	Order      int    `json:"order"`
	Title      string `json:"title"`
}
