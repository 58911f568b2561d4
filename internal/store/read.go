package store

import (
	"context"
	"fmt"

	"github.com/roach88/novelbackup/internal/ir"
)

const snapshotColumns = `id, name, operation, digest, format_version, title, author, chapter_count, seq, engine_version`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var snap Snapshot
	err := row.Scan(
		&snap.ID,
		&snap.Name,
		&snap.Operation,
		&snap.Digest,
		&snap.FormatVersion,
		&snap.Title,
		&snap.Author,
		&snap.ChapterCount,
		&snap.Seq,
		&snap.EngineVersion,
	)
	return snap, err
}

// ReadSnapshot retrieves a snapshot and its document by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadSnapshot(ctx context.Context, id int64) (Snapshot, *ir.Document, error) {
	var body string
	var snap Snapshot
	err := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`, body
		FROM snapshots
		WHERE id = ?
	`, id).Scan(
		&snap.ID,
		&snap.Name,
		&snap.Operation,
		&snap.Digest,
		&snap.FormatVersion,
		&snap.Title,
		&snap.Author,
		&snap.ChapterCount,
		&snap.Seq,
		&snap.EngineVersion,
		&body,
	)
	if err != nil {
		return Snapshot{}, nil, err
	}

	doc, err := unmarshalBody(body)
	if err != nil {
		return Snapshot{}, nil, fmt.Errorf("read snapshot %d: %w", id, err)
	}
	return snap, doc, nil
}

// LatestSnapshot returns the newest snapshot saved under name.
// Returns sql.ErrNoRows if the name has no snapshots.
func (s *Store) LatestSnapshot(ctx context.Context, name string) (Snapshot, *ir.Document, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM snapshots
		WHERE name = ?
		ORDER BY seq DESC
		LIMIT 1
	`, name).Scan(&id)
	if err != nil {
		return Snapshot{}, nil, err
	}
	return s.ReadSnapshot(ctx, id)
}

// History returns every snapshot saved under name, oldest first.
//
// Returns an empty slice (not nil) if the name has no snapshots.
func (s *Store) History(ctx context.Context, name string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		WHERE name = ?
		ORDER BY seq ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	history := []Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		history = append(history, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return history, nil
}

// FindByFingerprint lists every stored chapter with the given content
// fingerprint, oldest snapshot first.
//
// Returns an empty slice (not nil) if no snapshot holds that content.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) ([]ChapterHit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.seq, c.chapter_id, c.ord, c.title
		FROM snapshot_chapters c
		JOIN snapshots s ON c.snapshot_id = s.id
		WHERE c.fingerprint = ?
		ORDER BY s.id ASC, c.ord ASC
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("query fingerprint: %w", err)
	}
	defer rows.Close()

	hits := []ChapterHit{}
	for rows.Next() {
		var h ChapterHit
		if err := rows.Scan(&h.SnapshotID, &h.Name, &h.Seq, &h.ChapterID, &h.Order, &h.Title); err != nil {
			return nil, fmt.Errorf("scan chapter hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chapter hits: %w", err)
	}
	return hits, nil
}

// Names returns every snapshot name in lexical order.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT name FROM snapshots
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query names: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate names: %w", err)
	}
	return names, nil
}
