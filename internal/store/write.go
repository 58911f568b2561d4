package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/novelbackup/internal/ir"
)

// SaveSnapshot records doc as the newest snapshot under name.
// Returns the snapshot and whether a new record was inserted.
//
// Saving the document the newest snapshot under name already holds is a
// no-op returning that snapshot and inserted=false. An older digest saved
// again (a revert) is a new snapshot. seq counts from 1 within each name.
// The document must pass ir.Validate.
func (s *Store) SaveSnapshot(ctx context.Context, name, operation string, doc *ir.Document) (snap Snapshot, inserted bool, err error) {
	if name == "" {
		return Snapshot{}, false, errors.New("save snapshot: name is required")
	}
	if err := ir.Validate(doc); err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot: %w", err)
	}
	body, digest, err := marshalBody(doc)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	latest, err := scanSnapshot(tx.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		WHERE name = ?
		ORDER BY seq DESC
		LIMIT 1
	`, name))
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Snapshot{}, false, fmt.Errorf("save snapshot: latest: %w", err)
	case latest.Digest == digest:
		return latest, false, nil
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots
		(name, operation, digest, format_version, title, author, chapter_count, body, seq, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		name,
		operation,
		digest,
		doc.FormatVersion,
		doc.Title,
		doc.Author,
		len(doc.Chapters),
		body,
		latest.Seq+1,
		ir.EngineVersion,
	)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot: insert: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot: last insert id: %w", err)
	}

	for _, ch := range doc.Chapters {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO snapshot_chapters (snapshot_id, ord, chapter_id, title, fingerprint)
			VALUES (?, ?, ?, ?, ?)
		`, id, ch.Order, ch.ID, ch.Title, ch.Fingerprint)
		if err != nil {
			return Snapshot{}, false, fmt.Errorf("save snapshot: insert chapter %s: %w", ch.ID, err)
		}
	}

	snap, err = scanSnapshot(tx.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		WHERE id = ?
	`, id))
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot: select: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot: commit: %w", err)
	}
	return snap, true, nil
}

// DeleteSnapshot removes one snapshot and its chapter index.
// Deleting a missing snapshot is not an error.
func (s *Store) DeleteSnapshot(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
