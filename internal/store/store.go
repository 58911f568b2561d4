package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema versions:
//
//	1 - fingerprint index on snapshot_chapters
//	2 - seq counts per name; a digest may recur in a name's history
//
// A fresh database gets the current layout from schema.sql and only needs
// the indexes added after it.
const currentSchemaVersion = 2

// Store keeps the snapshot history of backup documents in SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the snapshot database at path, then applies the
// pragmas (WAL, NORMAL sync, 5s busy timeout, foreign keys) and pending
// migrations. Opening the same path again is harmless.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect snapshot store: %w", err)
	}

	// One connection: SQLite has a single writer, and the pragmas are
	// per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the handle for ad hoc queries in tests and tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("pragma %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return runMigrations(db)
}

func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}
	// Version 0 is a fresh file that schema.sql already laid out.
	if version == 1 {
		if err := migrateToV2(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV1 adds the fingerprint lookup index used by FindByFingerprint.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_snapshot_chapters_fingerprint
		ON snapshot_chapters(fingerprint)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// migrateToV2 rebuilds snapshots without UNIQUE(name, digest) and renumbers
// seq within each name. Foreign keys stay off while the table is swapped so
// dropping the old table does not cascade into snapshot_chapters.
func migrateToV2(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
	}

	err := func() error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback() // No-op if committed

		for _, stmt := range []string{
			`CREATE TABLE snapshots_v2 (
				id             INTEGER PRIMARY KEY AUTOINCREMENT,
				name           TEXT    NOT NULL,
				operation      TEXT    NOT NULL,
				digest         TEXT    NOT NULL,
				format_version INTEGER NOT NULL,
				title          TEXT    NOT NULL DEFAULT '',
				author         TEXT    NOT NULL DEFAULT '',
				chapter_count  INTEGER NOT NULL,
				body           TEXT    NOT NULL,
				seq            INTEGER NOT NULL,
				engine_version TEXT    NOT NULL,
				UNIQUE (name, seq)
			)`,
			`INSERT INTO snapshots_v2
			(id, name, operation, digest, format_version, title, author, chapter_count, body, seq, engine_version)
			SELECT id, name, operation, digest, format_version, title, author, chapter_count, body,
				ROW_NUMBER() OVER (PARTITION BY name ORDER BY seq, id),
				engine_version
			FROM snapshots`,
			`DROP TABLE snapshots`,
			`ALTER TABLE snapshots_v2 RENAME TO snapshots`,
		} {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		return tx.Commit()
	}()
	if err != nil {
		_, _ = db.Exec("PRAGMA foreign_keys = ON")
		return fmt.Errorf("migrate to v2: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
