// Package store provides SQLite-backed snapshot history for backup documents.
//
// Every saved document becomes an immutable snapshot under a name (usually
// the novel's working name). A name's snapshots form an append-only history:
//   - snapshots: one row per saved document, body stored as the document's
//     JSON encoding
//   - snapshot_chapters: chapter index (id, order, title, fingerprint) per
//     snapshot, so "which backups contain this chapter?" is a single query
//
// # Idempotency
//
// Saving a document whose digest matches the newest snapshot under the same
// name is a no-op that returns that snapshot. A document matching an older
// snapshot is saved again, so reverts stay in the history.
//
// # Ordering
//
// Snapshots are ordered by seq INTEGER, a logical counter per name assigned
// inside the insert transaction, never by wall-clock time. UNIQUE(name, seq)
// backs the ordering. Queries spanning names order by id.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Digests are computed by ir.DocumentDigest (BLAKE3 over canonical JSON with
// domain separation).
package store
