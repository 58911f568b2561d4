// Package engine implements the backup document reconciliation engine.
//
// The engine turns chapter archives into backup documents and transforms
// those documents:
//
//   - Build: archive → document (natural entry order, fresh ids)
//   - Merge: base + incoming → one document without lost or duplicated content
//   - Augment: document + archive → Build then Merge, one shared policy
//   - FindReplace: document + pattern → edited document and a change report
//
// Every operation is a pure, synchronous transform. Inputs are never mutated;
// each call returns a new document or an error, never both. Chapter identity
// during reconciliation is the content fingerprint (see ir.Fingerprint), so
// renamed files or re-built archives are recognised as the same chapter.
//
// The Engine value holds only configuration: an IDSource for fresh chapter
// ids, an optional Notifier, a logger and the recognised chapter extensions.
// Independent documents may be processed concurrently with one Engine as
// long as the IDSource is safe for concurrent use (both provided ones are).
package engine
