// Package ir provides the canonical in-memory representation of a novel backup
// document.
//
// This package contains the document model and its invariants only. All other
// internal packages import ir; ir imports nothing internal, so the model stays
// the foundational layer with no circular dependencies.
//
// Key constraints:
//   - Chapter orders are dense and 0-based after every operation
//   - Chapter ids are unique within a document and never reused
//   - Fingerprints are derived from paragraph text only (never title or id)
//   - All JSON tags use snake_case
//   - Documents are values: operations copy, they never mutate their inputs
package ir
