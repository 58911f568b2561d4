package engine

import (
	"sync"

	"github.com/google/uuid"
)

// IDSource produces chapter ids. Every id must be unique within one
// document; the engine redraws an id that collides with one already in use.
type IDSource interface {
	NewID() string
}

// UUIDv7Source generates time-sortable UUIDv7 chapter ids.
//
// Thread-safety: UUIDv7Source is stateless and safe for concurrent use.
type UUIDv7Source struct{}

// NewID creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Source) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedSource returns predetermined ids for testing.
//
// Thread-safety: FixedSource is safe for concurrent use via internal mutex.
type FixedSource struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedSource creates a source that returns ids in order.
//
//	ids := NewFixedSource("c1", "c2")
//	ids.NewID() // "c1"
//	ids.NewID() // "c2"
//	ids.NewID() // panic: all ids exhausted
func NewFixedSource(ids ...string) *FixedSource {
	return &FixedSource{ids: ids}
}

// NewID returns the next predetermined id.
//
// Panics if all ids have been consumed, which means a test drew more ids
// than it expected.
func (s *FixedSource) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idx >= len(s.ids) {
		panic("FixedSource: all ids exhausted")
	}
	id := s.ids[s.idx]
	s.idx++
	return id
}
