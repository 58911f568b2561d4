package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs hands out predictable chapter ids for tests: "ch-0001",
// "ch-0002", ...
//
// Unlike engine.FixedSource, SequentialIDs never runs out and can be reset
// for test reuse, so the same scenario run twice yields identical documents.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequentialIDs creates a source whose ids start with prefix.
//
// If prefix is empty, "ch" is used.
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "ch"
	}
	return &SequentialIDs{prefix: prefix}
}

// NewID returns the next id. Implements engine.IDSource.
func (s *SequentialIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return fmt.Sprintf("%s-%04d", s.prefix, s.seq)
}

// Issued returns how many ids have been handed out.
func (s *SequentialIDs) Issued() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Reset restarts the sequence. The next id is "<prefix>-0001" again.
func (s *SequentialIDs) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
}
