package archive

// MemoryEntry is an in-memory archive entry.
type MemoryEntry struct {
	EntryName string
	Content   string
}

// Name returns the entry name.
func (e MemoryEntry) Name() string { return e.EntryName }

// ReadText returns the content, decoded like any other entry so a leading
// byte order mark is stripped.
func (e MemoryEntry) ReadText() (string, error) {
	return DecodeText([]byte(e.Content))
}

// MemorySource is an archive held entirely in memory.
type MemorySource struct {
	name    string
	entries []MemoryEntry
}

// NewMemorySource returns a source over the given entries.
func NewMemorySource(name string, entries ...MemoryEntry) *MemorySource {
	return &MemorySource{name: name, entries: entries}
}

// Name returns the archive name.
func (s *MemorySource) Name() string { return s.name }

// Entries returns the entries in insertion order.
func (s *MemorySource) Entries() ([]Entry, error) {
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e
	}
	return out, nil
}

// Close is a no-op.
func (s *MemorySource) Close() error { return nil }
