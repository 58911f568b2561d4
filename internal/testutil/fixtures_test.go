package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/novelbackup/internal/archive"
	"github.com/roach88/novelbackup/internal/ir"
)

func TestDocumentIsValid(t *testing.T) {
	d := Document("Novel",
		Chapter("c1", "One", "Hello", "World"),
		Chapter("c2", "Two"),
	)

	require.NoError(t, ir.Validate(d))
	assert.Equal(t, []string{"One", "Two"}, Titles(d))
	assert.Equal(t, 1, d.Chapters[1].Order)
	assert.NotNil(t, d.Chapters[1].Paragraphs)
}

func TestArchive(t *testing.T) {
	src := Archive("book.zip", "b.txt", "B", "a.txt", "A")

	raw, err := archive.Read(src, archive.Options{})
	require.NoError(t, err)
	require.Len(t, raw, 2)
	assert.Equal(t, "a.txt", raw[0].Name)
	assert.Equal(t, "B", raw[1].Text)

	assert.Panics(t, func() { Archive("bad", "only-name") })
}
