package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/novelbackup/internal/ir"
)

func TestSaveSnapshot_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc := createTestDocument("Novel", "Hello", "World")
	doc.Author = "Anon"

	snap, inserted, err := s.SaveSnapshot(ctx, "novel", "build", doc)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, "novel", snap.Name)
	assert.Equal(t, "build", snap.Operation)
	assert.Equal(t, ir.MustDocumentDigest(doc), snap.Digest)
	assert.Equal(t, 2, snap.ChapterCount)
	assert.Equal(t, int64(1), snap.Seq)
	assert.Equal(t, "Anon", snap.Author)
	assert.Equal(t, ir.EngineVersion, snap.EngineVersion)

	got, stored, err := s.ReadSnapshot(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
	assert.Equal(t, doc, stored)
}

func TestSaveSnapshot_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc := createTestDocument("Novel", "Hello")

	first, inserted, err := s.SaveSnapshot(ctx, "novel", "build", doc)
	require.NoError(t, err)
	require.True(t, inserted)

	second, inserted, err := s.SaveSnapshot(ctx, "novel", "merge", doc.Clone())
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first, second)

	// Same document under another name is a separate history.
	other, inserted, err := s.SaveSnapshot(ctx, "copy", "build", doc)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotEqual(t, first.ID, other.ID)
	assert.Equal(t, int64(1), other.Seq, "seq counts within a name")

	hits, err := s.FindByFingerprint(ctx, doc.Chapters[0].Fingerprint)
	require.NoError(t, err)
	assert.Len(t, hits, 2, "idempotent save must not duplicate the chapter index")
}

func TestSaveSnapshot_RevertIsNewSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	cat := createTestDocument("Novel", "The cat sat")
	dog := createTestDocument("Novel", "The dog sat")

	for i, d := range []*ir.Document{cat, dog, cat} {
		snap, inserted, err := s.SaveSnapshot(ctx, "novel", "replace", d)
		require.NoError(t, err)
		assert.True(t, inserted, "save %d", i)
		assert.Equal(t, int64(i+1), snap.Seq)
	}

	snap, doc, err := s.LatestSnapshot(ctx, "novel")
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap.Seq)
	assert.Equal(t, []string{"The cat sat"}, doc.Chapters[0].Paragraphs)

	history, err := s.History(ctx, "novel")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, history[0].Digest, history[2].Digest)

	hits, err := s.FindByFingerprint(ctx, cat.Chapters[0].Fingerprint)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestSaveSnapshot_PreservesDecomposedText(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc := createTestDocument("Cafe\u0301", "Cafe\u0301 au lait")

	snap, _, err := s.SaveSnapshot(ctx, "novel", "build", doc)
	require.NoError(t, err)

	_, stored, err := s.ReadSnapshot(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cafe\u0301", stored.Title)
	assert.Equal(t, []string{"Cafe\u0301 au lait"}, stored.Chapters[0].Paragraphs)
	assert.Equal(t, doc, stored)

	composed := createTestDocument("Caf\u00e9", "Caf\u00e9 au lait")
	assert.Equal(t, snap.Digest, ir.MustDocumentDigest(composed), "digest is normalization-insensitive")
}

func TestSaveSnapshot_Rejects(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, _, err := s.SaveSnapshot(ctx, "", "build", createTestDocument("Novel", "x"))
	assert.Error(t, err)

	bad := createTestDocument("Novel", "x")
	bad.Chapters[0].Fingerprint = "wrong"
	_, _, err = s.SaveSnapshot(ctx, "novel", "build", bad)
	require.Error(t, err)
	assert.True(t, ir.IsInvalidDocument(err))

	history, err := s.History(ctx, "novel")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestLatestSnapshotAndHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	v1 := createTestDocument("Novel", "A")
	v2 := createTestDocument("Novel", "A", "B")
	v3 := createTestDocument("Novel", "A", "B", "C")
	for _, d := range []*ir.Document{v1, v2, v3} {
		_, _, err := s.SaveSnapshot(ctx, "novel", "augment", d)
		require.NoError(t, err)
	}

	snap, doc, err := s.LatestSnapshot(ctx, "novel")
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap.Seq)
	assert.Equal(t, v3, doc)

	history, err := s.History(ctx, "novel")
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, h := range history {
		assert.Equal(t, int64(i+1), h.Seq)
		assert.Equal(t, i+1, h.ChapterCount)
	}
}

func TestLatestSnapshot_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, _, err := s.LatestSnapshot(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	_, _, err = s.ReadSnapshot(context.Background(), 42)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestHistory_EmptyIsNotNil(t *testing.T) {
	s := createTestStore(t)

	history, err := s.History(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestFindByFingerprint(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a := createTestDocument("Novel", "Shared", "Only here")
	b := createTestDocument("Other", "Something", "Shared")
	snapA, _, err := s.SaveSnapshot(ctx, "a", "build", a)
	require.NoError(t, err)
	snapB, _, err := s.SaveSnapshot(ctx, "b", "build", b)
	require.NoError(t, err)

	hits, err := s.FindByFingerprint(ctx, ir.Fingerprint([]string{"Shared"}))
	require.NoError(t, err)
	assert.Equal(t, []ChapterHit{
		{SnapshotID: snapA.ID, Name: "a", Seq: 1, ChapterID: "c1", Order: 0, Title: "Chapter 1"},
		{SnapshotID: snapB.ID, Name: "b", Seq: 1, ChapterID: "c2", Order: 1, Title: "Chapter 2"},
	}, hits)

	none, err := s.FindByFingerprint(ctx, "nope")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestNames(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i, name := range []string{"zeta", "alpha", "zeta"} {
		_, _, err := s.SaveSnapshot(ctx, name, "build", createTestDocument("Novel", string(rune('a'+i))))
		require.NoError(t, err)
	}

	names, err := s.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestDeleteSnapshot_CascadesChapters(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc := createTestDocument("Novel", "Gone")

	snap, _, err := s.SaveSnapshot(ctx, "novel", "build", doc)
	require.NoError(t, err)
	require.NoError(t, s.DeleteSnapshot(ctx, snap.ID))
	require.NoError(t, s.DeleteSnapshot(ctx, snap.ID))

	hits, err := s.FindByFingerprint(ctx, doc.Chapters[0].Fingerprint)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestUnmarshalBody_RejectsCorruptBody(t *testing.T) {
	_, err := unmarshalBody(`{"format_version":1,"chapters":[{"id":"a"`)
	require.Error(t, err)
	assert.True(t, ir.IsInvalidDocument(err))
}
