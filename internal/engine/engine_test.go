package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/novelbackup/internal/archive"
	"github.com/roach88/novelbackup/internal/testutil"
)

// recorder collects notifier events.
type recorder struct {
	events []Event
}

func (r *recorder) Notify(ev Event) {
	r.events = append(r.events, ev)
}

func newTestEngine(opts ...EngineOption) *Engine {
	return New(append([]EngineOption{WithIDSource(testutil.NewSequentialIDs("ch"))}, opts...)...)
}

func TestEngine_NewDefaults(t *testing.T) {
	e := New()

	assert.IsType(t, UUIDv7Source{}, e.ids)
	assert.NotNil(t, e.notifier)
	assert.NotNil(t, e.logger)
	assert.Equal(t, archive.DefaultExtensions, e.Extensions())
}

func TestEngine_NilOptionsFallBack(t *testing.T) {
	e := New(WithIDSource(nil), WithNotifier(nil), WithLogger(nil))

	assert.IsType(t, UUIDv7Source{}, e.ids)
	assert.NotPanics(t, func() { e.notifier.Notify(Event{}) })
	assert.NotPanics(t, func() { e.logger.Debug("x") })
}

func TestEngine_WithExtensions(t *testing.T) {
	e := New(WithExtensions("MD", ".txt"))
	assert.Equal(t, []string{".md", ".txt"}, e.Extensions())
}

func TestUUIDv7Source(t *testing.T) {
	var src UUIDv7Source
	a, b := src.NewID(), src.NewID()

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestFixedSource(t *testing.T) {
	src := NewFixedSource("c1", "c2")

	assert.Equal(t, "c1", src.NewID())
	assert.Equal(t, "c2", src.NewID())
	assert.Panics(t, func() { src.NewID() })
}

func TestFreshIDSkipsUsed(t *testing.T) {
	e := New(WithIDSource(NewFixedSource("c1", "c1", "c2")))
	used := map[string]bool{"c1": true}

	assert.Equal(t, "c2", e.freshID(used))
	assert.True(t, used["c2"])
}

func TestNotifierReceivesOneEventPerOperation(t *testing.T) {
	rec := &recorder{}
	e := newTestEngine(WithNotifier(rec))

	doc, err := e.Build(testutil.Archive("book.zip", "a.txt", "The cat", "b.txt", "Dog"), docMeta)
	require.NoError(t, err)

	_, _, err = e.Augment(doc, testutil.Archive("more.zip", "c.txt", "New"))
	require.NoError(t, err)

	_, _, err = e.FindReplace(doc, Request{Pattern: "cat", Replacement: "dog", Scope: AllChapters()})
	require.NoError(t, err)

	require.Len(t, rec.events, 3)
	assert.Equal(t, OperationBuild, rec.events[0].Operation)
	assert.Equal(t, 2, rec.events[0].Summary["chapters"])
	assert.Equal(t, "Novel", rec.events[0].Title)

	assert.Equal(t, OperationAugment, rec.events[1].Operation)
	assert.Equal(t, 3, rec.events[1].Chapters)
	assert.Equal(t, 1, rec.events[1].Summary["appended"])

	assert.Equal(t, OperationFindReplace, rec.events[2].Operation)
	assert.Equal(t, 1, rec.events[2].Summary["total_matches"])
}

func TestNotifierFunc(t *testing.T) {
	var got Event
	n := NotifierFunc(func(ev Event) { got = ev })
	n.Notify(Event{Operation: OperationMerge})
	assert.Equal(t, OperationMerge, got.Operation)
}
