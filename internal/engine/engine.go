package engine

import (
	"io"
	"log/slog"

	"github.com/roach88/novelbackup/internal/archive"
	"github.com/roach88/novelbackup/internal/normalize"
)

// Engine runs document operations.
type Engine struct {
	ids        IDSource
	notifier   Notifier
	logger     *slog.Logger
	extensions []string
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithIDSource sets the source of fresh chapter ids.
//
// Default: UUIDv7Source. Tests use a FixedSource or testutil.SequentialIDs so
// that results are byte-identical across runs.
func WithIDSource(ids IDSource) EngineOption {
	return func(e *Engine) {
		e.ids = ids
	}
}

// WithNotifier installs a sink that receives one Event per completed
// operation.
func WithNotifier(n Notifier) EngineOption {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithLogger sets the logger used for debug tracing. Default discards.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithExtensions sets the chapter file extensions recognised by Build and
// Augment. Default: archive.DefaultExtensions.
func WithExtensions(exts ...string) EngineOption {
	return func(e *Engine) {
		e.extensions = archive.NormalizeExtensions(exts)
	}
}

// New creates an Engine.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		ids:        UUIDv7Source{},
		notifier:   nopNotifier{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		extensions: archive.NormalizeExtensions(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.ids == nil {
		e.ids = UUIDv7Source{}
	}
	if e.notifier == nil {
		e.notifier = nopNotifier{}
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// Extensions returns the recognised chapter extensions.
func (e *Engine) Extensions() []string {
	return append([]string(nil), e.extensions...)
}

func (e *Engine) archiveOptions() archive.Options {
	return archive.Options{Extensions: e.extensions}
}

func (e *Engine) normalizeOptions() normalize.Options {
	return normalize.Options{Extensions: e.extensions}
}

// freshID draws an id that is not in used and records it.
func (e *Engine) freshID(used map[string]bool) string {
	id := e.ids.NewID()
	for used[id] {
		id = e.ids.NewID()
	}
	used[id] = true
	return id
}
