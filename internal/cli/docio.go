package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roach88/novelbackup/internal/archive"
	"github.com/roach88/novelbackup/internal/ir"
	"github.com/roach88/novelbackup/internal/store"
)

// CLI error codes. Engine and document errors use their ir.ErrorCode
// ("EMPTY_ARCHIVE", "INVALID_PATTERN", ...) instead.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E002" // Input path not found
	ErrCodeReadFailed  = "E003" // Input could not be read or opened
	ErrCodeWriteFailed = "E004" // Output file write error
	ErrCodeStore       = "E005" // Snapshot store error
	ErrCodeNoStore     = "E006" // Snapshot store not configured
	ErrCodeNoSnapshot  = "E007" // No snapshot under the requested name/id
	ErrCodeBadFlag     = "E008" // Invalid flag combination
	ErrCodeTestFailed  = "E_TEST_FAILED"
)

// fail reports err through the formatter and returns the matching ExitError.
//
// Errors carrying an ir.ErrorCode are operation failures (exit 1) reported
// under that code; anything else is a command error (exit 2) reported
// under fallbackCode.
func fail(f *OutputFormatter, fallbackCode, message string, err error) error {
	code := fallbackCode
	exit := ExitCommandError
	var details interface{}

	var irErr *ir.Error
	if errors.As(err, &irErr) {
		code = string(irErr.Code)
		exit = ExitFailure
		if len(irErr.Details) > 0 || irErr.ChapterID != "" || irErr.Entry != "" {
			d := make(map[string]string, len(irErr.Details)+2)
			for k, v := range irErr.Details {
				d[k] = v
			}
			if irErr.ChapterID != "" {
				d["chapter_id"] = irErr.ChapterID
			}
			if irErr.Entry != "" {
				d["entry"] = irErr.Entry
			}
			details = d
		}
	}

	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %v", message, err)
	}
	_ = f.Error(code, msg, details)
	return WrapExitError(exit, message, err)
}

// readDocument decodes and checks the backup document at path.
func readDocument(f *OutputFormatter, path string) (*ir.Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fail(f, pathErrorCode(err), "failed to open document", err)
	}
	defer file.Close()

	doc, err := ir.Decode(file)
	if err != nil {
		return nil, fail(f, ErrCodeReadFailed, fmt.Sprintf("failed to read document %s", path), err)
	}
	f.VerboseLog("Read %s: %d chapter(s)", path, len(doc.Chapters))
	return doc, nil
}

// openArchive opens the chapter archive at path.
func openArchive(f *OutputFormatter, path string) (archive.Source, error) {
	src, err := archive.Open(path)
	if err != nil {
		return nil, fail(f, pathErrorCode(err), "failed to open archive", err)
	}
	return src, nil
}

// writeDocument writes doc to path through a temporary file in the same
// directory, so a failed write never leaves a truncated document behind.
func writeDocument(f *OutputFormatter, path string, doc *ir.Document) error {
	data, err := ir.Marshal(doc)
	if err != nil {
		return fail(f, ErrCodeWriteFailed, "failed to encode document", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fail(f, ErrCodeWriteFailed, "failed to write document", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fail(f, ErrCodeWriteFailed, "failed to write document", err)
	}
	// CreateTemp makes the file owner-only.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		cleanup()
		return fail(f, ErrCodeWriteFailed, "failed to write document", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fail(f, ErrCodeWriteFailed, "failed to write document", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fail(f, ErrCodeWriteFailed, "failed to write document", err)
	}
	f.VerboseLog("Wrote %s: %d chapter(s)", path, len(doc.Chapters))
	return nil
}

// openStore opens the configured snapshot store.
func openStore(f *OutputFormatter, opts *RootOptions) (*store.Store, error) {
	if opts.StorePath == "" {
		return nil, fail(f, ErrCodeNoStore, "no snapshot store configured (use --store, store_path or NOVELBACKUP_STORE_PATH)", nil)
	}
	st, err := store.Open(opts.StorePath)
	if err != nil {
		return nil, fail(f, ErrCodeStore, "failed to open snapshot store", err)
	}
	return st, nil
}

// saveSnapshot records doc under name when name is set. It returns nil
// without touching the store when name is empty.
func saveSnapshot(ctx context.Context, f *OutputFormatter, opts *RootOptions, name, operation string, doc *ir.Document) (*SnapshotResult, error) {
	if name == "" {
		return nil, nil
	}
	st, err := openStore(f, opts)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	snap, inserted, err := st.SaveSnapshot(ctx, name, operation, doc)
	if err != nil {
		return nil, fail(f, ErrCodeStore, "failed to save snapshot", err)
	}
	opts.logger().Info("snapshot saved", "name", name, "seq", snap.Seq, "inserted", inserted)
	return &SnapshotResult{Snapshot: snap, Inserted: inserted}, nil
}

// SnapshotResult reports a --save outcome.
type SnapshotResult struct {
	store.Snapshot
	Inserted bool `json:"inserted"`
}

func pathErrorCode(err error) string {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrCodeNotFound
	}
	return ErrCodeReadFailed
}
