package ir

import (
	"errors"
	"fmt"
)

// Error represents a failure of a document operation.
//
// Errors carry structured fields so callers can present an actionable message
// without parsing strings. The core never formats user-facing text beyond
// Message.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ChapterID identifies the affected chapter, if any.
	ChapterID string

	// Entry identifies the affected archive entry or archive, if any.
	Entry string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes document operation errors.
type ErrorCode string

const (
	// ErrCodeEmptyArchive indicates an archive held no qualifying chapter entries.
	ErrCodeEmptyArchive ErrorCode = "EMPTY_ARCHIVE"

	// ErrCodeIncompatibleFormat indicates an unsupported or mismatched format version.
	ErrCodeIncompatibleFormat ErrorCode = "INCOMPATIBLE_FORMAT"

	// ErrCodeInvalidPattern indicates a malformed find/replace pattern.
	ErrCodeInvalidPattern ErrorCode = "INVALID_PATTERN"

	// ErrCodeDuplicateID indicates two chapters share an id. Operations never
	// produce this for valid input; seeing it means an engine bug.
	ErrCodeDuplicateID ErrorCode = "DUPLICATE_ID"

	// ErrCodeInvalidDocument indicates a decoded document breaks an invariant.
	ErrCodeInvalidDocument ErrorCode = "INVALID_DOCUMENT"

	// ErrCodeUnknownChapter indicates a scope referenced a chapter id that is
	// not in the document.
	ErrCodeUnknownChapter ErrorCode = "UNKNOWN_CHAPTER"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.ChapterID != "" && e.Entry != "":
		msg = fmt.Sprintf("%s (chapter=%s, entry=%s)", msg, e.ChapterID, e.Entry)
	case e.ChapterID != "":
		msg = fmt.Sprintf("%s (chapter=%s)", msg, e.ChapterID)
	case e.Entry != "":
		msg = fmt.Sprintf("%s (entry=%s)", msg, e.Entry)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the ErrorCode of err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsEmptyArchive returns true if err is an empty archive error.
func IsEmptyArchive(err error) bool {
	return CodeOf(err) == ErrCodeEmptyArchive
}

// IsIncompatibleFormat returns true if err is an incompatible format error.
func IsIncompatibleFormat(err error) bool {
	return CodeOf(err) == ErrCodeIncompatibleFormat
}

// IsInvalidPattern returns true if err is an invalid pattern error.
func IsInvalidPattern(err error) bool {
	return CodeOf(err) == ErrCodeInvalidPattern
}

// IsDuplicateID returns true if err is a duplicate id error.
func IsDuplicateID(err error) bool {
	return CodeOf(err) == ErrCodeDuplicateID
}

// IsInvalidDocument returns true if err is an invalid document error.
func IsInvalidDocument(err error) bool {
	return CodeOf(err) == ErrCodeInvalidDocument
}

// IsUnknownChapter returns true if err is an unknown chapter error.
func IsUnknownChapter(err error) bool {
	return CodeOf(err) == ErrCodeUnknownChapter
}

// NewEmptyArchiveError creates an Error for an archive with no chapter entries.
func NewEmptyArchiveError(archive string, scanned int) *Error {
	return &Error{
		Code:    ErrCodeEmptyArchive,
		Message: "archive contains no chapter files",
		Entry:   archive,
		Details: map[string]string{
			"entries_scanned": fmt.Sprintf("%d", scanned),
		},
	}
}

// NewIncompatibleFormatError creates an Error for an unsupported format version.
// role names the offending input ("base", "incoming", "document").
func NewIncompatibleFormatError(role string, version int) *Error {
	return &Error{
		Code:    ErrCodeIncompatibleFormat,
		Message: fmt.Sprintf("%s has format version %d, supported range is %d..%d", role, version, MinFormatVersion, CurrentFormatVersion),
		Details: map[string]string{
			"role":    role,
			"version": fmt.Sprintf("%d", version),
		},
	}
}

// NewInvalidPatternError creates an Error for a pattern that cannot be used.
func NewInvalidPatternError(pattern string, cause error) *Error {
	msg := "pattern does not compile"
	if cause == nil {
		msg = "pattern is empty"
	}
	return &Error{
		Code:    ErrCodeInvalidPattern,
		Message: msg,
		Details: map[string]string{"pattern": pattern},
		Err:     cause,
	}
}

// NewDuplicateIDError creates an Error for a chapter id seen twice.
func NewDuplicateIDError(id string, first, second int) *Error {
	return &Error{
		Code:      ErrCodeDuplicateID,
		Message:   fmt.Sprintf("chapter id used at positions %d and %d", first, second),
		ChapterID: id,
		Details: map[string]string{
			"first":  fmt.Sprintf("%d", first),
			"second": fmt.Sprintf("%d", second),
		},
	}
}

// NewInvalidDocumentError creates an Error for a broken document invariant.
// check names the failed validation (e.g. "order", "paragraphs", "fingerprint").
func NewInvalidDocumentError(chapterID, check, message string) *Error {
	return &Error{
		Code:      ErrCodeInvalidDocument,
		Message:   message,
		ChapterID: chapterID,
		Details:   map[string]string{"check": check},
	}
}

// NewUnknownChapterError creates an Error for a scope id not in the document.
func NewUnknownChapterError(id string) *Error {
	return &Error{
		Code:      ErrCodeUnknownChapter,
		Message:   "chapter not found in document",
		ChapterID: id,
	}
}
