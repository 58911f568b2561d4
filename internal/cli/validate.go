package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/novelbackup/internal/ir"
	"github.com/roach88/novelbackup/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                     `json:"valid"`
	Chapters int                      `json:"chapters,omitempty"`
	Errors   []schema.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <doc.json>",
		Short: "Check a backup document",
		Long: `Check a backup document without modifying it.

Runs two passes:
  1. Shape: the JSON is checked against the backup schema; every
     problem is reported with its field path and line.
  2. Invariants: dense chapter order, unique ids, trimmed paragraphs
     and matching fingerprints.

Exit codes:
  0 - Document valid
  1 - Document invalid
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, docPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	data, err := os.ReadFile(docPath)
	if err != nil {
		return fail(formatter, pathErrorCode(err), "failed to read document", err)
	}
	formatter.VerboseLog("Checking %s (%d bytes) against schema", docPath, len(data))

	if errs := schema.Validate(data); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	formatter.VerboseLog("Schema ok, checking invariants")
	doc, err := ir.Unmarshal(data)
	if err != nil {
		return outputValidationErrors(formatter, []schema.ValidationError{invariantError(err)})
	}

	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Chapters: len(doc.Chapters)})
	}
	fmt.Fprintf(formatter.Writer, "✓ Document valid (%d chapters)\n", len(doc.Chapters))
	return nil
}

// invariantError converts a decode failure into a validation error.
func invariantError(err error) schema.ValidationError {
	ve := schema.ValidationError{
		Field:   "document",
		Message: err.Error(),
		Code:    schema.ErrInvariant,
	}
	var e *ir.Error
	if errors.As(err, &e) {
		ve.Message = e.Message
		if check := e.Details["check"]; check != "" {
			ve.Field = check
		}
		if e.ChapterID != "" {
			ve.Field = fmt.Sprintf("chapters[%s].%s", e.ChapterID, ve.Field)
		}
		if e.Code == ir.ErrCodeIncompatibleFormat {
			ve.Field = "format_version"
		}
	}
	return ve
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []schema.ValidationError) error {
	if formatter.JSON() {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}
		if err := formatter.Failure(errs[0].Code, errs[0].Message, result); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
