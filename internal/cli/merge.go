package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/novelbackup/internal/engine"
	"github.com/roach88/novelbackup/internal/ir"
)

// MergeOptions holds flags for the merge and augment commands.
type MergeOptions struct {
	*RootOptions
	Output string
	Save   string
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MergeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "merge <base.json> <incoming.json>",
		Short: "Merge two backup documents",
		Long: `Merge an incoming backup document into a base document.

Chapters are matched by content, not by title or id:
  - identical content already in base is skipped
  - new content under a title base already has is kept as "<title> (2)",
    placed right after that base chapter
  - anything else is appended

The merge report lists the outcome of every incoming chapter.

Exit codes:
  0 - Merge written
  1 - Merge rejected (incompatible or invalid document)
  2 - Command error (missing files, etc.)

Examples:
  novelbackup merge book.json phone-export.json -o merged.json
  novelbackup merge book.json other.json -o merged.json --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd.Context(), opts, args[0], args[1], cmd)
		},
	}

	addMergeFlags(cmd, opts)
	return cmd
}

// NewAugmentCommand creates the augment command.
func NewAugmentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MergeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "augment <doc.json> <archive>",
		Short: "Add chapters from an archive to a backup document",
		Long: `Add the chapters of an archive to an existing backup document.

The archive is built into a document and merged into the existing one
with the same rules as merge: chapters already present are skipped,
changed chapters under a known title are kept with a numbered suffix,
new chapters are appended.

Examples:
  novelbackup augment book.json new-chapters.zip -o book.json
  novelbackup augment book.json ./drafts -o book.json --save my-novel`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAugment(cmd.Context(), opts, args[0], args[1], cmd)
		},
	}

	addMergeFlags(cmd, opts)
	return cmd
}

func addMergeFlags(cmd *cobra.Command, opts *MergeOptions) {
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output document path (required)")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().StringVar(&opts.Save, "save", "", "also save the result as a snapshot under this name")
}

func runMerge(ctx context.Context, opts *MergeOptions, basePath, incomingPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	base, err := readDocument(formatter, basePath)
	if err != nil {
		return err
	}
	incoming, err := readDocument(formatter, incomingPath)
	if err != nil {
		return err
	}

	doc, report, err := opts.newEngine().Merge(base, incoming)
	if err != nil {
		return fail(formatter, ErrCodeGeneric, "merge failed", err)
	}
	return finishMerge(ctx, opts, formatter, engine.OperationMerge, doc, report)
}

func runAugment(ctx context.Context, opts *MergeOptions, docPath, archivePath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	base, err := readDocument(formatter, docPath)
	if err != nil {
		return err
	}
	src, err := openArchive(formatter, archivePath)
	if err != nil {
		return err
	}
	defer src.Close()

	doc, report, err := opts.newEngine().Augment(base, src)
	if err != nil {
		return fail(formatter, ErrCodeGeneric, "augment failed", err)
	}
	return finishMerge(ctx, opts, formatter, engine.OperationAugment, doc, report)
}

// finishMerge writes the merged document, saves the optional snapshot and
// prints the merge report.
func finishMerge(ctx context.Context, opts *MergeOptions, f *OutputFormatter, op engine.Operation, doc *ir.Document, report *engine.MergeReport) error {
	if err := writeDocument(f, opts.Output, doc); err != nil {
		return err
	}
	snap, err := saveSnapshot(contextOrBackground(ctx), f, opts.RootOptions, opts.Save, string(op), doc)
	if err != nil {
		return err
	}

	result := DocumentResult{
		Output:     opts.Output,
		Title:      doc.Title,
		Chapters:   len(doc.Chapters),
		Paragraphs: doc.ParagraphCount(),
		Merge:      report,
		Snapshot:   snap,
	}
	if f.JSON() {
		return f.Success(result)
	}

	verb := "Merged"
	if op == engine.OperationAugment {
		verb = "Augmented"
	}
	fmt.Fprintf(f.Writer, "✓ %s into %s (%d chapters)\n", verb, opts.Output, result.Chapters)
	printMergeReport(f, report)
	printSnapshot(f, snap)
	return nil
}

func printMergeReport(f *OutputFormatter, report *engine.MergeReport) {
	if len(report.Entries) > 0 {
		rows := make([][]string, 0, len(report.Entries))
		for _, e := range report.Entries {
			result := e.ResultTitle
			if e.Outcome == engine.OutcomeSkipped {
				result = "= " + e.MatchedID
			}
			rows = append(rows, []string{
				strconv.Itoa(e.Incoming),
				e.Title,
				string(e.Outcome),
				result,
				e.Reason,
			})
		}
		f.Table(
			[]string{"#", "Incoming", "Outcome", "Result", "Reason"},
			rows,
			[]columnAlignment{alignRight},
		)
	}
	c := report.Counts
	fmt.Fprintf(f.Writer, "Kept: %d  Skipped: %d  Conflicts: %d  Appended: %d\n", c.Kept, c.Skipped, c.Conflicts, c.Appended)
}
