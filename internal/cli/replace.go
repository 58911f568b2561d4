package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/novelbackup/internal/engine"
)

// ReplaceOptions holds flags for the replace command.
type ReplaceOptions struct {
	*RootOptions
	Output      string
	Save        string
	Find        string
	Replacement string
	Regex       bool
	IgnoreCase  bool
	WholeWord   bool
	Chapters    []string
}

// NewReplaceCommand creates the replace command.
func NewReplaceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplaceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replace <doc.json>",
		Short: "Find and replace text across chapters",
		Long: `Find and replace text in the paragraphs of a backup document.

The pattern is literal unless --regex is given; with --regex the
replacement may use $1 / ${name} group references. Matching is case
sensitive unless --ignore-case is given. --chapter limits the edit to
the given chapter ids (repeatable); by default every chapter is edited.

Examples:
  novelbackup replace book.json --find cat --replace dog -o book.json
  novelbackup replace book.json --find 'Mr\.? (\w+)' --replace 'Mister $1' --regex -o out.json
  novelbackup replace book.json --find Anne --replace Ann --whole-word --chapter 0193a1b2-... -o out.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplace(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output document path (required)")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().StringVar(&opts.Find, "find", "", "text or pattern to find (required)")
	_ = cmd.MarkFlagRequired("find")
	cmd.Flags().StringVar(&opts.Replacement, "replace", "", "replacement text")
	cmd.Flags().BoolVar(&opts.Regex, "regex", false, "treat --find as a regular expression")
	cmd.Flags().BoolVarP(&opts.IgnoreCase, "ignore-case", "i", false, "match case-insensitively")
	cmd.Flags().BoolVarP(&opts.WholeWord, "whole-word", "w", false, "match whole words only")
	cmd.Flags().StringArrayVar(&opts.Chapters, "chapter", nil, "limit to this chapter id (repeatable)")
	cmd.Flags().StringVar(&opts.Save, "save", "", "also save the result as a snapshot under this name")

	return cmd
}

func (o *ReplaceOptions) request() engine.Request {
	scope := engine.AllChapters()
	if len(o.Chapters) > 0 {
		scope = engine.ChapterIDs(o.Chapters...)
	}
	return engine.Request{
		Pattern:     o.Find,
		Replacement: o.Replacement,
		Options: engine.Options{
			IgnoreCase: o.IgnoreCase,
			Regex:      o.Regex,
			WholeWord:  o.WholeWord,
		},
		Scope: scope,
	}
}

func runReplace(ctx context.Context, opts *ReplaceOptions, docPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	base, err := readDocument(formatter, docPath)
	if err != nil {
		return err
	}

	doc, report, err := opts.newEngine().FindReplace(base, opts.request())
	if err != nil {
		return fail(formatter, ErrCodeGeneric, "find/replace failed", err)
	}
	if err := writeDocument(formatter, opts.Output, doc); err != nil {
		return err
	}
	snap, err := saveSnapshot(contextOrBackground(ctx), formatter, opts.RootOptions, opts.Save, string(engine.OperationFindReplace), doc)
	if err != nil {
		return err
	}

	result := DocumentResult{
		Output:     opts.Output,
		Title:      doc.Title,
		Chapters:   len(doc.Chapters),
		Paragraphs: doc.ParagraphCount(),
		Change:     report,
		Snapshot:   snap,
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Replaced %d match(es) in %d chapter(s), wrote %s\n",
		report.TotalMatches, report.ChaptersAffected, opts.Output)
	rows := make([][]string, 0, len(report.Chapters))
	for _, ch := range report.Chapters {
		if ch.Matches == 0 {
			continue
		}
		changed := "no"
		if ch.Changed {
			changed = "yes"
		}
		rows = append(rows, []string{ch.ID, ch.Title, strconv.Itoa(ch.Matches), changed})
	}
	if len(rows) > 0 {
		formatter.Table(
			[]string{"ID", "Title", "Matches", "Changed"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
		)
	}
	printSnapshot(formatter, snap)
	return nil
}
