package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/novelbackup/internal/engine"
	"github.com/roach88/novelbackup/internal/ir"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Output string
	Title  string
	Author string
	Save   string
}

// DocumentResult is the JSON payload of commands that write a document.
type DocumentResult struct {
	Output     string               `json:"output"`
	Title      string               `json:"title,omitempty"`
	Chapters   int                  `json:"chapters"`
	Paragraphs int                  `json:"paragraphs"`
	Merge      *engine.MergeReport  `json:"merge,omitempty"`
	Change     *engine.ChangeReport `json:"change,omitempty"`
	Snapshot   *SnapshotResult      `json:"snapshot,omitempty"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <archive>",
		Short: "Build a backup document from a chapter archive",
		Long: `Build a backup document from a chapter archive.

The archive may be a .zip, .tar, .tar.gz, .tar.xz file or a directory.
Entries with a chapter extension (.txt by default) become chapters in
natural name order ("chapter2" before "chapter10"); each line of text
becomes a paragraph.

Examples:
  novelbackup build book.zip -o book.json --title "My Novel"
  novelbackup build ./chapters -o book.json --save my-novel`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output document path (required)")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().StringVar(&opts.Title, "title", "", "novel title")
	cmd.Flags().StringVar(&opts.Author, "author", "", "novel author (defaults to default_author from config)")
	cmd.Flags().StringVar(&opts.Save, "save", "", "also save the document as a snapshot under this name")

	return cmd
}

func runBuild(ctx context.Context, opts *BuildOptions, archivePath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	src, err := openArchive(formatter, archivePath)
	if err != nil {
		return err
	}
	defer src.Close()

	author := opts.Author
	if author == "" && opts.Config != nil {
		author = opts.Config.DefaultAuthor
	}

	doc, err := opts.newEngine().Build(src, ir.Metadata{Title: opts.Title, Author: author})
	if err != nil {
		return fail(formatter, ErrCodeGeneric, "build failed", err)
	}
	if err := writeDocument(formatter, opts.Output, doc); err != nil {
		return err
	}
	snap, err := saveSnapshot(contextOrBackground(ctx), formatter, opts.RootOptions, opts.Save, string(engine.OperationBuild), doc)
	if err != nil {
		return err
	}

	result := DocumentResult{
		Output:     opts.Output,
		Title:      doc.Title,
		Chapters:   len(doc.Chapters),
		Paragraphs: doc.ParagraphCount(),
		Snapshot:   snap,
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Built %s (%d chapters, %d paragraphs)\n", opts.Output, result.Chapters, result.Paragraphs)
	formatter.Table(chapterHeaders, chapterRows(doc), chapterAligns)
	printSnapshot(formatter, snap)
	return nil
}

var (
	chapterHeaders = []string{"#", "ID", "Title", "Paragraphs", "Fingerprint"}
	chapterAligns  = []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft}
)

func chapterRows(doc *ir.Document) [][]string {
	rows := make([][]string, 0, len(doc.Chapters))
	for _, ch := range doc.Chapters {
		rows = append(rows, []string{
			strconv.Itoa(ch.Order),
			ch.ID,
			ch.Title,
			strconv.Itoa(len(ch.Paragraphs)),
			ir.ShortFingerprint(ch.Fingerprint),
		})
	}
	return rows
}

func printSnapshot(f *OutputFormatter, snap *SnapshotResult) {
	if snap == nil {
		return
	}
	if snap.Inserted {
		fmt.Fprintf(f.Writer, "✓ Saved snapshot %s #%d\n", snap.Name, snap.Seq)
		return
	}
	fmt.Fprintf(f.Writer, "✓ Snapshot %s #%d already holds this document\n", snap.Name, snap.Seq)
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
