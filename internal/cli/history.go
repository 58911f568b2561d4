package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/novelbackup/internal/ir"
	"github.com/roach88/novelbackup/internal/store"
)

// HistoryResult is the JSON payload of the history command.
type HistoryResult struct {
	Name      string           `json:"name,omitempty"`
	Names     []string         `json:"names,omitempty"`
	Snapshots []store.Snapshot `json:"snapshots,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [name]",
		Short: "List saved snapshots",
		Long: `List the snapshots in the snapshot store.

Without a name, lists every snapshot name. With a name, lists the
snapshots saved under it, oldest first. Saving a document identical to
the newest snapshot does not add a row.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runHistory(rootOpts, name, cmd)
		},
	}

	return cmd
}

func runHistory(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := contextOrBackground(cmd.Context())

	st, err := openStore(formatter, opts)
	if err != nil {
		return err
	}
	defer st.Close()

	if name == "" {
		names, err := st.Names(ctx)
		if err != nil {
			return fail(formatter, ErrCodeStore, "failed to list snapshots", err)
		}
		if formatter.JSON() {
			return formatter.Success(HistoryResult{Names: names})
		}
		if len(names) == 0 {
			fmt.Fprintln(formatter.Writer, "No snapshots saved")
			return nil
		}
		for _, n := range names {
			fmt.Fprintln(formatter.Writer, n)
		}
		return nil
	}

	snaps, err := st.History(ctx, name)
	if err != nil {
		return fail(formatter, ErrCodeStore, "failed to read history", err)
	}
	if len(snaps) == 0 {
		return fail(formatter, ErrCodeNoSnapshot, fmt.Sprintf("no snapshots named %q", name), nil)
	}
	if formatter.JSON() {
		return formatter.Success(HistoryResult{Name: name, Snapshots: snaps})
	}

	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, []string{
			strconv.FormatInt(s.Seq, 10),
			strconv.FormatInt(s.ID, 10),
			s.Operation,
			strconv.Itoa(s.ChapterCount),
			ir.ShortFingerprint(s.Digest),
			s.EngineVersion,
		})
	}
	fmt.Fprintf(formatter.Writer, "%s: %d snapshot(s)\n", name, len(snaps))
	formatter.Table(
		[]string{"Seq", "ID", "Operation", "Chapters", "Digest", "Engine"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignRight},
	)
	return nil
}

// CheckoutOptions holds flags for the checkout command.
type CheckoutOptions struct {
	*RootOptions
	Output string
	ID     int64
}

// NewCheckoutCommand creates the checkout command.
func NewCheckoutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckoutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "checkout <name>",
		Short: "Write a saved snapshot back to a document file",
		Long: `Write a saved snapshot back to a document file.

The newest snapshot under the name is used unless --id selects an older
one (see "novelbackup history <name>" for ids).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckout(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output document path (required)")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().Int64Var(&opts.ID, "id", 0, "snapshot id to restore (default: newest)")

	return cmd
}

func runCheckout(opts *CheckoutOptions, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := contextOrBackground(cmd.Context())

	st, err := openStore(formatter, opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	var (
		snap store.Snapshot
		doc  *ir.Document
	)
	if opts.ID > 0 {
		snap, doc, err = st.ReadSnapshot(ctx, opts.ID)
		if err == nil && snap.Name != name {
			err = sql.ErrNoRows
		}
	} else {
		snap, doc, err = st.LatestSnapshot(ctx, name)
	}
	if errors.Is(err, sql.ErrNoRows) {
		msg := fmt.Sprintf("no snapshots named %q", name)
		if opts.ID > 0 {
			msg = fmt.Sprintf("no snapshot %d named %q", opts.ID, name)
		}
		return fail(formatter, ErrCodeNoSnapshot, msg, nil)
	}
	if err != nil {
		return fail(formatter, ErrCodeStore, "failed to read snapshot", err)
	}

	if err := writeDocument(formatter, opts.Output, doc); err != nil {
		return err
	}

	if formatter.JSON() {
		return formatter.Success(DocumentResult{
			Output:     opts.Output,
			Title:      doc.Title,
			Chapters:   len(doc.Chapters),
			Paragraphs: doc.ParagraphCount(),
			Snapshot:   &SnapshotResult{Snapshot: snap},
		})
	}
	fmt.Fprintf(formatter.Writer, "✓ Checked out %s #%d to %s (%d chapters)\n", snap.Name, snap.Seq, opts.Output, len(doc.Chapters))
	return nil
}

// NewLocateCommand creates the locate command.
func NewLocateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locate <fingerprint>",
		Short: "Find saved snapshots holding a chapter",
		Long: `Find every saved snapshot that holds a chapter with the given content
fingerprint (as shown by "novelbackup inspect --format json").`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runLocate(opts *RootOptions, fingerprint string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := contextOrBackground(cmd.Context())

	st, err := openStore(formatter, opts)
	if err != nil {
		return err
	}
	defer st.Close()

	hits, err := st.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		return fail(formatter, ErrCodeStore, "failed to search snapshots", err)
	}
	if formatter.JSON() {
		return formatter.Success(hits)
	}
	if len(hits) == 0 {
		fmt.Fprintf(formatter.Writer, "No snapshot holds %s\n", ir.ShortFingerprint(fingerprint))
		return nil
	}

	rows := make([][]string, 0, len(hits))
	for _, h := range hits {
		rows = append(rows, []string{
			h.Name,
			strconv.FormatInt(h.Seq, 10),
			strconv.Itoa(h.Order),
			h.ChapterID,
			h.Title,
		})
	}
	formatter.Table(
		[]string{"Snapshot", "Seq", "#", "Chapter ID", "Title"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
	)
	return nil
}
