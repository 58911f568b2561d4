package cli

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/novelbackup/internal/config"
	"github.com/roach88/novelbackup/internal/engine"
	"github.com/roach88/novelbackup/internal/logging"
)

// RootOptions holds global flags for all commands, plus the settings they
// resolve to once the config file and environment are applied.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	StorePath  string
	LogLevel   string

	// Config is the loaded configuration with flag overrides applied.
	// Set by the root command before any subcommand runs.
	Config *config.Config

	// Logger writes diagnostics to stderr.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the novelbackup CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "novelbackup",
		Short: "Build, merge and edit novel backup documents",
		Long: `novelbackup keeps a novel's chapters in one portable backup document.

Build a backup from a chapter archive, merge two backups without losing
or duplicating chapters, augment a backup from a newer archive, and run
find/replace across chapters. Documents can be snapshotted into a local
history store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolve(cmd); err != nil {
				_ = opts.formatter(cmd).Error(ErrCodeBadFlag, err.Error(), nil)
				return err
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (implies --log-level debug)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.StorePath, "store", "", "path to snapshot database")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	// Add subcommands
	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewMergeCommand(opts))
	cmd.AddCommand(NewAugmentCommand(opts))
	cmd.AddCommand(NewReplaceCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewCheckoutCommand(opts))
	cmd.AddCommand(NewLocateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve loads the config and lets explicitly set flags override it.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.OutputFormat = o.Format
	}
	if flags.Changed("store") {
		cfg.StorePath = o.StorePath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.LogLevel
	} else if o.Verbose {
		cfg.LogLevel = "debug"
	}

	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)
	if !isValidFormat(cfg.OutputFormat) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", cfg.OutputFormat, ValidFormats))
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log level", err)
	}
	logFormat, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log format", err)
	}

	o.Format = cfg.OutputFormat
	o.StorePath = cfg.StorePath
	o.LogLevel = cfg.LogLevel
	o.Config = cfg
	o.Logger = logging.New(cmd.ErrOrStderr(), level, logFormat).With("command", cmd.Name())
	return nil
}

// formatter returns the output formatter for a command.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// newEngine returns an engine configured from the resolved settings. Every
// completed operation is logged at info level.
func (o *RootOptions) newEngine() *engine.Engine {
	logger := o.logger()
	var exts []string
	if o.Config != nil {
		exts = o.Config.ChapterExtensions
	}
	return engine.New(
		engine.WithLogger(logger),
		engine.WithExtensions(exts...),
		engine.WithNotifier(engine.NotifierFunc(func(ev engine.Event) {
			attrs := []any{"operation", ev.Operation, "title", ev.Title, "chapters", ev.Chapters}
			for _, k := range sortedKeys(ev.Summary) {
				attrs = append(attrs, k, ev.Summary[k])
			}
			logger.Info("operation complete", attrs...)
		})),
	)
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return logging.Discard()
	}
	return o.Logger
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
