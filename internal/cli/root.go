package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the cascade CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cascade",
		Short: "cascade - two-stage rule engine",
		Long: `A two-stage rule engine.

Boolean rules map the flags a, b, c to a tag (M, P or T). Arithmetic
rules keyed by that tag compute a number from d, e and f. Rules are
written as text, e.g. "A && B && !C => H = M" or
"H = M => K = D + (D * E / 10)", and may be kept in CUE files:

  defaults: true
  rules: ["A && B && !C => H = P"]`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// RuleOptions holds the flags that select a rule set.
type RuleOptions struct {
	Files      []string // CUE rule files or directories
	Exprs      []string // inline rule texts, inserted after files
	NoDefaults bool
}

func addRuleFlags(cmd *cobra.Command, opts *RuleOptions) {
	cmd.Flags().StringArrayVarP(&opts.Files, "rules", "r", nil, "CUE rule file or directory (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.Exprs, "expr", "e", nil, "inline rule text (repeatable)")
	cmd.Flags().BoolVar(&opts.NoDefaults, "no-defaults", false, "start from an empty rule set")
}

// setupLogging installs the default slog handler: text on w, debug level
// when verbose.
func setupLogging(opts *RootOptions, w io.Writer) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
