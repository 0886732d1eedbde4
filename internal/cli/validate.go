package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool       `json:"valid"`
	Rules  int        `json:"rules"`
	Errors []CLIError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var exprs []string

	cmd := &cobra.Command{
		Use:   "validate <rule-files...>",
		Short: "Check rules without printing programs",
		Long: `Compile every rule and report every error, not just the first.

Faster feedback than compile while editing rule files.

Examples:
  cascade validate ./rules
  cascade validate -e "A && => H = M"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, exprs, cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&exprs, "expr", "e", nil, "inline rule text (repeatable)")

	return cmd
}

func runValidate(opts *RootOptions, paths, exprs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if len(paths) == 0 && len(exprs) == 0 {
		_ = formatter.Error(ErrCodeNoFiles, "nothing to validate: give rule files or --expr", nil)
		return NewExitError(ExitCommandError, "nothing to validate")
	}

	loadResult, loadErrors := LoadRules(paths, exprs, LoadModeCollectAll)
	if len(loadErrors) > 0 {
		errs := cliErrors(loadErrors)
		if formatter.Format == "json" {
			_ = formatter.Success(ValidationResult{Valid: false, Errors: errs})
		} else {
			_ = formatter.Errors("✗ Validation failed", errs)
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	formatter.VerboseLog("Validated %d CUE file(s)", loadResult.FileCount)

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Rules: len(loadResult.Rules)})
	}
	fmt.Fprintf(formatter.Writer, "✓ %d rule(s) valid\n", len(loadResult.Rules))
	return nil
}
