package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/cascade/internal/engine"
	"github.com/roach88/cascade/internal/ir"
	"github.com/roach88/cascade/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	RuleOptions
	Explain  bool
	Database string

	// IDGenerator overrides evaluation IDs (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator engine.IDGenerator
}

// EvalResult is the outcome of one eval call.
type EvalResult struct {
	Scope     ir.Scope `json:"scope"`
	Value     string   `json:"value"`
	Tag       string   `json:"tag"`
	Snapshot  string   `json:"snapshot"`
	GuardID   string   `json:"guard_id,omitempty"`
	FormulaID string   `json:"formula_id,omitempty"`
	ID        string   `json:"id,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <a> <b> <c> <d> <e> <f>",
		Short: "Resolve one scope",
		Long: `Resolve a scope against the rule set and print the number.

a, b and c are true or false; d is a number; e and f are integers.
Rules from --rules files and --expr texts are inserted after the built-in
rules, replacing structurally equal ones.

Exit codes:
  0 - A value was produced
  1 - Resolution failed (no matching rule, no formula, division by zero)
  2 - Command error (bad arguments, invalid rules)

Examples:
  cascade eval true true true 1.0 52 1
  cascade eval true true false 1 52 1 -e "A && B && !C => H = P" --explain
  cascade eval false false false 1 2 3 --rules ./rules --db ./journal.db`,
		Args:          cobra.ExactArgs(6),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args, cmd)
		},
	}

	addRuleFlags(cmd, &opts.RuleOptions)
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "show which rules fired")
	cmd.Flags().StringVar(&opts.Database, "db", "", "journal the evaluation to this SQLite database")

	return cmd
}

func runEval(opts *EvalOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	setupLogging(opts.RootOptions, cmd.ErrOrStderr())

	scope, err := ir.ParseScope(args[0], args[1], args[2], args[3], args[4], args[5])
	if err != nil {
		_ = formatter.Error(ErrCodeInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid scope", err)
	}

	loadResult, loadErrors := LoadRules(opts.Files, opts.Exprs, LoadModeFailFast)
	if len(loadErrors) > 0 {
		_ = formatter.Errors("✗ Rules failed to compile", cliErrors(loadErrors))
		return WrapExitError(ExitCommandError, "invalid rules", loadErrors[0])
	}
	rs := loadResult.RuleSet(opts.NoDefaults)
	formatter.VerboseLog("Rule set %s: %d rule(s)", shortID(rs.ID()), rs.Len())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		journal engine.Journal
		clock   = engine.NewClock()
	)
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		journal = st

		lastSeq, err := st.LastSeq(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		clock = engine.NewClockAt(lastSeq)
	}

	evaluator := engine.NewEvaluator(journal, opts.IDGenerator).WithClock(clock)
	ev, err := evaluator.Evaluate(ctx, rs, scope)
	if err != nil {
		if ev.OK() {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "journal write failed", err)
		}
		_ = formatter.Error(MapErrorCode(err), err.Error(), evalDetails(ev, rs))
		return WrapExitError(ExitFailure, "resolution failed", err)
	}

	result := evalDetails(ev, rs)
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Ok: %s\n", result.Value)
	if opts.Explain {
		fmt.Fprintf(w, "  scope:    %s\n", scope)
		fmt.Fprintf(w, "  tag:      %s\n", result.Tag)
		fmt.Fprintf(w, "  guard:    %s  %s\n", shortID(result.GuardID), ruleText(rs, result.GuardID))
		fmt.Fprintf(w, "  formula:  %s  %s\n", shortID(result.FormulaID), ruleText(rs, result.FormulaID))
		fmt.Fprintf(w, "  snapshot: %s (%d rules)\n", shortID(result.Snapshot), rs.Len())
	}
	return nil
}

func evalDetails(ev ir.Evaluation, rs *engine.RuleSet) EvalResult {
	r := EvalResult{
		Scope:     ev.Scope,
		Snapshot:  rs.ID(),
		GuardID:   ev.GuardID,
		FormulaID: ev.FormulaID,
		ID:        ev.ID,
	}
	if ev.Tag.Valid() {
		r.Tag = ev.Tag.String()
	}
	if ev.OK() {
		r.Value = ir.FormatValue(ev.Value)
	}
	return r
}

// ruleText finds the text of the rule with the given ID.
func ruleText(rs *engine.RuleSet, id string) string {
	for _, rule := range rs.Rules() {
		if rule.ID() == id {
			return rule.Source()
		}
	}
	return ""
}
