package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/cobra"

	"github.com/roach88/cascade/internal/engine"
	"github.com/roach88/cascade/internal/ir"
	"github.com/roach88/cascade/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Snapshot string // optional - specific rule set only
}

// ReplaySnapshotResult holds the replay result for one rule set.
type ReplaySnapshotResult struct {
	Snapshot      string   `json:"snapshot"`
	Rules         int      `json:"rules"`
	Evaluations   int      `json:"evaluations"`
	Deterministic bool     `json:"deterministic"`
	Diffs         []string `json:"diffs,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Snapshots        []ReplaySnapshotResult `json:"snapshots"`
	TotalSnapshots   int                    `json:"total_snapshots"`
	AllDeterministic bool                   `json:"all_deterministic"`
}

// outcome is the part of an evaluation that replay must reproduce.
type outcome struct {
	Tag       string
	GuardID   string
	FormulaID string
	Value     float64
	ErrorCode string
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-resolve the journal and verify determinism",
		Long: `Rebuild every journaled rule set from its recorded rule texts, resolve
each journaled scope again and compare the outcome with the record.

The rebuilt set must carry the recorded snapshot ID, and every
evaluation must reproduce its tag, firing rules, value and error code.

Exit codes:
  0 - All evaluations reproduced
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  cascade replay --db ./journal.db
  cascade replay --db ./journal.db --snapshot 3f2a...
  cascade replay --db ./journal.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Snapshot, "snapshot", "", "replay specific rule set only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	var evals []ir.Evaluation
	if opts.Snapshot != "" {
		evals, err = st.ReadEvaluationsForSnapshot(ctx, opts.Snapshot)
	} else {
		evals, err = st.ReadEvaluations(ctx, 0)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read evaluations", err)
	}

	// Group by snapshot in order of first use.
	var order []string
	groups := make(map[string][]ir.Evaluation)
	for _, ev := range evals {
		if _, seen := groups[ev.SnapshotID]; !seen {
			order = append(order, ev.SnapshotID)
		}
		groups[ev.SnapshotID] = append(groups[ev.SnapshotID], ev)
	}

	result := ReplayResult{
		Snapshots:        make([]ReplaySnapshotResult, 0, len(order)),
		TotalSnapshots:   len(order),
		AllDeterministic: true,
	}

	if len(order) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No evaluations found in database.")
		return nil
	}

	for _, id := range order {
		snapResult, err := replaySnapshot(ctx, st, id, groups[id])
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay snapshot %s", shortID(id)), err)
		}

		result.Snapshots = append(result.Snapshots, snapResult)
		if !snapResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replaySnapshot rebuilds one rule set and re-resolves its evaluations.
func replaySnapshot(ctx context.Context, st *store.Store, snapshotID string, evals []ir.Evaluation) (ReplaySnapshotResult, error) {
	snap, err := st.ReadSnapshot(ctx, snapshotID)
	if err != nil {
		return ReplaySnapshotResult{}, fmt.Errorf("read snapshot: %w", err)
	}

	rs, err := engine.NewRuleSet().Add(snap.Rules...)
	if err != nil {
		return ReplaySnapshotResult{}, fmt.Errorf("rebuild rule set: %w", err)
	}

	res := ReplaySnapshotResult{
		Snapshot:      snapshotID,
		Rules:         rs.Len(),
		Evaluations:   len(evals),
		Deterministic: true,
	}

	if rs.ID() != snapshotID {
		res.Deterministic = false
		res.Diffs = append(res.Diffs, fmt.Sprintf("rebuilt rule set has ID %s", rs.ID()))
	}

	for _, ev := range evals {
		recorded := outcomeOf(ev.Tag, ev.GuardID, ev.FormulaID, ev.Value, ev.ErrorCode)
		r, resErr := rs.Explain(ev.Scope)
		var value float64
		if resErr == nil {
			value = r.Value
		}
		replayed := outcomeOf(r.Tag, r.GuardID, r.FormulaID, value, engine.ErrorCode(resErr))

		if diff := cmp.Diff(recorded, replayed, cmpopts.EquateNaNs()); diff != "" {
			res.Deterministic = false
			res.Diffs = append(res.Diffs, fmt.Sprintf("[%d] %s (-recorded +replayed):\n%s", ev.Seq, ev.Scope, diff))
		}
	}

	return res, nil
}

func outcomeOf(tag ir.Tag, guardID, formulaID string, value float64, code string) outcome {
	o := outcome{
		GuardID:   guardID,
		FormulaID: formulaID,
		ErrorCode: code,
	}
	if tag.Valid() {
		o.Tag = tag.String()
	}
	if code == "" {
		o.Value = value
	}
	return o
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d snapshot(s)\n", result.TotalSnapshots)
	fmt.Fprintln(w)

	for _, snap := range result.Snapshots {
		status := "✓"
		if !snap.Deterministic {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Snapshot: %s\n", status, shortID(snap.Snapshot))
		fmt.Fprintf(w, "  Rules: %d, Evaluations: %d\n", snap.Rules, snap.Evaluations)

		if !snap.Deterministic {
			fmt.Fprintln(w, "  Warning: Non-deterministic replay detected!")
			if verbose {
				for _, d := range snap.Diffs {
					fmt.Fprintf(w, "  %s\n", d)
				}
			}
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All evaluations reproduced")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
