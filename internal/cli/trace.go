package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/cascade/internal/ir"
	"github.com/roach88/cascade/internal/queryir"
	"github.com/roach88/cascade/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Snapshot string   // optional - restrict to one rule set
	Where    []string // field=value conditions
	Limit    int
}

// TraceEvent is one journaled evaluation.
type TraceEvent struct {
	Seq       int64    `json:"seq"`
	ID        string   `json:"id"`
	Snapshot  string   `json:"snapshot"`
	Scope     ir.Scope `json:"scope"`
	Tag       string   `json:"tag,omitempty"`
	Value     string   `json:"value,omitempty"`
	ErrorCode string   `json:"error_code,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Snapshot string       `json:"snapshot,omitempty"`
	Rules    []string     `json:"rules,omitempty"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Total  int            `json:"total"`
	OK     int            `json:"ok"`
	Failed int            `json:"failed"`
	ByTag  map[string]int `json:"by_tag"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "List journaled evaluations",
		Long: `List the evaluations recorded in a journal database.

Evaluations are shown in seq order with their scope, tag and outcome.
With --snapshot only evaluations against that rule set are listed and
the rule texts of the set are printed first. --where keeps evaluations
whose column equals a value; it is repeatable and conditions are ANDed.
Filterable columns: id, seq, snapshot_id, a, b, c, e, f, tag, guard_id,
formula_id, error_code.

Examples:
  cascade trace --db ./journal.db
  cascade trace --db ./journal.db --limit 20
  cascade trace --db ./journal.db --where tag=P --where a=true
  cascade trace --db ./journal.db --where error_code=NO_MATCH
  cascade trace --db ./journal.db --snapshot 3f2a... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Snapshot, "snapshot", "", "only evaluations against this rule set")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "field=value filter (repeatable)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of evaluations (0 = all)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
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

	result := TraceResult{
		Snapshot: opts.Snapshot,
		Timeline: []TraceEvent{},
		Stats:    TraceStats{ByTag: map[string]int{}},
	}

	filter, err := queryir.ParseConditions(opts.Where)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --where", err)
	}

	if opts.Snapshot != "" {
		snap, err := st.ReadSnapshot(ctx, opts.Snapshot)
		if errors.Is(err, store.ErrNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("snapshot not found: %s", opts.Snapshot))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read snapshot", err)
		}
		result.Rules = snap.Rules
		filter = queryir.AllOf(queryir.Equals{Field: "snapshot_id", Value: ir.IRString(opts.Snapshot)}, filter)
	}

	evals, err := st.SelectEvaluations(ctx, filter, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read evaluations", err)
	}

	for _, ev := range evals {
		event := traceEvent(ev)
		result.Timeline = append(result.Timeline, event)
		result.Stats.Total++
		if ev.OK() {
			result.Stats.OK++
		} else {
			result.Stats.Failed++
		}
		if event.Tag != "" {
			result.Stats.ByTag[event.Tag]++
		}
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

func traceEvent(ev ir.Evaluation) TraceEvent {
	event := TraceEvent{
		Seq:      ev.Seq,
		ID:       ev.ID,
		Snapshot: ev.SnapshotID,
		Scope:    ev.Scope,
	}
	if ev.Tag.Valid() {
		event.Tag = ev.Tag.String()
	}
	if ev.OK() {
		event.Value = ir.FormatValue(ev.Value)
	} else {
		event.ErrorCode = ev.ErrorCode
		event.Error = ev.ErrorMessage
	}
	return event
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if result.Snapshot != "" {
		fmt.Fprintf(w, "Trace for Snapshot: %s\n", shortID(result.Snapshot))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Rules ===")
		for _, rule := range result.Rules {
			fmt.Fprintf(w, "  %s\n", rule)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no evaluations)")
	}
	for _, event := range result.Timeline {
		formatTraceEvent(w, event, verbose)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total:  %d\n", result.Stats.Total)
	fmt.Fprintf(w, "  Ok:     %d\n", result.Stats.OK)
	fmt.Fprintf(w, "  Failed: %d\n", result.Stats.Failed)
	for _, tag := range []string{"M", "P", "T"} {
		if n := result.Stats.ByTag[tag]; n > 0 {
			fmt.Fprintf(w, "  H = %s:  %d\n", tag, n)
		}
	}

	return nil
}

// formatTraceEvent writes one timeline line, plus IDs when verbose.
func formatTraceEvent(w io.Writer, event TraceEvent, verbose bool) {
	tag := event.Tag
	if tag == "" {
		tag = "-"
	}
	if event.ErrorCode == "" {
		fmt.Fprintf(w, "  [%d] %s  H=%s  Ok: %s\n", event.Seq, event.Scope, tag, event.Value)
	} else {
		fmt.Fprintf(w, "  [%d] %s  H=%s  %s: %s\n", event.Seq, event.Scope, tag, event.ErrorCode, event.Error)
	}
	if verbose {
		fmt.Fprintf(w, "       ID: %s  Snapshot: %s\n", truncateID(event.ID), shortID(event.Snapshot))
	}
}

// truncateID shortens a UUID for display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}
