package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/roach88/cascade/internal/engine"
	"github.com/roach88/cascade/internal/ir"
	"github.com/roach88/cascade/internal/store"
)

// valueTolerance bounds the relative difference accepted between an
// expected and a computed value.
const valueTolerance = 1e-9

// Harness is the test execution engine for one scenario.
type Harness struct {
	store     *store.Store
	evaluator *engine.Evaluator
	rules     *engine.RuleSet
	logger    *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory journal. A rule that fails to
// compile is an execution error, not a failed case.
//
// Execution flow:
// 1. Build the rule set (defaults, then scenario rules in order)
// 2. Resolve every case, journaling each evaluation
// 3. Compare each outcome with its expect clause
// 4. Evaluate assertions against the trace and journal
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	rs, err := buildRuleSet(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to build rule set: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:     st,
		evaluator: engine.NewEvaluator(st, engine.NewSequenceGenerator("eval")),
		rules:     rs,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	result := NewResult()
	result.SnapshotID = rs.ID()
	result.Rules = rs.Texts()

	if err := h.executeCases(ctx, scenario.Cases, result); err != nil {
		return nil, err
	}

	actx := &AssertionContext{
		Store:      st,
		Ctx:        ctx,
		SnapshotID: rs.ID(),
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

func buildRuleSet(scenario *Scenario) (*engine.RuleSet, error) {
	rs := engine.NewRuleSet()
	if scenario.UsesDefaults() {
		rs = engine.Default()
	}
	return rs.Add(scenario.Rules...)
}

// executeCases resolves each case in order and checks its expect clause.
func (h *Harness) executeCases(ctx context.Context, cases []Case, result *Result) error {
	for i, c := range cases {
		ev, err := h.evaluator.Evaluate(ctx, h.rules, c.Scope)
		if err != nil && ev.OK() {
			return fmt.Errorf("case %d (%s): %w", i, c.Name, err)
		}
		result.AddTrace(c.Name, ev)

		if msg := checkExpect(c, ev); msg != "" {
			result.AddError(msg)
		}

		h.logger.Info("case resolved",
			"case", c.Name,
			"seq", ev.Seq,
			"tag", ev.Tag.String(),
			"error", ev.ErrorCode,
		)
	}
	return nil
}

// checkExpect returns a failure message, or "" when ev meets the case's
// expectation.
func checkExpect(c Case, ev ir.Evaluation) string {
	want := c.Expect
	if want == nil {
		return ""
	}

	if want.Tag != "" {
		got := ""
		if ev.Tag.Valid() {
			got = ev.Tag.String()
		}
		if got != want.Tag {
			return fmt.Sprintf("case %s: expected tag %s, got %q", c.Name, want.Tag, got)
		}
	}

	switch {
	case want.Error != "":
		if ev.ErrorCode != want.Error {
			return fmt.Sprintf("case %s: expected error %s, got %s", c.Name, want.Error, describe(ev))
		}
	case want.Value != nil:
		if !ev.OK() {
			return fmt.Sprintf("case %s: expected value %s, got %s", c.Name, ir.FormatValue(*want.Value), describe(ev))
		}
		if !closeEnough(*want.Value, ev.Value) {
			return fmt.Sprintf("case %s: expected value %s, got %s", c.Name, ir.FormatValue(*want.Value), ir.FormatValue(ev.Value))
		}
	default:
		if !ev.OK() {
			return fmt.Sprintf("case %s: unexpected error %s", c.Name, ev.ErrorMessage)
		}
	}
	return ""
}

func describe(ev ir.Evaluation) string {
	if ev.OK() {
		return "value " + ir.FormatValue(ev.Value)
	}
	return "error " + ev.ErrorCode
}

func closeEnough(want, got float64) bool {
	if want == got {
		return true
	}
	return math.Abs(want-got) <= valueTolerance*math.Max(1, math.Abs(want))
}
