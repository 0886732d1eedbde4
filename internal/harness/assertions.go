package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/cascade/internal/ir"
	"github.com/roach88/cascade/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			outcome := event.Error
			if event.Value != nil {
				outcome = ir.FormatValue(*event.Value)
			}
			fmt.Fprintf(&buf, "  [%d] %s %s tag=%q %s\n", i+1, event.Case, event.Scope, event.Tag, outcome)
		}
	}

	return buf.String()
}

// assertTraceCount checks how many events resolved to a tag, or failed
// with an error code.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if a.Tag != "" && event.Tag == a.Tag && event.Error == "" {
			count++
		}
		if a.Error != "" && event.Error == a.Error {
			count++
		}
	}

	if count != a.Count {
		what := "tag " + a.Tag
		if a.Error != "" {
			what = "error " + a.Error
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, what),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that tags first appear in the given order.
// Tags need not be consecutive.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if event.Tag != "" && positions[event.Tag] == 0 {
			positions[event.Tag] = i + 1
		}
	}

	for _, tag := range a.Tags {
		if positions[tag] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all tags present: %v", a.Tags),
				Actual:   fmt.Sprintf("missing tag: %s", tag),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Tags); i++ {
		prev, curr := a.Tags[i-1], a.Tags[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("tags in order: %v", a.Tags),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertJournalCount checks the number of journaled evaluations,
// optionally only those with an error code.
func assertJournalCount(ctx context.Context, st *store.Store, a Assertion) error {
	evs, err := st.ReadEvaluations(ctx, 0)
	if err != nil {
		return fmt.Errorf("journal_count: %w", err)
	}

	count := 0
	for _, ev := range evs {
		if a.Error == "" || ev.ErrorCode == a.Error {
			count++
		}
	}

	if count != a.Count {
		what := "evaluations"
		if a.Error != "" {
			what = "evaluations with error " + a.Error
		}
		return &AssertionError{
			Type:     AssertJournalCount,
			Expected: fmt.Sprintf("%d %s", a.Count, what),
			Actual:   fmt.Sprintf("%d journaled", count),
		}
	}
	return nil
}

// assertSnapshotRules checks the size of the journaled rule set.
func assertSnapshotRules(ctx context.Context, st *store.Store, snapshotID string, a Assertion) error {
	snap, err := st.ReadSnapshot(ctx, snapshotID)
	if err != nil {
		return fmt.Errorf("snapshot_rules: %w", err)
	}
	if len(snap.Rules) != a.Count {
		return &AssertionError{
			Type:     AssertSnapshotRules,
			Expected: fmt.Sprintf("%d rules", a.Count),
			Actual:   fmt.Sprintf("%d rules: %v", len(snap.Rules), snap.Rules),
		}
	}
	return nil
}

// AssertionContext provides journal access for assertions.
type AssertionContext struct {
	Store      *store.Store
	Ctx        context.Context
	SnapshotID string
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertJournalCount, AssertSnapshotRules:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires journal context", i, a.Type)
			} else if a.Type == AssertJournalCount {
				err = assertJournalCount(actx.Ctx, actx.Store, a)
			} else {
				err = assertSnapshotRules(actx.Ctx, actx.Store, actx.SnapshotID, a)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
