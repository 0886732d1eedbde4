package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cascade/internal/engine"
	"github.com/roach88/cascade/internal/ir"
	"github.com/roach88/cascade/internal/store"
)

func sampleTrace() []TraceEvent {
	v := 3.0
	return []TraceEvent{
		{Case: "a", Seq: 1, Tag: "T", Value: &v},
		{Case: "b", Seq: 2, Tag: "P", Value: &v},
		{Case: "c", Seq: 3, Tag: "P", Error: "DIVIDE_BY_ZERO"},
		{Case: "d", Seq: 4, Error: "NO_MATCH"},
	}
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Type: AssertTraceCount, Tag: "P", Count: 1}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Type: AssertTraceCount, Error: "NO_MATCH", Count: 1}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Type: AssertTraceCount, Tag: "M", Count: 0}))

	err := assertTraceCount(trace, Assertion{Type: AssertTraceCount, Tag: "T", Count: 2})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "2 occurrences of tag T", ae.Expected)
	assert.Equal(t, "1 occurrences", ae.Actual)
	assert.Contains(t, err.Error(), "Full trace:")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Type: AssertTraceOrder, Tags: []string{"T", "P"}}))

	err := assertTraceOrder(trace, Assertion{Type: AssertTraceOrder, Tags: []string{"P", "T"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "P (pos 2) should be before T (pos 1)")

	err = assertTraceOrder(trace, Assertion{Type: AssertTraceOrder, Tags: []string{"M"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing tag: M")
}

func TestJournalAssertions(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	rs := engine.Default()
	ev := engine.NewEvaluator(st, engine.NewSequenceGenerator("eval"))
	_, _ = ev.Evaluate(ctx, rs, ir.NewScope(true, true, true, 1, 52, 1))
	_, _ = ev.Evaluate(ctx, rs, ir.Scope{})

	actx := &AssertionContext{Store: st, Ctx: ctx, SnapshotID: rs.ID()}
	errs := EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertJournalCount, Count: 2},
		{Type: AssertJournalCount, Error: "NO_MATCH", Count: 1},
		{Type: AssertSnapshotRules, Count: 6},
	}, actx)
	assert.Empty(t, errs)

	errs = EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertJournalCount, Count: 3},
		{Type: AssertSnapshotRules, Count: 1},
	}, actx)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "Expected: 3 evaluations")
	assert.Contains(t, errs[1], "Expected: 1 rules")
}

func TestJournalAssertionsWithoutStore(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: AssertJournalCount}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires journal context")
}
