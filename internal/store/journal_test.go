package store

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cascade/internal/engine"
	"github.com/roach88/cascade/internal/ir"
)

// Compile-time check that the store can back an evaluator.
var (
	_ engine.Journal         = (*Store)(nil)
	_ engine.SnapshotJournal = (*Store)(nil)
)

func TestWriteReadEvaluation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := okEvaluation("e1", 1, 6.2)
	require.NoError(t, s.WriteEvaluation(ctx, want))

	got, err := s.ReadEvaluation(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteReadNonFiniteEvaluation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	nan := okEvaluation("e1", 1, math.NaN())
	nan.Scope.D = math.NaN()
	require.NoError(t, s.WriteEvaluation(ctx, nan))

	got, err := s.ReadEvaluation(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got.Scope.D))
	assert.True(t, math.IsNaN(got.Value))
	assert.True(t, got.OK())

	inf := okEvaluation("e2", 2, math.Inf(-1))
	inf.Scope.D = math.Inf(1)
	require.NoError(t, s.WriteEvaluation(ctx, inf))

	got, err = s.ReadEvaluation(ctx, "e2")
	require.NoError(t, err)
	assert.Equal(t, inf, got)
}

func TestWriteReadExtremeValues(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i, v := range []float64{1e308, 5e-324, -0.1, 1 + 52.0/10} {
		want := okEvaluation(fmt.Sprintf("e%d", i), int64(i+1), v)
		want.Scope.D = v
		require.NoError(t, s.WriteEvaluation(ctx, want))

		got, err := s.ReadEvaluation(ctx, want.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestWriteFailedEvaluation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := failedEvaluation("e1", 1)
	require.NoError(t, s.WriteEvaluation(ctx, want))

	got, err := s.ReadEvaluation(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.False(t, got.OK())
	assert.Equal(t, ir.Tag(0), got.Tag)

	var isNull bool
	require.NoError(t, s.db.QueryRow(`SELECT value IS NULL FROM evaluations WHERE id = 'e1'`).Scan(&isNull))
	assert.True(t, isNull)
}

func TestWriteEvaluationDuplicateIgnored(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteEvaluation(ctx, okEvaluation("e1", 1, 3)))
	require.NoError(t, s.WriteEvaluation(ctx, okEvaluation("e1", 2, 99)))

	got, err := s.ReadEvaluation(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.Value)

	n, err := s.CountEvaluations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReadEvaluationNotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadEvaluation(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadEvaluationsOrderAndLimit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteEvaluation(ctx, okEvaluation("c", 3, 1)))
	require.NoError(t, s.WriteEvaluation(ctx, okEvaluation("b", 1, 1)))
	require.NoError(t, s.WriteEvaluation(ctx, okEvaluation("a", 2, 1)))

	all, err := s.ReadEvaluations(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"b", "a", "c"}, ids(all))

	limited, err := s.ReadEvaluations(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(limited))
}

func TestReadEvaluationsEmpty(t *testing.T) {
	s := createTestStore(t)

	evs, err := s.ReadEvaluations(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, evs)
	assert.Empty(t, evs)
}

func TestReadEvaluationsForSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	other := okEvaluation("e2", 2, 1)
	other.SnapshotID = "snap-2"
	require.NoError(t, s.WriteEvaluation(ctx, okEvaluation("e1", 1, 1)))
	require.NoError(t, s.WriteEvaluation(ctx, other))

	evs, err := s.ReadEvaluationsForSnapshot(ctx, "snap-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"e2"}, ids(evs))
}

func TestLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, s.WriteEvaluation(ctx, okEvaluation("e1", 7, 1)))
	require.NoError(t, s.WriteEvaluation(ctx, okEvaluation("e2", 4, 1)))

	seq, err = s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)
}

func TestWriteReadSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := ir.SnapshotRecord{ID: "snap-1", Rules: engine.DefaultRules}
	require.NoError(t, s.WriteSnapshot(ctx, rec))
	require.NoError(t, s.WriteSnapshot(ctx, rec))

	got, err := s.ReadSnapshot(ctx, "snap-1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = s.ReadSnapshot(ctx, "snap-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEvaluatorJournalsToStore(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ev := engine.NewEvaluator(s, engine.NewSequenceGenerator("eval"))
	rs := engine.Default()

	got, err := ev.Evaluate(ctx, rs, ir.NewScope(true, true, false, 1.0, 52, 1))
	require.NoError(t, err)
	assert.InDelta(t, 6.2, got.Value, 1e-9)

	_, err = ev.Evaluate(ctx, rs, ir.Scope{})
	require.Error(t, err)

	evs, err := s.ReadEvaluations(ctx, 0)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, got, evs[0])
	assert.Equal(t, "NO_MATCH", evs[1].ErrorCode)

	snap, err := s.ReadSnapshot(ctx, rs.ID())
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultRules, snap.Rules)
}

func ids(evs []ir.Evaluation) []string {
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.ID
	}
	return out
}
