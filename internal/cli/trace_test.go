package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cascade/internal/engine"
	"github.com/roach88/cascade/internal/ir"
	"github.com/roach88/cascade/internal/store"
)

// seedJournal resolves scopes against the default rules and then against
// an overridden set, journaling to a fresh database. It returns the
// database path and both snapshot IDs.
func seedJournal(t *testing.T) (dbPath, defaultID, overrideID string) {
	t.Helper()
	dbPath = filepath.Join(t.TempDir(), "journal.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	ev := engine.NewEvaluator(st, engine.NewSequenceGenerator("eval"))

	defaults := engine.Default()
	for _, s := range []ir.Scope{
		ir.NewScope(true, true, true, 1, 52, 1),
		ir.NewScope(true, true, false, 1, 52, 1),
		ir.NewScope(false, false, false, 1, 52, 1),
	} {
		_, _ = ev.Evaluate(ctx, defaults, s)
	}

	override, err := defaults.Add("A && B && !C => H = P")
	require.NoError(t, err)
	_, err = ev.Evaluate(ctx, override, ir.NewScope(true, true, false, 1, 52, 1))
	require.NoError(t, err)

	return dbPath, defaults.ID(), override.ID()
}

func TestTraceMissingDatabaseFlag(t *testing.T) {
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	_, err := execute(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceEmptyDatabase(t *testing.T) {
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	out, err := execute(cmd, "--db", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "(no evaluations)")
	assert.Contains(t, out, "Total:  0")
}

func TestTraceText(t *testing.T) {
	dbPath, _, _ := seedJournal(t)

	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	out, err := execute(cmd, "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, out, "[1] a=true b=true c=true d=1 e=52 f=1  H=P  Ok: 3")
	assert.Contains(t, out, "[2] a=true b=true c=false d=1 e=52 f=1  H=M  Ok: 6.2")
	assert.Contains(t, out, "[3] a=false b=false c=false d=1 e=52 f=1  H=-  NO_MATCH")
	assert.Contains(t, out, "[4] a=true b=true c=false d=1 e=52 f=1  H=P  Ok: 3")
	assert.Contains(t, out, "Total:  4")
	assert.Contains(t, out, "Failed: 1")
}

func TestTraceJSONLimit(t *testing.T) {
	dbPath, _, _ := seedJournal(t)

	cmd := NewTraceCommand(&RootOptions{Format: "json"})
	out, err := execute(cmd, "--db", dbPath, "--limit", "2")
	require.NoError(t, err)

	var result TraceResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, result.Timeline, 2)
	assert.Equal(t, "eval-1", result.Timeline[0].ID)
	assert.Equal(t, "3", result.Timeline[0].Value)
	assert.Equal(t, "M", result.Timeline[1].Tag)
	assert.Equal(t, map[string]int{"P": 1, "M": 1}, result.Stats.ByTag)
}

func TestTraceSnapshot(t *testing.T) {
	dbPath, _, overrideID := seedJournal(t)

	cmd := NewTraceCommand(&RootOptions{Format: "json"})
	out, err := execute(cmd, "--db", dbPath, "--snapshot", overrideID)
	require.NoError(t, err)

	var result TraceResult
	decodeResponse(t, out, &result)
	assert.Equal(t, overrideID, result.Snapshot)
	assert.Len(t, result.Rules, 6)
	assert.Contains(t, result.Rules, "A && B && !C => H = P")
	require.Len(t, result.Timeline, 1)
	assert.Equal(t, int64(4), result.Timeline[0].Seq)
}

func TestTraceWhere(t *testing.T) {
	dbPath, defaultID, _ := seedJournal(t)

	tests := []struct {
		name string
		args []string
		seqs []int64
	}{
		{"tag", []string{"--where", "tag=P"}, []int64{1, 4}},
		{"flag_and_tag", []string{"--where", "c=false", "--where", "tag=M"}, []int64{2}},
		{"error", []string{"--where", "error_code=NO_MATCH"}, []int64{3}},
		{"with_snapshot", []string{"--snapshot", defaultID, "--where", "tag=P"}, []int64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewTraceCommand(&RootOptions{Format: "json"})
			out, err := execute(cmd, append([]string{"--db", dbPath}, tt.args...)...)
			require.NoError(t, err)

			var result TraceResult
			decodeResponse(t, out, &result)
			seqs := make([]int64, 0, len(result.Timeline))
			for _, ev := range result.Timeline {
				seqs = append(seqs, ev.Seq)
			}
			assert.Equal(t, tt.seqs, seqs)
		})
	}
}

func TestTraceWhereInvalid(t *testing.T) {
	dbPath, _, _ := seedJournal(t)

	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	_, err := execute(cmd, "--db", dbPath, "--where", "d=1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown field")
}

func TestTraceUnknownSnapshot(t *testing.T) {
	dbPath, _, _ := seedJournal(t)

	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	_, err := execute(cmd, "--db", dbPath, "--snapshot", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "snapshot not found")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "01234567...", truncateID("0123456789"))
	assert.Equal(t, "eval-1", truncateID("eval-1"))
}
