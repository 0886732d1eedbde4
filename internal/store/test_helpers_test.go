package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cascade/internal/ir"
)

// createTestStore opens a file-backed store in a temp dir, closed on cleanup.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func okEvaluation(id string, seq int64, value float64) ir.Evaluation {
	return ir.Evaluation{
		ID:         id,
		Seq:        seq,
		SnapshotID: "snap-1",
		Scope:      ir.NewScope(true, true, true, 1.0, 52, 1),
		Tag:        ir.TagP,
		GuardID:    "guard-1",
		FormulaID:  "formula-1",
		Value:      value,
	}
}

func failedEvaluation(id string, seq int64) ir.Evaluation {
	return ir.Evaluation{
		ID:           id,
		Seq:          seq,
		SnapshotID:   "snap-1",
		Scope:        ir.Scope{},
		ErrorCode:    "NO_MATCH",
		ErrorMessage: "NO_MATCH: no matching boolean rule",
	}
}
