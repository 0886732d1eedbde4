package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/cascade/internal/ir"
)

// WriteEvaluation appends an evaluation. Duplicate IDs are ignored.
func (s *Store) WriteEvaluation(ctx context.Context, ev ir.Evaluation) error {
	var value sql.NullString
	if ev.OK() {
		value = sql.NullString{String: ir.FormatValue(ev.Value), Valid: true}
	}

	tag := ""
	if ev.Tag.Valid() {
		tag = ev.Tag.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO evaluations
		(id, seq, snapshot_id, a, b, c, d, e, f, tag, guard_id, formula_id,
		 value, error_code, error_message, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		ev.ID,
		ev.Seq,
		ev.SnapshotID,
		ev.Scope.A,
		ev.Scope.B,
		ev.Scope.C,
		ir.FormatValue(ev.Scope.D),
		ev.Scope.E,
		ev.Scope.F,
		tag,
		ev.GuardID,
		ev.FormulaID,
		value,
		ev.ErrorCode,
		ev.ErrorMessage,
		ir.EngineVersion,
		ir.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write evaluation: %w", err)
	}
	return nil
}

// WriteSnapshot records the rules of a rule set. Recording the same
// snapshot ID twice is a no-op.
func (s *Store) WriteSnapshot(ctx context.Context, snap ir.SnapshotRecord) error {
	rulesJSON, err := ir.MarshalCanonical(snap.Rules)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, rules, rule_count)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, snap.ID, string(rulesJSON), len(snap.Rules))
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
