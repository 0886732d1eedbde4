package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/cascade/internal/ir"
	"github.com/roach88/cascade/internal/queryir"
	"github.com/roach88/cascade/internal/querysql"
)

// evaluationColumnList is the scan order of scanEvaluation.
var evaluationColumnList = []string{
	"id", "seq", "snapshot_id", "a", "b", "c", "d", "e", "f", "tag",
	"guard_id", "formula_id", "value", "error_code", "error_message",
}

var evaluationColumns = " " + strings.Join(evaluationColumnList, ", ")

// ReadEvaluations returns journaled evaluations ordered by seq then id.
// A limit <= 0 returns every row. Returns an empty slice, never nil.
func (s *Store) ReadEvaluations(ctx context.Context, limit int) ([]ir.Evaluation, error) {
	return s.SelectEvaluations(ctx, nil, limit)
}

// SelectEvaluations returns the evaluations matching filter, ordered by
// seq then id. A nil filter matches every row; a limit <= 0 returns all.
func (s *Store) SelectEvaluations(ctx context.Context, filter queryir.Predicate, limit int) ([]ir.Evaluation, error) {
	query, args, err := querysql.NewSQLCompiler().Compile(queryir.Select{
		From:    queryir.Table,
		Columns: evaluationColumnList,
		Filter:  filter,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("select evaluations: %w", err)
	}
	return s.queryEvaluations(ctx, query, args...)
}

// ReadEvaluationsForSnapshot returns the evaluations run against one rule set.
func (s *Store) ReadEvaluationsForSnapshot(ctx context.Context, snapshotID string) ([]ir.Evaluation, error) {
	return s.SelectEvaluations(ctx, queryir.Equals{Field: "snapshot_id", Value: ir.IRString(snapshotID)}, 0)
}

// ReadEvaluation returns one evaluation by ID, or ErrNotFound.
func (s *Store) ReadEvaluation(ctx context.Context, id string) (ir.Evaluation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+evaluationColumns+`
		FROM evaluations WHERE id = ?`, id)
	ev, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Evaluation{}, fmt.Errorf("evaluation %s: %w", id, ErrNotFound)
	}
	return ev, err
}

// CountEvaluations returns the number of journaled evaluations.
func (s *Store) CountEvaluations(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM evaluations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count evaluations: %w", err)
	}
	return n, nil
}

// LastSeq returns the highest journaled seq, or 0 for an empty journal.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM evaluations`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

// ReadSnapshot returns the rules recorded for a snapshot ID, or ErrNotFound.
func (s *Store) ReadSnapshot(ctx context.Context, id string) (ir.SnapshotRecord, error) {
	var rulesJSON string
	err := s.db.QueryRowContext(ctx, `SELECT rules FROM snapshots WHERE id = ?`, id).Scan(&rulesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.SnapshotRecord{}, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ir.SnapshotRecord{}, fmt.Errorf("read snapshot: %w", err)
	}

	rec := ir.SnapshotRecord{ID: id}
	if err := json.Unmarshal([]byte(rulesJSON), &rec.Rules); err != nil {
		return ir.SnapshotRecord{}, fmt.Errorf("decode snapshot rules: %w", err)
	}
	return rec, nil
}

func (s *Store) queryEvaluations(ctx context.Context, query string, args ...any) ([]ir.Evaluation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	evs := []ir.Evaluation{}
	for rows.Next() {
		ev, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evs = append(evs, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}
	return evs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row scanner) (ir.Evaluation, error) {
	var (
		ev    ir.Evaluation
		tag   string
		d     string
		value sql.NullString
	)
	err := row.Scan(
		&ev.ID,
		&ev.Seq,
		&ev.SnapshotID,
		&ev.Scope.A,
		&ev.Scope.B,
		&ev.Scope.C,
		&d,
		&ev.Scope.E,
		&ev.Scope.F,
		&tag,
		&ev.GuardID,
		&ev.FormulaID,
		&value,
		&ev.ErrorCode,
		&ev.ErrorMessage,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Evaluation{}, err
		}
		return ir.Evaluation{}, fmt.Errorf("scan evaluation: %w", err)
	}

	if tag != "" {
		if ev.Tag, err = ir.ParseTag(tag); err != nil {
			return ir.Evaluation{}, fmt.Errorf("scan evaluation %s: %w", ev.ID, err)
		}
	}
	if ev.Scope.D, err = ir.ParseValue(d); err != nil {
		return ir.Evaluation{}, fmt.Errorf("scan evaluation %s: d: %w", ev.ID, err)
	}
	if value.Valid {
		if ev.Value, err = ir.ParseValue(value.String); err != nil {
			return ir.Evaluation{}, fmt.Errorf("scan evaluation %s: value: %w", ev.ID, err)
		}
	}
	return ev, nil
}
