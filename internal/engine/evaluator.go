package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/cascade/internal/ir"
)

// Journal records evaluations. *store.Store implements it.
type Journal interface {
	WriteEvaluation(ctx context.Context, ev ir.Evaluation) error
}

// SnapshotJournal is implemented by journals that also record the rules
// each evaluation ran against.
type SnapshotJournal interface {
	WriteSnapshot(ctx context.Context, snap ir.SnapshotRecord) error
}

// Evaluator resolves scopes and journals each outcome. It is safe for
// concurrent use.
type Evaluator struct {
	journal Journal
	ids     IDGenerator
	clock   *Clock

	// recorded holds snapshot IDs already written to the journal.
	recorded sync.Map
}

// NewEvaluator creates an evaluator. A nil journal disables journaling;
// a nil ids defaults to UUIDv7Generator.
func NewEvaluator(journal Journal, ids IDGenerator) *Evaluator {
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	return &Evaluator{
		journal: journal,
		ids:     ids,
		clock:   NewClock(),
	}
}

// WithClock replaces the evaluator's seq clock, for example to continue
// numbering after the last journaled seq.
func (e *Evaluator) WithClock(c *Clock) *Evaluator {
	e.clock = c
	return e
}

// Evaluate resolves s against rs and journals the outcome. The returned
// error is the resolution error when resolution failed, or a wrapped
// journal error when only the write failed; the Evaluation is always
// populated.
func (e *Evaluator) Evaluate(ctx context.Context, rs *RuleSet, s ir.Scope) (ir.Evaluation, error) {
	res, resErr := rs.Explain(s)

	ev := ir.Evaluation{
		ID:         e.ids.Generate(),
		Seq:        e.clock.Next(),
		SnapshotID: rs.ID(),
		Scope:      s,
		Tag:        res.Tag,
		GuardID:    res.GuardID,
		FormulaID:  res.FormulaID,
	}
	if resErr != nil {
		ev.ErrorCode = ErrorCode(resErr)
		ev.ErrorMessage = resErr.Error()
	} else {
		ev.Value = res.Value
	}

	if e.journal != nil {
		if err := e.recordSnapshot(ctx, rs); err != nil {
			slog.Error("journal snapshot failed", "snapshot", rs.ID(), "error", err)
			if resErr == nil {
				return ev, fmt.Errorf("journal snapshot: %w", err)
			}
		}
		if err := e.journal.WriteEvaluation(ctx, ev); err != nil {
			slog.Error("journal write failed", "evaluation", ev.ID, "error", err)
			if resErr == nil {
				return ev, fmt.Errorf("journal evaluation: %w", err)
			}
		}
	}

	return ev, resErr
}

func (e *Evaluator) recordSnapshot(ctx context.Context, rs *RuleSet) error {
	sj, ok := e.journal.(SnapshotJournal)
	if !ok {
		return nil
	}
	if _, done := e.recorded.Load(rs.ID()); done {
		return nil
	}
	if err := sj.WriteSnapshot(ctx, ir.SnapshotRecord{ID: rs.ID(), Rules: rs.Texts()}); err != nil {
		return err
	}
	e.recorded.Store(rs.ID(), struct{}{})
	return nil
}
