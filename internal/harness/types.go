package harness

import "github.com/roach88/cascade/internal/ir"

// TraceEvent records how one case resolved.
type TraceEvent struct {
	Case  string   `json:"case"`
	Seq   int64    `json:"seq"`
	Scope ir.Scope `json:"scope"`

	// Tag is empty when no boolean rule matched.
	Tag string `json:"tag,omitempty"`

	// Value is nil when Error is set.
	Value *float64 `json:"value,omitempty"`
	Error string   `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every case met its expectation and every
	// assertion held.
	Pass bool `json:"pass"`

	// SnapshotID identifies the rule set the cases ran against.
	SnapshotID string `json:"snapshot_id"`

	// Rules are the texts of that rule set in stored order.
	Rules []string `json:"rules"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Rules:  []string{},
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends the trace event for an evaluation.
func (r *Result) AddTrace(name string, ev ir.Evaluation) {
	event := TraceEvent{
		Case:  name,
		Seq:   ev.Seq,
		Scope: ev.Scope,
		Error: ev.ErrorCode,
	}
	if ev.Tag.Valid() {
		event.Tag = ev.Tag.String()
	}
	if ev.OK() {
		v := ev.Value
		event.Value = &v
	}
	r.Trace = append(r.Trace, event)
}
