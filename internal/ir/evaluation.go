package ir

// Evaluation is the journal record of one resolve call.
type Evaluation struct {
	// ID uniquely identifies the evaluation (UUIDv7 in production).
	ID string `json:"id"`

	// Seq orders evaluations within one process (logical clock).
	Seq int64 `json:"seq"`

	// SnapshotID identifies the rule set the scope was resolved against.
	SnapshotID string `json:"snapshot_id"`

	Scope Scope `json:"scope"`

	// Tag is the chosen tag; zero when no boolean rule matched.
	Tag Tag `json:"tag,omitempty"`

	GuardID   string `json:"guard_id,omitempty"`
	FormulaID string `json:"formula_id,omitempty"`

	// Value is only meaningful when ErrorCode is empty.
	Value float64 `json:"value"`

	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// OK reports whether the evaluation produced a value.
func (e Evaluation) OK() bool {
	return e.ErrorCode == ""
}

// SnapshotRecord is the journal record of a rule set.
type SnapshotRecord struct {
	ID string `json:"id"`

	// Rules are the rule texts in stored order.
	Rules []string `json:"rules"`
}
