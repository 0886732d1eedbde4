package queryir

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/cascade/internal/ir"
)

// Kind is the literal type a filterable column accepts.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindBool:
		return "boolean"
	default:
		return "string"
	}
}

// Table is the journal table queries read.
const Table = "evaluations"

// Fields maps each filterable column of Table to its literal kind.
var Fields = map[string]Kind{
	"id":          KindString,
	"seq":         KindInt,
	"snapshot_id": KindString,
	"a":           KindBool,
	"b":           KindBool,
	"c":           KindBool,
	"e":           KindInt,
	"f":           KindInt,
	"tag":         KindString,
	"guard_id":    KindString,
	"formula_id":  KindString,
	"error_code":  KindString,
}

// FieldNames returns the filterable columns in sorted order.
func FieldNames() []string {
	names := make([]string, 0, len(Fields))
	for name := range Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseCondition parses "field=value" into an Equals with a literal of
// the field's kind. Flags accept "true" or "false" only.
func ParseCondition(cond string) (Equals, error) {
	field, raw, ok := strings.Cut(cond, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		return Equals{}, fmt.Errorf("condition %q: want field=value", cond)
	}
	raw = strings.TrimSpace(raw)

	kind, known := Fields[field]
	if !known {
		return Equals{}, fmt.Errorf("condition %q: unknown field %q (want one of %s)",
			cond, field, strings.Join(FieldNames(), ", "))
	}

	switch kind {
	case KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Equals{}, fmt.Errorf("condition %q: %s wants an integer", cond, field)
		}
		return Equals{Field: field, Value: ir.IRInt(n)}, nil
	case KindBool:
		switch raw {
		case "true":
			return Equals{Field: field, Value: ir.IRBool(true)}, nil
		case "false":
			return Equals{Field: field, Value: ir.IRBool(false)}, nil
		}
		return Equals{}, fmt.Errorf("condition %q: %s wants true or false", cond, field)
	default:
		return Equals{Field: field, Value: ir.IRString(raw)}, nil
	}
}

// ParseConditions parses each condition and conjoins them.
func ParseConditions(conds []string) (Predicate, error) {
	preds := make([]Predicate, 0, len(conds))
	for _, c := range conds {
		eq, err := ParseCondition(c)
		if err != nil {
			return nil, err
		}
		preds = append(preds, eq)
	}
	return AllOf(preds...), nil
}
