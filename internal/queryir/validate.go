package queryir

import (
	"fmt"

	"github.com/roach88/cascade/internal/ir"
)

// ValidationResult lists the problems found in a query.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Validate checks that a query reads Table, filters only known columns
// with literals of the declared kind, and selects only known columns.
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{errors: []string{}}
	v.validateQuery(query)

	return ValidationResult{
		Valid:  len(v.errors) == 0,
		Errors: v.errors,
	}
}

type validator struct {
	errors []string
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addError("nil query")
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	default:
		v.addError("unknown query type: %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	if sel.From != Table {
		v.addError("unknown table %q", sel.From)
	}
	if len(sel.Columns) == 0 {
		v.addError("no columns selected")
	}
	for _, col := range sel.Columns {
		if !selectable[col] {
			v.addError("unknown column %q", col)
		}
	}
	v.validatePredicate(sel.Filter)
}

// selectable holds every column of Table, filterable or not.
var selectable = func() map[string]bool {
	cols := map[string]bool{
		"d": true, "value": true, "error_message": true,
		"engine_version": true, "ir_version": true,
	}
	for name := range Fields {
		cols[name] = true
	}
	return cols
}()

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.validateEquals(pred)
	case *Equals:
		v.validateEquals(*pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addError("unknown predicate type: %T", p)
	}
}

func (v *validator) validateEquals(eq Equals) {
	kind, ok := Fields[eq.Field]
	if !ok {
		v.addError("field %q is not filterable", eq.Field)
		return
	}

	var got Kind
	switch eq.Value.(type) {
	case ir.IRString:
		got = KindString
	case ir.IRInt:
		got = KindInt
	case ir.IRBool:
		got = KindBool
	default:
		v.addError("field %q compared with unsupported value %T", eq.Field, eq.Value)
		return
	}
	if got != kind {
		v.addError("field %q: want %s, got %s", eq.Field, kind, got)
	}
}
