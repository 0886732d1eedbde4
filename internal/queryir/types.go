package queryir

import "github.com/roach88/cascade/internal/ir"

// Query is a journal query. Sealed: only Select implements it.
type Query interface {
	queryNode()
}

// Predicate is a row filter. Sealed: Equals and And implement it.
type Predicate interface {
	predicateNode()
}

// Select reads rows of one table.
//
//	SELECT <columns> FROM <from> WHERE <filter> ORDER BY seq, id LIMIT <limit>
type Select struct {
	From    string    // table name
	Columns []string  // selected columns, in scan order
	Filter  Predicate // nil = every row
	Limit   int       // <= 0 = no limit
}

func (Select) queryNode() {}

// Equals holds when the column equals the literal.
type Equals struct {
	Field string
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// And holds when every predicate holds. An empty And always holds.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// AllOf conjoins the non-nil predicates. It returns nil for none and the
// predicate itself for one.
func AllOf(preds ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}
