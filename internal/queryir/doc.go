// Package queryir is the filter language for the evaluation journal.
//
// A Select names the journal table, an optional predicate over its
// columns and an optional row limit. Predicates compare one column with a
// typed literal and may be combined with And:
//
//	Select{
//	  From:   "evaluations",
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: "tag", Value: ir.IRString("P")},
//	    Equals{Field: "a", Value: ir.IRBool(true)},
//	  }},
//	}
//
// Only the columns listed in Fields may be filtered, each with the literal
// kind it is declared with. Floats are not filterable, so d never appears
// in a predicate. Backends (see querysql) rely on Validate to keep column
// names out of reach of user input.
//
// Query and Predicate are sealed interfaces: only types in this package
// implement them, so backends can switch over them exhaustively.
package queryir
