package queryir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/cascade/internal/ir"
)

func validSelect(filter Predicate) Select {
	return Select{From: Table, Columns: []string{"id", "seq", "value"}, Filter: filter}
}

func TestValidateAcceptsTypedFilters(t *testing.T) {
	sel := validSelect(And{Predicates: []Predicate{
		Equals{Field: "tag", Value: ir.IRString("P")},
		&Equals{Field: "a", Value: ir.IRBool(true)},
		And{Predicates: []Predicate{Equals{Field: "e", Value: ir.IRInt(52)}}},
	}})

	res := Validate(sel)
	assert.True(t, res.Valid, res.Errors)
	assert.Empty(t, res.Errors)

	ptr := validSelect(nil)
	assert.True(t, Validate(&ptr).Valid)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		wantErr string
	}{
		{"nil_query", nil, "nil query"},
		{"table", Select{From: "users", Columns: []string{"id"}}, `unknown table "users"`},
		{"no_columns", Select{From: Table}, "no columns selected"},
		{"column", Select{From: Table, Columns: []string{"id", "password"}}, `unknown column "password"`},
		{"field", validSelect(Equals{Field: "d", Value: ir.IRInt(1)}), `field "d" is not filterable`},
		{"kind", validSelect(Equals{Field: "a", Value: ir.IRString("true")}), `field "a": want boolean, got string`},
		{"value_type", validSelect(Equals{Field: "tag", Value: ir.IRArray{}}), "unsupported value"},
		{"nested", validSelect(And{Predicates: []Predicate{
			Equals{Field: "tag", Value: ir.IRString("M")},
			Equals{Field: "seq", Value: ir.IRBool(true)},
		}}), `field "seq": want integer, got boolean`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.query)
			assert.False(t, res.Valid)
			assert.Contains(t, strings.Join(res.Errors, "\n"), tt.wantErr)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	res := Validate(Select{From: "x", Filter: Equals{Field: "zz", Value: ir.IRInt(1)}})
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 3)
}
