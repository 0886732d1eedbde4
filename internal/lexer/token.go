// Package lexer turns rule text into the flat token sequence consumed by the
// boolean and arithmetic compilers.
package lexer

import (
	"fmt"
	"strconv"
)

// Kind identifies a token variant.
type Kind uint8

const (
	Invalid Kind = iota

	// Boolean inputs
	A
	B
	C

	// Numeric inputs: D is floating point, E and F are integers.
	D
	E
	F

	// Category symbol and its tag literals
	H
	M
	P
	T

	// Result symbol
	K

	Not      // !
	And      // &&
	Eq       // =
	Arrow    // =>
	Plus     // +
	Minus    // -
	Multiply // *
	Divide   // /
	Open     // (
	Close    // )
	Const    // numeric literal
)

var kindNames = [...]string{
	Invalid:  "Invalid",
	A:        "A",
	B:        "B",
	C:        "C",
	D:        "D",
	E:        "E",
	F:        "F",
	H:        "H",
	M:        "M",
	P:        "P",
	T:        "T",
	K:        "K",
	Not:      "!",
	And:      "&&",
	Eq:       "=",
	Arrow:    "=>",
	Plus:     "+",
	Minus:    "-",
	Multiply: "*",
	Divide:   "/",
	Open:     "(",
	Close:    ")",
	Const:    "Const",
}

// String returns the source spelling of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsFlag reports whether k reads a boolean input.
func (k Kind) IsFlag() bool {
	return k == A || k == B || k == C
}

// IsNumeric reports whether k reads a numeric input.
func (k Kind) IsNumeric() bool {
	return k == D || k == E || k == F
}

// IsTag reports whether k is one of the tag literals M, P or T.
func (k Kind) IsTag() bool {
	return k == M || k == P || k == T
}

// IsArithmetic reports whether k is a binary arithmetic operator.
func (k Kind) IsArithmetic() bool {
	return k == Plus || k == Minus || k == Multiply || k == Divide
}

// Token is an immutable lexical unit. Value is only meaningful for Const.
type Token struct {
	Kind  Kind
	Value float64
}

// Tok builds a non-literal token.
func Tok(k Kind) Token {
	return Token{Kind: k}
}

// Num builds a Const token.
func Num(v float64) Token {
	return Token{Kind: Const, Value: v}
}

// String renders the token the way it would be written in rule text.
// Const literals use the shortest representation that parses back exactly.
func (t Token) String() string {
	if t.Kind == Const {
		return strconv.FormatFloat(t.Value, 'g', -1, 64)
	}
	return t.Kind.String()
}
