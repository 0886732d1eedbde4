// Package compiler turns tokenized rule text into executable postfix
// programs.
//
// Two rule shapes exist. A boolean rule maps flags to a tag:
//
//	!A && B && C => H = T
//
// An arithmetic rule maps a tag and numeric inputs to a number:
//
//	H = P => K = D + (D * (E - F) / 25.5)
//
// The shape is chosen once, from the leading token, when the rule is
// compiled. Both shapes are immutable after compilation.
package compiler

import (
	"slices"
	"strings"

	"github.com/roach88/cascade/internal/ir"
	"github.com/roach88/cascade/internal/lexer"
)

// Stage names the rule shape.
type Stage string

const (
	StageBoolean    Stage = "boolean"
	StageArithmetic Stage = "arithmetic"
)

// Rule is a compiled rule of either stage.
type Rule interface {
	// Stage reports which compiler produced the rule.
	Stage() Stage

	// Tag is the output tag of a boolean rule or the key tag of an
	// arithmetic rule.
	Tag() ir.Tag

	// Program returns a copy of the postfix instruction sequence.
	Program() []lexer.Token

	// Listing renders Program as strings.
	Listing() []string

	// ID is the content-addressed identity of Stage and Program.
	// The tag does not participate.
	ID() string

	// Source is the rule text. For rules compiled from tokens it is
	// rendered from them and compiles back to the same program.
	Source() string

	// String is a display form with the program in postfix order.
	String() string

	isRule()
}

// Equal reports whether two rules are structurally equal: same stage and
// identical postfix programs. Tags are ignored, so a rule that only changes
// the tag replaces its predecessor on insertion.
func Equal(a, b Rule) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Stage() == b.Stage() && slices.Equal(a.Program(), b.Program())
}

// compiled holds the parts shared by both stages.
type compiled struct {
	tag     ir.Tag
	program []lexer.Token
	id      string
	source  string
}

func newCompiled(stage Stage, tag ir.Tag, program []lexer.Token, source string) (compiled, error) {
	c := compiled{tag: tag, program: program, source: source}
	id, err := ir.RuleID(string(stage), c.Listing())
	if err != nil {
		return compiled{}, err
	}
	c.id = id
	return c, nil
}

func (c *compiled) isRule()                {}
func (c *compiled) Tag() ir.Tag            { return c.tag }
func (c *compiled) ID() string             { return c.id }
func (c *compiled) Source() string         { return c.source }
func (c *compiled) Program() []lexer.Token { return slices.Clone(c.program) }

func (c *compiled) Listing() []string {
	out := make([]string, len(c.program))
	for i, tok := range c.program {
		out[i] = tok.String()
	}
	return out
}

func (c *compiled) listing() string {
	return strings.Join(c.Listing(), " ")
}

// tagFromKind maps a tag literal token to its Tag.
func tagFromKind(k lexer.Kind) (ir.Tag, bool) {
	switch k {
	case lexer.M:
		return ir.TagM, true
	case lexer.P:
		return ir.TagP, true
	case lexer.T:
		return ir.TagT, true
	}
	return 0, false
}

// arrows returns the indexes of every Arrow token.
func arrows(tokens []lexer.Token) []int {
	var idx []int
	for i, tok := range tokens {
		if tok.Kind == lexer.Arrow {
			idx = append(idx, i)
		}
	}
	return idx
}

// splitArrow finds the single Arrow of a rule.
func splitArrow(tokens []lexer.Token) (int, error) {
	idx := arrows(tokens)
	switch len(idx) {
	case 0:
		return 0, &CompileError{Code: ErrCodeMissingArrow, Message: "invalid expression"}
	case 1:
		return idx[0], nil
	}
	tok := tokens[idx[1]]
	return 0, &CompileError{
		Code:    ErrCodeBadTail,
		Message: "more than one",
		Token:   &tok,
	}
}
