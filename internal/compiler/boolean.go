package compiler

import (
	"fmt"

	"github.com/roach88/cascade/internal/ir"
	"github.com/roach88/cascade/internal/lexer"
)

// BooleanRule maps the flags of a scope to a tag.
type BooleanRule struct {
	compiled
}

var _ Rule = (*BooleanRule)(nil)

// CompileBoolean compiles "guard => H = tag".
func CompileBoolean(tokens []lexer.Token) (*BooleanRule, error) {
	source, err := renderSource(tokens)
	if err != nil {
		return nil, err
	}
	return compileBoolean(tokens, source)
}

func compileBoolean(tokens []lexer.Token, source string) (*BooleanRule, error) {
	p, err := splitArrow(tokens)
	if err != nil {
		return nil, err
	}

	tag, err := parseOutput(tokens[p+1:])
	if err != nil {
		return nil, err
	}

	program, err := compileGuard(tokens[:p])
	if err != nil {
		return nil, err
	}

	c, err := newCompiled(StageBoolean, tag, program, source)
	if err != nil {
		return nil, err
	}
	return &BooleanRule{compiled: c}, nil
}

// parseOutput reads the "H = tag" tail that follows the arrow.
func parseOutput(tail []lexer.Token) (ir.Tag, error) {
	bad := &CompileError{Code: ErrCodeBadTail, Message: "no output found: expected H = M|P|T after =>"}
	if len(tail) < 3 || tail[0].Kind != lexer.H || tail[1].Kind != lexer.Eq {
		return 0, bad
	}
	tag, ok := tagFromKind(tail[2].Kind)
	if !ok {
		return 0, bad
	}
	if len(tail) > 3 {
		tok := tail[3]
		return 0, &CompileError{Code: ErrCodeBadTail, Message: "trailing token", Token: &tok}
	}
	return tag, nil
}

// compileGuard converts an infix guard to postfix.
//
// Flags go straight to the output. Not and And wait on a stack; after each
// flag the most recent pending operator is released, so Not binds to the
// flag that follows it and And joins the two flags around it. Whatever is
// left pending at the end is flushed in LIFO order.
func compileGuard(guard []lexer.Token) ([]lexer.Token, error) {
	var stack, out []lexer.Token

	for _, tok := range guard {
		switch {
		case tok.Kind.IsFlag():
			out = append(out, tok)
			if n := len(stack); n > 0 {
				out = append(out, stack[n-1])
				stack = stack[:n-1]
			}
		case tok.Kind == lexer.Not, tok.Kind == lexer.And:
			stack = append(stack, tok)
		default:
			return nil, unexpected(tok)
		}
	}
	for i := len(stack) - 1; i >= 0; i-- {
		out = append(out, stack[i])
	}

	if err := checkGuard(out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkGuard verifies that the program never underflows and leaves exactly
// one value, which is what lets Run treat underflow as unreachable.
func checkGuard(program []lexer.Token) error {
	depth := 0
	for _, tok := range program {
		switch {
		case tok.Kind.IsFlag():
			depth++
		case tok.Kind == lexer.Not:
			if depth < 1 {
				return &CompileError{Code: ErrCodeMalformedGuard, Message: "'!' has no operand"}
			}
		case tok.Kind == lexer.And:
			if depth < 2 {
				return &CompileError{Code: ErrCodeMalformedGuard, Message: "'&&' is missing an operand"}
			}
			depth--
		}
	}
	if depth != 1 {
		if depth == 0 {
			return &CompileError{Code: ErrCodeMalformedGuard, Message: "empty guard"}
		}
		return &CompileError{Code: ErrCodeMalformedGuard, Message: fmt.Sprintf("flags without '&&' leave %d values", depth)}
	}
	return nil
}

// Run evaluates the guard against scope. It returns the rule's tag and true
// when the guard holds; otherwise false, which means "try another rule".
func (r *BooleanRule) Run(s ir.Scope) (ir.Tag, bool) {
	stack := make([]bool, 0, len(r.program))
	pop := func() bool {
		n := len(stack)
		if n == 0 {
			panic("compiler: boolean program underflow")
		}
		v := stack[n-1]
		stack = stack[:n-1]
		return v
	}

	for _, tok := range r.program {
		switch tok.Kind {
		case lexer.A:
			stack = append(stack, s.A)
		case lexer.B:
			stack = append(stack, s.B)
		case lexer.C:
			stack = append(stack, s.C)
		case lexer.Not:
			stack = append(stack, !pop())
		case lexer.And:
			x, y := pop(), pop()
			stack = append(stack, x && y)
		default:
			panic(fmt.Sprintf("compiler: %s in boolean program", tok))
		}
	}

	if pop() {
		return r.tag, true
	}
	return 0, false
}

// Stage implements Rule.
func (r *BooleanRule) Stage() Stage { return StageBoolean }

// String renders the guard in postfix order, e.g. "A B && => H = M". It is
// a display form; Source is the compilable text.
func (r *BooleanRule) String() string {
	return fmt.Sprintf("%s => H = %s", r.listing(), r.tag)
}
