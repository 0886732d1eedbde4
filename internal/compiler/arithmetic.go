package compiler

import (
	"fmt"

	"github.com/roach88/cascade/internal/ir"
	"github.com/roach88/cascade/internal/lexer"
)

// ArithmeticRule computes a number from the numeric inputs of a scope once
// a boolean rule has produced its key tag.
type ArithmeticRule struct {
	compiled
}

var _ Rule = (*ArithmeticRule)(nil)

// CompileArithmetic compiles "H = tag => K = formula".
func CompileArithmetic(tokens []lexer.Token) (*ArithmeticRule, error) {
	source, err := renderSource(tokens)
	if err != nil {
		return nil, err
	}
	return compileArithmetic(tokens, source)
}

func compileArithmetic(tokens []lexer.Token, source string) (*ArithmeticRule, error) {
	p, err := splitArrow(tokens)
	if err != nil {
		return nil, err
	}

	tag, err := parseKey(tokens[:p])
	if err != nil {
		return nil, err
	}

	rest := tokens[p+1:]
	if len(rest) < 2 || rest[0].Kind != lexer.K || rest[1].Kind != lexer.Eq {
		return nil, &CompileError{Code: ErrCodeBadTail, Message: "expected K = <formula> after =>"}
	}

	program, err := compileFormula(rest[2:])
	if err != nil {
		return nil, err
	}

	c, err := newCompiled(StageArithmetic, tag, program, source)
	if err != nil {
		return nil, err
	}
	return &ArithmeticRule{compiled: c}, nil
}

// parseKey reads the "H = tag" head that precedes the arrow.
func parseKey(head []lexer.Token) (ir.Tag, error) {
	if len(head) != 3 || head[0].Kind != lexer.H || head[1].Kind != lexer.Eq {
		return 0, &CompileError{Code: ErrCodeBadHead, Message: "expected H = M|P|T before =>"}
	}
	tag, ok := tagFromKind(head[2].Kind)
	if !ok {
		tok := head[2]
		return 0, &CompileError{Code: ErrCodeBadHead, Message: "invalid tag", Token: &tok}
	}
	return tag, nil
}

// compileFormula converts an infix formula to postfix with a shunting-yard
// pass. Operators are pushed without first popping operators of lower
// precedence: reduction happens only at ')' and at the end of input, so
// operators that share a bracket level apply right to left. Formulas are
// written with explicit brackets to suit this.
func compileFormula(formula []lexer.Token) ([]lexer.Token, error) {
	var stack, out []lexer.Token

	for _, tok := range formula {
		switch {
		case tok.Kind.IsNumeric(), tok.Kind == lexer.Const:
			out = append(out, tok)
		case tok.Kind.IsArithmetic(), tok.Kind == lexer.Open:
			stack = append(stack, tok)
		case tok.Kind == lexer.Close:
			for {
				n := len(stack)
				if n == 0 {
					return nil, &CompileError{Code: ErrCodeUnbalanced, Message: "')' without matching '('"}
				}
				top := stack[n-1]
				stack = stack[:n-1]
				if top.Kind == lexer.Open {
					break
				}
				out = append(out, top)
			}
		default:
			return nil, unexpected(tok)
		}
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Kind == lexer.Open {
			return nil, &CompileError{Code: ErrCodeUnbalanced, Message: "'(' without matching ')'"}
		}
		out = append(out, stack[i])
	}

	if err := checkFormula(out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkFormula verifies that the program never underflows and leaves
// exactly one value.
func checkFormula(program []lexer.Token) error {
	depth := 0
	for _, tok := range program {
		if tok.Kind.IsArithmetic() {
			if depth < 2 {
				return &CompileError{
					Code:    ErrCodeMalformedFormula,
					Message: fmt.Sprintf("'%s' is missing an operand", tok),
				}
			}
			depth--
			continue
		}
		depth++
	}
	switch {
	case depth == 0:
		return &CompileError{Code: ErrCodeMalformedFormula, Message: "empty formula"}
	case depth > 1:
		return &CompileError{
			Code:    ErrCodeMalformedFormula,
			Message: fmt.Sprintf("operands without operator leave %d values", depth),
		}
	}
	return nil
}

// Run evaluates the formula against scope. E and F are widened to float64.
// Division by zero is reported instead of producing Inf or NaN.
func (r *ArithmeticRule) Run(s ir.Scope) (float64, error) {
	stack := make([]float64, 0, len(r.program))
	pop := func() float64 {
		n := len(stack)
		if n == 0 {
			panic("compiler: arithmetic program underflow")
		}
		v := stack[n-1]
		stack = stack[:n-1]
		return v
	}

	for _, tok := range r.program {
		switch tok.Kind {
		case lexer.D:
			stack = append(stack, s.D)
		case lexer.E:
			stack = append(stack, float64(s.E))
		case lexer.F:
			stack = append(stack, float64(s.F))
		case lexer.Const:
			stack = append(stack, tok.Value)
		case lexer.Plus, lexer.Minus, lexer.Multiply, lexer.Divide:
			second := pop()
			first := pop()
			v, err := apply(tok.Kind, first, second)
			if err != nil {
				return 0, err
			}
			stack = append(stack, v)
		default:
			panic(fmt.Sprintf("compiler: %s in arithmetic program", tok))
		}
	}

	return pop(), nil
}

func apply(op lexer.Kind, first, second float64) (float64, error) {
	switch op {
	case lexer.Plus:
		return first + second, nil
	case lexer.Minus:
		return first - second, nil
	case lexer.Multiply:
		return first * second, nil
	case lexer.Divide:
		if second == 0.0 {
			return 0, &EvalError{
				Code:    ErrCodeDivideByZero,
				Message: fmt.Sprintf("division by zero: %g / 0", first),
			}
		}
		return first / second, nil
	}
	panic(fmt.Sprintf("compiler: %s is not an arithmetic operator", op))
}

// Stage implements Rule.
func (r *ArithmeticRule) Stage() Stage { return StageArithmetic }

// String renders the formula in postfix order. It is a display form;
// Source is the compilable text.
func (r *ArithmeticRule) String() string {
	return fmt.Sprintf("H = %s => K = %s", r.tag, r.listing())
}
