package compiler

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"

	"github.com/roach88/cascade/internal/lexer"
)

// CompileErrorCode categorizes rule compilation failures.
type CompileErrorCode string

const (
	// ErrCodeEmptyRule indicates rule text with no tokens.
	ErrCodeEmptyRule CompileErrorCode = "EMPTY_RULE"

	// ErrCodeMissingArrow indicates a rule without "=>".
	ErrCodeMissingArrow CompileErrorCode = "MISSING_ARROW"

	// ErrCodeBadHead indicates an arithmetic rule not shaped "H = tag => K = ...".
	ErrCodeBadHead CompileErrorCode = "BAD_HEAD"

	// ErrCodeBadTail indicates a boolean rule whose "=>" is not followed by
	// exactly "H = tag", or a rule with more than one "=>".
	ErrCodeBadTail CompileErrorCode = "BAD_TAIL"

	// ErrCodeUnexpectedToken indicates a token that does not belong in the
	// guard or formula being compiled.
	ErrCodeUnexpectedToken CompileErrorCode = "UNEXPECTED_TOKEN"

	// ErrCodeUnbalanced indicates mismatched parentheses in a formula.
	ErrCodeUnbalanced CompileErrorCode = "UNBALANCED"

	// ErrCodeMalformedGuard indicates a guard whose postfix form does not
	// reduce to exactly one boolean.
	ErrCodeMalformedGuard CompileErrorCode = "MALFORMED_GUARD"

	// ErrCodeMalformedFormula indicates a formula whose postfix form does not
	// reduce to exactly one number.
	ErrCodeMalformedFormula CompileErrorCode = "MALFORMED_FORMULA"
)

// CompileError reports why a token sequence could not become a rule.
type CompileError struct {
	Code    CompileErrorCode
	Message string

	// Token is the offending token, when one can be named.
	Token *lexer.Token
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Token != nil {
		return fmt.Sprintf("%s: %s %s", e.Code, e.Message, e.Token)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func unexpected(tok lexer.Token) *CompileError {
	return &CompileError{
		Code:    ErrCodeUnexpectedToken,
		Message: "unexpected token",
		Token:   &tok,
	}
}

// IsCompileError returns true if err wraps a CompileError.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// EvalErrorCode categorizes arithmetic evaluation failures.
type EvalErrorCode string

const (
	// ErrCodeDivideByZero indicates a division whose right operand is 0.
	ErrCodeDivideByZero EvalErrorCode = "DIVIDE_BY_ZERO"
)

// EvalError is returned when a compiled formula cannot produce a number.
type EvalError struct {
	Code    EvalErrorCode
	Message string
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsDivideByZero returns true if err wraps a division-by-zero EvalError.
func IsDivideByZero(err error) bool {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeDivideByZero
	}
	return false
}

// FileError locates a failure inside a CUE rule file.
type FileError struct {
	// Index is the position of the rule in the rules list, or -1.
	Index int
	Pos   token.Pos
	Err   error
}

// Error implements the error interface.
func (e *FileError) Error() string {
	loc := "rules"
	if e.Index >= 0 {
		loc = fmt.Sprintf("rules[%d]", e.Index)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), loc, e.Err)
	}
	return fmt.Sprintf("%s: %v", loc, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
