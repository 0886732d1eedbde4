package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/cascade/internal/compiler"
	"github.com/roach88/cascade/internal/ir"
	"github.com/roach88/cascade/internal/lexer"
)

// ResolutionErrorCode categorizes resolution failures.
type ResolutionErrorCode string

const (
	// ErrCodeNoMatch indicates that no boolean rule's guard held.
	ErrCodeNoMatch ResolutionErrorCode = "NO_MATCH"

	// ErrCodeNoFormula indicates that no arithmetic rule is keyed by the
	// chosen tag.
	ErrCodeNoFormula ResolutionErrorCode = "NO_FORMULA"
)

// ResolutionError is returned when a missing link in the rule chain stops
// a resolve call.
type ResolutionError struct {
	Code    ResolutionErrorCode
	Message string

	// Tag is the chosen tag for NO_FORMULA; zero otherwise.
	Tag ir.Tag
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewNoMatchError creates a ResolutionError for an unmatched scope.
func NewNoMatchError() *ResolutionError {
	return &ResolutionError{
		Code:    ErrCodeNoMatch,
		Message: "no matching boolean rule",
	}
}

// NewNoFormulaError creates a ResolutionError for a tag without formula.
func NewNoFormulaError(tag ir.Tag) *ResolutionError {
	return &ResolutionError{
		Code:    ErrCodeNoFormula,
		Message: fmt.Sprintf("no arithmetic rule for tag %s", tag),
		Tag:     tag,
	}
}

// IsNoMatch returns true if err wraps a NO_MATCH ResolutionError.
func IsNoMatch(err error) bool {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Code == ErrCodeNoMatch
	}
	return false
}

// IsNoFormula returns true if err wraps a NO_FORMULA ResolutionError.
func IsNoFormula(err error) bool {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Code == ErrCodeNoFormula
	}
	return false
}

// ErrorCode returns the code carried by any error the engine, compiler or
// lexer produce, or "ERROR" for anything else. It returns "" for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var (
		re *ResolutionError
		ee *compiler.EvalError
		ce *compiler.CompileError
		te *lexer.TokenizeError
	)
	switch {
	case errors.As(err, &re):
		return string(re.Code)
	case errors.As(err, &ee):
		return string(ee.Code)
	case errors.As(err, &ce):
		return string(ce.Code)
	case errors.As(err, &te):
		return string(te.Code)
	}
	return "ERROR"
}
