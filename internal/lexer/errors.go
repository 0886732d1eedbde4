package lexer

import (
	"errors"
	"fmt"
)

// TokenizeErrorCode categorizes tokenizer failures.
type TokenizeErrorCode string

const (
	// ErrCodeUnexpectedChar indicates a character outside the rule alphabet.
	ErrCodeUnexpectedChar TokenizeErrorCode = "UNEXPECTED_CHAR"

	// ErrCodeUnterminated indicates a multi-character operator cut short.
	ErrCodeUnterminated TokenizeErrorCode = "UNTERMINATED_OPERATOR"

	// ErrCodeMalformedNumber indicates a numeric literal that does not parse.
	ErrCodeMalformedNumber TokenizeErrorCode = "MALFORMED_NUMBER"

	// ErrCodeDanglingArrow indicates a '>' not preceded by '='.
	ErrCodeDanglingArrow TokenizeErrorCode = "DANGLING_ARROW"
)

// TokenizeError reports the offending input and its rune offset.
type TokenizeError struct {
	Code    TokenizeErrorCode
	Message string

	// Text is the offending character or literal; empty at end of input.
	Text string

	// Pos is the zero-based rune offset of the failing token. For an
	// unterminated '&' it points at the '&'.
	Pos int
}

// Error implements the error interface.
func (e *TokenizeError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("%s: %s at pos %d", e.Code, e.Message, e.Pos)
	}
	return fmt.Sprintf("%s: %s '%s' at pos %d", e.Code, e.Message, e.Text, e.Pos)
}

// IsTokenizeError returns true if err wraps a TokenizeError.
func IsTokenizeError(err error) bool {
	var te *TokenizeError
	return errors.As(err, &te)
}
