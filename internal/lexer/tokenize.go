package lexer

import (
	"strconv"
	"unicode"
)

var singles = map[rune]Kind{
	'A': A,
	'B': B,
	'C': C,
	'D': D,
	'E': E,
	'F': F,
	'H': H,
	'K': K,
	'M': M,
	'P': P,
	'T': T,
	'!': Not,
	'=': Eq,
	'+': Plus,
	'-': Minus,
	'*': Multiply,
	'/': Divide,
	'(': Open,
	')': Close,
}

// Tokenize scans text left to right and returns the complete token sequence.
//
// "&&" becomes And. ">" is only legal directly after "=": it rewrites the
// trailing Eq into Arrow, so "=>" yields a single Arrow token. Digits and
// '.' start a literal that greedily absorbs further digits and dots; the
// result must parse as a float64.
func Tokenize(text string) ([]Token, error) {
	runes := []rune(text)
	out := make([]Token, 0, len(runes))

	for pos := 0; pos < len(runes); pos++ {
		r := runes[pos]

		if unicode.IsSpace(r) {
			continue
		}

		if k, ok := singles[r]; ok {
			out = append(out, Tok(k))
			continue
		}

		switch {
		case r == '&':
			if pos+1 >= len(runes) {
				return nil, &TokenizeError{
					Code:    ErrCodeUnterminated,
					Message: "unexpected end of input after '&'",
					Pos:     pos,
				}
			}
			if runes[pos+1] != '&' {
				return nil, &TokenizeError{
					Code:    ErrCodeUnterminated,
					Message: "unexpected char",
					Text:    string(runes[pos+1]),
					Pos:     pos,
				}
			}
			out = append(out, Tok(And))
			pos++

		case r == '>':
			if len(out) == 0 || out[len(out)-1].Kind != Eq {
				return nil, &TokenizeError{
					Code:    ErrCodeDanglingArrow,
					Message: "invalid value",
					Text:    string(r),
					Pos:     pos,
				}
			}
			out[len(out)-1] = Tok(Arrow)

		case isNumberRune(r):
			end := pos
			for end < len(runes) && isNumberRune(runes[end]) {
				end++
			}
			lit := string(runes[pos:end])
			v, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return nil, &TokenizeError{
					Code:    ErrCodeMalformedNumber,
					Message: "malformed number",
					Text:    lit,
					Pos:     pos,
				}
			}
			out = append(out, Num(v))
			pos = end - 1

		default:
			return nil, &TokenizeError{
				Code:    ErrCodeUnexpectedChar,
				Message: "invalid value",
				Text:    string(r),
				Pos:     pos,
			}
		}
	}

	return out, nil
}

func isNumberRune(r rune) bool {
	return (r >= '0' && r <= '9') || r == '.'
}
