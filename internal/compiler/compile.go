package compiler

import (
	"math"
	"strconv"
	"strings"

	"github.com/roach88/cascade/internal/lexer"
)

// CompileRule tokenizes text and compiles it into a Rule.
// Errors are *lexer.TokenizeError or *CompileError.
func CompileRule(text string) (Rule, error) {
	tokens, err := lexer.Tokenize(text)
	if err != nil {
		return nil, err
	}
	return compileTokens(tokens, text)
}

// CompileTokens compiles an already tokenized rule. A leading H selects the
// arithmetic compiler; anything else is compiled as a boolean rule. The
// rule's Source is rendered from tokens.
func CompileTokens(tokens []lexer.Token) (Rule, error) {
	source, err := renderSource(tokens)
	if err != nil {
		return nil, err
	}
	return compileTokens(tokens, source)
}

// renderSource writes tokens back as rule text that tokenizes to the same
// sequence. Constants the tokenizer cannot produce (negative, NaN or
// infinite) have no such text and are rejected.
func renderSource(tokens []lexer.Token) (string, error) {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		if tok.Kind != lexer.Const {
			parts[i] = tok.String()
			continue
		}
		if math.Signbit(tok.Value) || math.IsNaN(tok.Value) || math.IsInf(tok.Value, 0) {
			return "", &CompileError{Code: ErrCodeUnexpectedToken, Message: "constant has no rule text", Token: &tok}
		}
		parts[i] = strconv.FormatFloat(tok.Value, 'f', -1, 64)
	}
	return strings.Join(parts, " "), nil
}

func compileTokens(tokens []lexer.Token, source string) (Rule, error) {
	if len(tokens) == 0 {
		return nil, &CompileError{Code: ErrCodeEmptyRule, Message: "invalid token string"}
	}
	if tokens[0].Kind == lexer.H {
		return compileArithmetic(tokens, source)
	}
	return compileBoolean(tokens, source)
}

// CompileAll compiles every text in order and stops at the first failure.
func CompileAll(texts []string) ([]Rule, error) {
	rules := make([]Rule, 0, len(texts))
	for _, text := range texts {
		rule, err := CompileRule(text)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
