package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Scope is the evaluation context supplied to a single resolve call.
// A, B and C feed boolean rules; D, E and F feed arithmetic rules.
// The engine never mutates a Scope.
type Scope struct {
	A bool    `json:"a" yaml:"a"`
	B bool    `json:"b" yaml:"b"`
	C bool    `json:"c" yaml:"c"`
	D float64 `json:"d" yaml:"d"`
	E int64   `json:"e" yaml:"e"`
	F int64   `json:"f" yaml:"f"`
}

// NewScope builds a fully populated scope.
func NewScope(a, b, c bool, d float64, e, f int64) Scope {
	return Scope{A: a, B: b, C: c, D: d, E: e, F: f}
}

// FlagScope builds a scope with only the boolean inputs set.
func FlagScope(a, b, c bool) Scope {
	return Scope{A: a, B: b, C: c}
}

// NumericScope builds a scope with only the numeric inputs set.
func NumericScope(d float64, e, f int64) Scope {
	return Scope{D: d, E: e, F: f}
}

func (s Scope) String() string {
	return fmt.Sprintf("a=%t b=%t c=%t d=%g e=%d f=%d", s.A, s.B, s.C, s.D, s.E, s.F)
}

// ScopeError reports an input that does not parse as its scope field.
type ScopeError struct {
	Name  string
	Value string
	Want  string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("invalid %s %q: want %s", e.Name, e.Value, e.Want)
}

// scopeJSON is the wire shape of a Scope. D stays raw so that NaN and the
// infinities, which JSON numbers cannot carry, travel as strings.
type scopeJSON struct {
	A bool            `json:"a"`
	B bool            `json:"b"`
	C bool            `json:"c"`
	D json.RawMessage `json:"d"`
	E int64           `json:"e"`
	F int64           `json:"f"`
}

// MarshalJSON writes d as a number, or as a string when it is not finite.
func (s Scope) MarshalJSON() ([]byte, error) {
	d := FormatValue(s.D)
	if math.IsNaN(s.D) || math.IsInf(s.D, 0) {
		d = strconv.Quote(d)
	}
	return json.Marshal(scopeJSON{A: s.A, B: s.B, C: s.C, D: json.RawMessage(d), E: s.E, F: s.F})
}

func (s *Scope) UnmarshalJSON(data []byte) error {
	var raw scopeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d := string(raw.D)
	if len(raw.D) > 0 && raw.D[0] == '"' {
		if err := json.Unmarshal(raw.D, &d); err != nil {
			return fmt.Errorf("scope d: %w", err)
		}
	}
	v := 0.0
	if d != "" && d != "null" {
		var err error
		if v, err = ParseValue(d); err != nil {
			return fmt.Errorf("scope d: %w", err)
		}
	}
	*s = Scope{A: raw.A, B: raw.B, C: raw.C, D: v, E: raw.E, F: raw.F}
	return nil
}

// ParseScope parses the six textual inputs of a resolve call. Flags accept
// exactly "true" or "false"; d is any float, including NaN and Inf; e and f
// are base-10 integers.
func ParseScope(a, b, c, d, e, f string) (Scope, error) {
	var (
		s   Scope
		err error
	)
	if s.A, err = parseFlag("a", a); err != nil {
		return Scope{}, err
	}
	if s.B, err = parseFlag("b", b); err != nil {
		return Scope{}, err
	}
	if s.C, err = parseFlag("c", c); err != nil {
		return Scope{}, err
	}
	if s.D, err = ParseValue(d); err != nil {
		return Scope{}, &ScopeError{Name: "d", Value: d, Want: "a number"}
	}
	if s.E, err = parseInt("e", e); err != nil {
		return Scope{}, err
	}
	if s.F, err = parseInt("f", f); err != nil {
		return Scope{}, err
	}
	return s, nil
}

func parseFlag(name, v string) (bool, error) {
	switch v {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, &ScopeError{Name: name, Value: v, Want: "true or false"}
}

func parseInt(name, v string) (int64, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &ScopeError{Name: name, Value: v, Want: "an integer"}
	}
	return n, nil
}
