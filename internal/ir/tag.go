package ir

import "fmt"

// Tag is the category produced by a boolean rule and consumed as the key of
// an arithmetic rule. The zero value is not a valid tag.
type Tag uint8

const (
	TagM Tag = iota + 1
	TagP
	TagT
)

// Tags lists every valid tag in declaration order.
var Tags = []Tag{TagM, TagP, TagT}

// String returns the single-letter name of the tag.
func (t Tag) String() string {
	switch t {
	case TagM:
		return "M"
	case TagP:
		return "P"
	case TagT:
		return "T"
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// Valid reports whether t is one of M, P or T.
func (t Tag) Valid() bool {
	return t >= TagM && t <= TagT
}

// ParseTag converts "M", "P" or "T" into a Tag.
func ParseTag(s string) (Tag, error) {
	switch s {
	case "M":
		return TagM, nil
	case "P":
		return TagP, nil
	case "T":
		return TagT, nil
	}
	return 0, fmt.Errorf("invalid tag %q, must be M, P or T", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Tag) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tag %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tag) UnmarshalText(b []byte) error {
	parsed, err := ParseTag(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
