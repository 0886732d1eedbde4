package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cascade/internal/ir"
)

// Scenario defines a conformance test scenario: a rule set and the
// scopes to resolve against it.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Defaults selects the built-in rules as the starting set. Nil means true.
	Defaults *bool `yaml:"defaults,omitempty"`

	// Rules are inserted in order after the starting set.
	Rules []string `yaml:"rules,omitempty"`

	// Cases are resolved in order.
	Cases []Case `yaml:"cases"`

	// Assertions validate the trace and journal after all cases ran.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// UsesDefaults reports whether the scenario starts from the built-in rules.
func (s *Scenario) UsesDefaults() bool {
	return s.Defaults == nil || *s.Defaults
}

// Case is one scope to resolve and its expected outcome.
type Case struct {
	Name   string   `yaml:"name"`
	Scope  ir.Scope `yaml:"scope"`
	Expect *Expect  `yaml:"expect"`
}

// Expect specifies a case's expected outcome. Value and Error are
// mutually exclusive; Tag may accompany either.
type Expect struct {
	Value *float64 `yaml:"value,omitempty"`
	Tag   string   `yaml:"tag,omitempty"`

	// Error is an error code such as NO_MATCH or DIVIDE_BY_ZERO.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace or the journal.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Tag selects trace events by tag (trace_count).
	Tag string `yaml:"tag,omitempty"`

	// Error selects trace events or journal rows by error code
	// (trace_count, journal_count).
	Error string `yaml:"error,omitempty"`

	// Tags is the expected first-appearance order (trace_order).
	Tags []string `yaml:"tags,omitempty"`

	// Count is the expected number (trace_count, journal_count, snapshot_rules).
	Count int `yaml:"count"`
}

// Assertion type constants.
const (
	AssertTraceCount    = "trace_count"
	AssertTraceOrder    = "trace_order"
	AssertJournalCount  = "journal_count"
	AssertSnapshotRules = "snapshot_rules"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios returns the .yaml and .yml files under dir, in walk order.
// A non-empty filter is a glob matched against the file name without
// extension.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}
	if !s.UsesDefaults() && len(s.Rules) == 0 {
		return fmt.Errorf("rules are required when defaults is false")
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = true

		if c.Expect == nil {
			return fmt.Errorf("cases[%d]: expect is required", i)
		}
		if err := validateExpect(c.Expect); err != nil {
			return fmt.Errorf("cases[%d].expect: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateExpect(e *Expect) error {
	if e.Value == nil && e.Error == "" && e.Tag == "" {
		return fmt.Errorf("one of value, tag or error is required")
	}
	if e.Value != nil && e.Error != "" {
		return fmt.Errorf("value and error are mutually exclusive")
	}
	if e.Tag != "" {
		if _, err := ir.ParseTag(e.Tag); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}

	switch a.Type {
	case AssertTraceCount:
		if (a.Tag == "") == (a.Error == "") {
			return fmt.Errorf("assertions[%d]: exactly one of tag or error is required for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Tags) == 0 {
			return fmt.Errorf("assertions[%d]: tags list is required for trace_order", index)
		}
	case AssertJournalCount, AssertSnapshotRules:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
