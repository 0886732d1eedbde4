package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/cascade/internal/ir"
)

// TraceSnapshot captures what a golden file pins down for a scenario.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Rules        []string     `json:"rules"`
	Trace        []TraceEvent `json:"trace"`
}

// NewTraceSnapshot builds the golden snapshot of a scenario result.
func NewTraceSnapshot(name string, result *Result) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName: name,
		Rules:        result.Rules,
		Trace:        result.Trace,
	}
}

// MarshalCanonical renders the snapshot as canonical JSON. Numbers are
// strings in ir.FormatValue form.
func (s TraceSnapshot) MarshalCanonical() ([]byte, error) {
	trace := make(ir.IRArray, len(s.Trace))
	for i, event := range s.Trace {
		obj := ir.IRObject{
			"case":  ir.IRString(event.Case),
			"seq":   ir.IRInt(event.Seq),
			"scope": scopeObject(event.Scope),
		}
		if event.Tag != "" {
			obj["tag"] = ir.IRString(event.Tag)
		}
		if event.Value != nil {
			obj["value"] = ir.IRString(ir.FormatValue(*event.Value))
		}
		if event.Error != "" {
			obj["error"] = ir.IRString(event.Error)
		}
		trace[i] = obj
	}

	return ir.MarshalCanonical(ir.IRObject{
		"scenario_name": ir.IRString(s.ScenarioName),
		"rules":         ir.Strings(s.Rules),
		"trace":         trace,
	})
}

func scopeObject(s ir.Scope) ir.IRObject {
	return ir.IRObject{
		"a": ir.IRBool(s.A),
		"b": ir.IRBool(s.B),
		"c": ir.IRBool(s.C),
		"d": ir.IRString(ir.FormatValue(s.D)),
		"e": ir.IRInt(s.E),
		"f": ir.IRInt(s.F),
	}
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewTraceSnapshot(scenarioName, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
