package compiler

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
)

// RuleFile is the compiled content of a CUE rule file:
//
//	defaults: false
//	rules: [
//		"A && B && !C => H = P",
//		"H = P => K = D * 2",
//	]
//
// Rules keep their list order.
type RuleFile struct {
	// Defaults reports whether the built-in rules should be loaded before
	// these. Absent means true.
	Defaults bool

	Rules []Rule
}

// CompileRuleFile compiles the rules list of a CUE value, stopping at the
// first failure. The returned *FileError carries the CUE position of the rule.
func CompileRuleFile(v cue.Value) (*RuleFile, error) {
	rf, errs := compileRuleFile(v, false)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return rf, nil
}

// CompileRuleFileAll compiles every rule and returns all failures. The
// RuleFile holds the rules that compiled.
func CompileRuleFileAll(v cue.Value) (*RuleFile, []error) {
	return compileRuleFile(v, true)
}

func compileRuleFile(v cue.Value, collect bool) (*RuleFile, []error) {
	if err := v.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	rf := &RuleFile{Defaults: true}

	defVal := v.LookupPath(cue.ParsePath("defaults"))
	if defVal.Exists() {
		b, err := defVal.Bool()
		if err != nil {
			return nil, []error{formatCUEError(err)}
		}
		rf.Defaults = b
	}

	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return rf, nil
	}

	iter, err := rulesVal.List()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var errs []error
	for i := 0; iter.Next(); i++ {
		item := iter.Value()
		text, err := item.String()
		if err == nil {
			var rule Rule
			if rule, err = CompileRule(text); err == nil {
				rf.Rules = append(rf.Rules, rule)
				continue
			}
		}
		errs = append(errs, &FileError{Index: i, Pos: item.Pos(), Err: err})
		if !collect {
			return nil, errs
		}
	}

	return rf, errs
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &FileError{Index: -1, Pos: positions[0], Err: first}
	}
	return first
}
