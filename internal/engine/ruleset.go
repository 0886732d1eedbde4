package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/cascade/internal/compiler"
	"github.com/roach88/cascade/internal/ir"
)

// RuleSet is an ordered, immutable collection of compiled rules.
//
// Inserting a rule structurally equal to a stored one (compiler.Equal)
// removes the stored occurrence and appends the new rule, so the last write
// wins and moves to the end. The zero value is an empty set.
type RuleSet struct {
	rules []compiler.Rule

	// Typed views over rules, in stored order, built once per set.
	guards   []*compiler.BooleanRule
	formulas []*compiler.ArithmeticRule

	id string
}

// Resolution describes how a scope was resolved.
type Resolution struct {
	Tag ir.Tag

	// GuardID and FormulaID identify the rules that fired. FormulaID is
	// empty when resolution stopped before an arithmetic rule ran.
	GuardID   string
	FormulaID string

	Value float64
}

// NewRuleSet builds a set by inserting rules in order.
func NewRuleSet(rules ...compiler.Rule) *RuleSet {
	return (&RuleSet{}).InsertAll(rules...)
}

// Insert returns a new set containing rule, replacing any structurally
// equal rule. The receiver is not modified.
func (rs *RuleSet) Insert(rule compiler.Rule) *RuleSet {
	return rs.InsertAll(rule)
}

// InsertAll inserts rules one after another and returns the resulting set.
func (rs *RuleSet) InsertAll(rules ...compiler.Rule) *RuleSet {
	var current []compiler.Rule
	if rs != nil {
		current = rs.rules
	}

	next := make([]compiler.Rule, len(current), len(current)+len(rules))
	copy(next, current)

	for _, rule := range rules {
		if rule == nil {
			continue
		}
		kept := next[:0:0]
		for _, existing := range next {
			if compiler.Equal(existing, rule) {
				slog.Debug("rule replaced",
					"id", rule.ID(),
					"old_tag", existing.Tag().String(),
					"new_tag", rule.Tag().String())
				continue
			}
			kept = append(kept, existing)
		}
		next = append(kept, rule)
	}

	return newIndexed(next)
}

// Add compiles texts and inserts the rules in order. If any text fails to
// compile the receiver is returned unchanged with the error.
func (rs *RuleSet) Add(texts ...string) (*RuleSet, error) {
	rules, err := compiler.CompileAll(texts)
	if err != nil {
		return rs, err
	}
	return rs.InsertAll(rules...), nil
}

func newIndexed(rules []compiler.Rule) *RuleSet {
	set := &RuleSet{rules: rules}
	members := make([]string, 0, len(rules))
	for _, rule := range rules {
		switch r := rule.(type) {
		case *compiler.BooleanRule:
			set.guards = append(set.guards, r)
		case *compiler.ArithmeticRule:
			set.formulas = append(set.formulas, r)
		}
		members = append(members, fmt.Sprintf("%s:%s", rule.ID(), rule.Tag()))
	}
	id, err := ir.SnapshotID(members)
	if err != nil {
		// Members are plain strings; marshaling cannot fail.
		panic(err)
	}
	set.id = id
	return set
}

// Len returns the number of stored rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Rules returns the stored rules in order.
func (rs *RuleSet) Rules() []compiler.Rule {
	if rs == nil {
		return nil
	}
	out := make([]compiler.Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Texts returns each rule's source text in stored order. Every text
// compiles back to its rule, so Add(Texts()...) on an empty set rebuilds a
// set with the same ID.
func (rs *RuleSet) Texts() []string {
	if rs == nil {
		return []string{}
	}
	out := make([]string, 0, len(rs.rules))
	for _, rule := range rs.rules {
		out = append(out, rule.Source())
	}
	return out
}

// ID identifies the set's content and order. Sets built from the same
// rules in the same order share an ID.
func (rs *RuleSet) ID() string {
	if rs == nil || rs.id == "" {
		return newIndexed(nil).id
	}
	return rs.id
}

// Resolve evaluates scope and returns the final number.
func (rs *RuleSet) Resolve(s ir.Scope) (float64, error) {
	res, err := rs.Explain(s)
	if err != nil {
		return 0, err
	}
	return res.Value, nil
}

// Explain resolves scope and reports which rules fired.
//
// All boolean rules are evaluated; the first match in stored order wins.
// The first arithmetic rule keyed by the winning tag is then evaluated and
// its error, if any, is returned unchanged. On failure the partial
// Resolution is still returned.
func (rs *RuleSet) Explain(s ir.Scope) (Resolution, error) {
	var res Resolution
	if rs == nil {
		return res, NewNoMatchError()
	}

	var (
		matched int
		winner  *compiler.BooleanRule
	)
	for _, g := range rs.guards {
		if _, ok := g.Run(s); ok {
			if winner == nil {
				winner = g
			}
			matched++
		}
	}
	if winner == nil {
		slog.Debug("no boolean rule matched", "scope", s.String(), "guards", len(rs.guards))
		return res, NewNoMatchError()
	}
	res.Tag = winner.Tag()
	res.GuardID = winner.ID()
	slog.Debug("tag chosen", "tag", res.Tag.String(), "matched", matched, "guard", winner.ID())

	for _, f := range rs.formulas {
		if f.Tag() != res.Tag {
			continue
		}
		res.FormulaID = f.ID()
		v, err := f.Run(s)
		if err != nil {
			return res, err
		}
		res.Value = v
		slog.Debug("formula evaluated", "tag", res.Tag.String(), "formula", f.ID(), "value", v)
		return res, nil
	}

	return res, NewNoFormulaError(res.Tag)
}
