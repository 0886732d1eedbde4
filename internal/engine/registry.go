package engine

import (
	"log/slog"
	"sync/atomic"

	"github.com/roach88/cascade/internal/compiler"
)

// Snapshot is one published version of a registry's rule set.
type Snapshot struct {
	// Revision starts at 0 and grows by one per Apply that inserts at
	// least one rule.
	Revision int64
	Rules    *RuleSet
}

// Registry publishes the current rule set for concurrent readers.
//
// Readers call Snapshot and work on the returned immutable set for the rest
// of their request. Writers call Apply, which derives a new set and
// installs it with compare-and-swap; a writer that loses the race rebuilds
// from the winner's set, so no insertion is lost.
type Registry struct {
	current atomic.Pointer[Snapshot]
}

// NewRegistry creates a registry publishing initial at revision 0.
// A nil initial set is treated as empty.
func NewRegistry(initial *RuleSet) *Registry {
	if initial == nil {
		initial = NewRuleSet()
	}
	r := &Registry{}
	r.current.Store(&Snapshot{Rules: initial})
	return r
}

// Snapshot returns the currently published snapshot.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Rules returns the currently published rule set.
func (r *Registry) Rules() *RuleSet {
	return r.current.Load().Rules
}

// Apply compiles texts and publishes the set with the rules inserted in
// order. Compilation happens before anything is published: on error the
// registry is unchanged.
func (r *Registry) Apply(texts ...string) (*Snapshot, error) {
	rules, err := compiler.CompileAll(texts)
	if err != nil {
		return r.Snapshot(), err
	}
	return r.Insert(rules...), nil
}

// Insert publishes the set with rules inserted in order. With no rules it
// publishes nothing and returns the current snapshot.
func (r *Registry) Insert(rules ...compiler.Rule) *Snapshot {
	if len(rules) == 0 {
		return r.Snapshot()
	}
	for {
		old := r.current.Load()
		next := &Snapshot{
			Revision: old.Revision + 1,
			Rules:    old.Rules.InsertAll(rules...),
		}
		if r.current.CompareAndSwap(old, next) {
			slog.Debug("rule set published",
				"revision", next.Revision,
				"rules", next.Rules.Len(),
				"snapshot", next.Rules.ID())
			return next
		}
	}
}
