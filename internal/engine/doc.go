// Package engine holds compiled rules and resolves evaluation scopes
// against them.
//
// Resolution runs in two steps. Every boolean rule is evaluated in stored
// order and the tag of the first one whose guard holds is chosen. The
// first arithmetic rule keyed by that tag then computes the result.
//
// A RuleSet is immutable: Insert returns a new set and leaves the receiver
// untouched, so a set can be shared freely between goroutines. Registry
// publishes the current set through an atomic pointer for callers that
// need a mutable view.
//
// Evaluation is synchronous and bounded by the length of the rule text.
// Nothing in this package blocks or spawns work except Evaluator, which
// writes to an optional Journal.
package engine
