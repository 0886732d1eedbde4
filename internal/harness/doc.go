// Package harness runs rule scenarios as executable contract tests.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: override_m_with_p
//	description: "An inserted guard replaces the equal default guard"
//	defaults: true            # start from the built-in rules (default true)
//	rules:                    # inserted in order after the defaults
//	  - "A && B && !C => H = P"
//	cases:
//	  - name: m_becomes_p
//	    scope: { a: true, b: true, c: false, d: 1.0, e: 52, f: 1 }
//	    expect: { tag: P, value: 3 }
//	  - name: nothing_matches
//	    scope: { a: false, b: false, c: false, d: 1, e: 2, f: 3 }
//	    expect: { error: NO_MATCH }
//	assertions:
//	  - type: journal_count
//	    count: 2
//
// # Assertion Types
//
//   - trace_count: counts cases resolved to a tag, or failed with an error code
//   - trace_order: verifies tags first appear in the given order
//   - journal_count: counts evaluations recorded in the journal
//   - snapshot_rules: verifies the journaled rule set has N rules
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory journal with sequential
// evaluation IDs and a logical clock starting at zero, so traces are
// byte-identical across runs and can be compared with golden files.
// Traces carry no content hashes; numbers are rendered by ir.FormatValue.
package harness
