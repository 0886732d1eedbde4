// Package ir defines the value types shared by every stage of the cascade
// rule engine: category tags, evaluation scopes and the canonical encoding
// used to derive content-addressed identities for rules and rule sets.
package ir
