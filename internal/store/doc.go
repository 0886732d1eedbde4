// Package store journals evaluations to SQLite.
//
// The journal is write-mostly: every resolve call appends one row to
// evaluations, and every distinct rule set it ran against is recorded once
// in snapshots. Rule sets are never loaded back from the journal; a
// restarted process starts from its configured rules.
//
// Reads are ordered by (seq, id) so listings are deterministic.
package store
