package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future encoding change.
const (
	DomainRule     = "cascade/rule/v1"
	DomainSnapshot = "cascade/snapshot/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RuleID computes the identity of a compiled rule from its stage name and
// postfix listing. The rule's tag is not an input: two rules that differ
// only in their tag share an ID and override each other on insertion.
func RuleID(stage string, listing []string) (string, error) {
	obj := IRObject{
		"stage":   IRString(stage),
		"program": Strings(listing),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RuleID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRule, canonical), nil
}

// SnapshotID computes the identity of an ordered rule set from the IDs and
// tags of its members. Order is significant.
func SnapshotID(members []string) (string, error) {
	canonical, err := MarshalCanonical(Strings(members))
	if err != nil {
		return "", fmt.Errorf("SnapshotID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}
