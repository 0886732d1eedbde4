package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleIDDeterministic(t *testing.T) {
	listing := []string{"A", "B", "&&", "C", "!", "&&"}

	id1, err := RuleID("boolean", listing)
	require.NoError(t, err)
	id2, err := RuleID("boolean", listing)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 64)
}

func TestRuleIDSeparatesStages(t *testing.T) {
	a, err := RuleID("boolean", []string{"A"})
	require.NoError(t, err)
	b, err := RuleID("arithmetic", []string{"A"})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestRuleIDDependsOnOrder(t *testing.T) {
	a, err := RuleID("arithmetic", []string{"D", "E", "-"})
	require.NoError(t, err)
	b, err := RuleID("arithmetic", []string{"E", "D", "-"})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestSnapshotID(t *testing.T) {
	empty, err := SnapshotID(nil)
	require.NoError(t, err)

	one, err := SnapshotID([]string{"abc:M"})
	require.NoError(t, err)

	again, err := SnapshotID([]string{"abc:M"})
	require.NoError(t, err)

	assert.NotEqual(t, empty, one)
	assert.Equal(t, one, again)
}
