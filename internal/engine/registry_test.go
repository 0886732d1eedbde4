package engine

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cascade/internal/ir"
)

func TestRegistryStartsAtRevisionZero(t *testing.T) {
	reg := NewRegistry(Default())
	snap := reg.Snapshot()
	assert.Equal(t, int64(0), snap.Revision)
	assert.Equal(t, 6, snap.Rules.Len())

	empty := NewRegistry(nil)
	assert.Equal(t, 0, empty.Rules().Len())
}

func TestRegistryApply(t *testing.T) {
	reg := NewRegistry(Default())
	before := reg.Snapshot()

	snap, err := reg.Apply("!A && !B && !C => H = P")
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Revision)
	assert.Equal(t, 7, snap.Rules.Len())
	assert.Same(t, snap, reg.Snapshot())

	got, err := reg.Rules().Resolve(ir.NewScope(false, false, false, 1.0, 52, 1))
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	// Earlier snapshots are unaffected.
	_, err = before.Rules.Resolve(ir.NewScope(false, false, false, 1.0, 52, 1))
	assert.True(t, IsNoMatch(err))
}

func TestRegistryApplyNothingKeepsRevision(t *testing.T) {
	reg := NewRegistry(Default())
	before := reg.Snapshot()

	snap, err := reg.Apply()
	require.NoError(t, err)
	assert.Same(t, before, snap)
	assert.Equal(t, int64(0), reg.Snapshot().Revision)

	assert.Same(t, before, reg.Insert())
}

func TestRegistryApplyFailureLeavesRegistry(t *testing.T) {
	reg := NewRegistry(Default())
	before := reg.Snapshot()

	snap, err := reg.Apply("A => H = M", "A > B")
	require.Error(t, err)
	assert.Same(t, before, snap)
	assert.Same(t, before, reg.Snapshot())
}

func TestRegistryConcurrentApply(t *testing.T) {
	reg := NewRegistry(NewRuleSet())

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := reg.Apply(fmt.Sprintf("H = M => K = D + %d", i))
			assert.NoError(t, err)
		}(i)
	}

	// Readers always observe a consistent set.
	for i := 0; i < 100; i++ {
		snap := reg.Snapshot()
		assert.Equal(t, int(snap.Revision), snap.Rules.Len())
	}

	wg.Wait()
	snap := reg.Snapshot()
	assert.Equal(t, int64(writers), snap.Revision)
	assert.Equal(t, writers, snap.Rules.Len())
}
