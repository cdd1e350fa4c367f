package dqn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterTableOnlyPositiveRewards(t *testing.T) {
	c := NewCounterTable(4)
	c.Record([]string{"giant"}, 1, 0)
	c.Record([]string{"giant"}, 1, -3)
	assert.Equal(t, 0, c.Len())

	c.Record([]string{"giant", "minions"}, 1, 5)
	c.Record([]string{"giant"}, 1, 2.5)
	assert.Equal(t, 7.5, c.Score("giant", 1))
	assert.Equal(t, 5.0, c.Score("minions", 1))
	assert.Equal(t, 0.0, c.Score("giant", 0))

	c.Record([]string{"giant"}, 1, -10)
	assert.Equal(t, 7.5, c.Score("giant", 1))
}

func TestCounterTableMonotonic(t *testing.T) {
	c := NewCounterTable(2)
	prev := 0.0
	for _, r := range []float64{1, 0.5, -2, 3, 0, 0.1} {
		c.Record([]string{"hog rider"}, 0, r)
		cur := c.Score("hog rider", 0)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
	assert.InDelta(t, 4.6, prev, 1e-9)
}

func TestCounterTableBest(t *testing.T) {
	c := NewCounterTable(4)
	_, _, ok := c.Best([]string{"giant"})
	assert.False(t, ok)

	c.Record([]string{"giant"}, 2, 4)
	c.Record([]string{"balloon"}, 3, 4)
	c.Record([]string{"minions"}, 0, 6)

	card, score, ok := c.Best([]string{"pekka", "giant", "balloon"})
	require.True(t, ok)
	// ties keep the first type
	assert.Equal(t, 2, card)
	assert.Equal(t, 4.0, score)

	card, _, ok = c.Best([]string{"giant", "minions"})
	require.True(t, ok)
	assert.Equal(t, 0, card)
}

func TestCounterTableSnapshotRestore(t *testing.T) {
	c := NewCounterTable(2)
	c.Record([]string{"giant"}, 1, 3)
	snap := c.Snapshot()
	snap["giant"][1] = 100
	assert.Equal(t, 3.0, c.Score("giant", 1))

	other := NewCounterTable(2)
	require.NoError(t, other.Restore(c.Snapshot()))
	require.NoError(t, other.Restore(c.Snapshot()))
	assert.Equal(t, 6.0, other.Score("giant", 1))

	assert.Error(t, other.Restore(map[string][]float64{"giant": {1, 2, 3}}))
}
