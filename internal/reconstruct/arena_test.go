package reconstruct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena(t *testing.T) {
	var a arena[int]
	one, two := 1, 2

	h1 := a.insert(&one)
	h2 := a.insert(&two)
	assert.Equal(t, 2, a.len())
	assert.NotZero(t, h1.gen, "generation zero is never issued")

	v, ok := a.get(h1)
	require.True(t, ok)
	assert.Equal(t, 1, *v)

	require.True(t, a.remove(h1))
	assert.False(t, a.remove(h1), "double remove is reported")
	_, ok = a.get(h1)
	assert.False(t, ok)
	assert.Equal(t, 1, a.len())

	three := 3
	h3 := a.insert(&three)
	assert.Equal(t, h1.index, h3.index)
	assert.Greater(t, h3.gen, h1.gen)
	_, ok = a.get(h1)
	assert.False(t, ok, "stale handle never resolves to the new value")

	_, ok = a.get(handle{})
	assert.False(t, ok)
	_, ok = a.get(handle{index: 99, gen: 1})
	assert.False(t, ok)
	_, ok = a.get(h2)
	assert.True(t, ok)
}
