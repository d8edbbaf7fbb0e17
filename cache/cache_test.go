package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPutRoundTrip(t *testing.T) {
	c := New(Config{})
	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Put("k1", "v1", 2)
	v, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, "v1", v)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.HotHits)
	assert.Equal(t, uint64(1), stats.HotMisses)
}

func TestHotEvictionDemotesToWarm(t *testing.T) {
	c := New(Config{HotCapacity: 2, WarmCapacity: 10, Policy: PolicyFIFO})
	c.Put("a", 1, 1)
	c.Put("b", 2, 1)
	c.Put("c", 3, 1) // forces one demotion

	stats := c.Stats()
	assert.GreaterOrEqual(t, stats.Demotions, uint64(1))
	assert.LessOrEqual(t, stats.HotSize, 2)
}

func TestPromotionFromWarm(t *testing.T) {
	c := New(Config{HotCapacity: 1, WarmCapacity: 10, PromotionThreshold: 2})
	c.Put("a", 1, 1)
	c.Put("b", 2, 1) // demotes "a" into warm

	_, ok := c.Get("a")
	require.True(t, ok)
	_, ok = c.Get("a")
	require.True(t, ok)

	_, hot := c.hot.peek("a")
	assert.True(t, hot, "entry should have been promoted back to hot after crossing the threshold")
}

func TestInvalidateAndClear(t *testing.T) {
	c := New(Config{})
	c.Put("a", 1, 1)
	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("b", 2, 1)
	c.Clear()
	assert.Equal(t, 0, c.Stats().HotSize)
}

func TestStatsSubComputesDelta(t *testing.T) {
	c := New(Config{})
	before := c.Stats()
	c.Put("a", 1, 1)
	c.Get("a")
	after := c.Stats()
	delta := after.Sub(before)
	assert.Equal(t, uint64(1), delta.HotHits)
}
