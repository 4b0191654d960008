package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache(t *testing.T) {
	t.Parallel()

	c := NewTTLCache[int64](time.Hour)

	_, ok := c.Get("cool_guy")
	assert.False(t, ok)

	c.Set("cool_guy", 1001)

	value, ok := c.Get("cool_guy")
	assert.True(t, ok)
	assert.Equal(t, int64(1001), value)

	c.Delete("cool_guy")

	_, ok = c.Get("cool_guy")
	assert.False(t, ok)
}

func TestTTLCacheExpiry(t *testing.T) {
	t.Parallel()

	c := NewTTLCache[int64](50 * time.Millisecond)

	c.Set("cool_guy", 1001)
	time.Sleep(200 * time.Millisecond)

	_, ok := c.Get("cool_guy")
	assert.False(t, ok)
}
