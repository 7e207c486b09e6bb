package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache(t *testing.T) {
	t.Run("set and get", func(t *testing.T) {
		c := New[string, int](time.Minute, time.Minute)
		defer c.Close()

		c.Set("a", 42)
		val, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 42, val)

		_, ok = c.Get("missing")
		assert.False(t, ok)
	})

	t.Run("entries expire", func(t *testing.T) {
		c := New[string, string](10*time.Millisecond, time.Minute)
		defer c.Close()

		c.Set("a", "value")
		time.Sleep(20 * time.Millisecond)

		_, ok := c.Get("a")
		assert.False(t, ok)
	})

	t.Run("delete drops the entry", func(t *testing.T) {
		c := New[string, int](time.Minute, time.Minute)
		defer c.Close()

		c.Set("a", 1)
		c.Delete("a")

		_, ok := c.Get("a")
		assert.False(t, ok)
	})

	t.Run("set refreshes ttl", func(t *testing.T) {
		c := New[string, int](30*time.Millisecond, time.Minute)
		defer c.Close()

		c.Set("a", 1)
		time.Sleep(20 * time.Millisecond)
		c.Set("a", 2)
		time.Sleep(20 * time.Millisecond)

		val, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 2, val)
	})
}
