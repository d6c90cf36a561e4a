package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCache(t *testing.T) {
	t.Run("set and get", func(t *testing.T) {
		cache := NewTTLCache(time.Minute)
		cache.Set("key", "value")

		got, ok := cache.Get("key")
		require.True(t, ok)
		assert.Equal(t, "value", got)
	})

	t.Run("missing key", func(t *testing.T) {
		cache := NewTTLCache(time.Minute)
		_, ok := cache.Get("missing")
		assert.False(t, ok)
	})

	t.Run("entries expire", func(t *testing.T) {
		cache := NewTTLCache(10 * time.Millisecond)
		cache.Set("key", "value")

		time.Sleep(20 * time.Millisecond)

		_, ok := cache.Get("key")
		assert.False(t, ok)
	})

	t.Run("evict removes a single key", func(t *testing.T) {
		cache := NewTTLCache(time.Minute)
		cache.Set("a", 1)
		cache.Set("b", 2)

		cache.Evict("a")

		_, ok := cache.Get("a")
		assert.False(t, ok)
		_, ok = cache.Get("b")
		assert.True(t, ok)
	})

	t.Run("cleanup drops expired entries", func(t *testing.T) {
		cache := NewTTLCache(10 * time.Millisecond)
		cache.Set("a", 1)
		cache.Set("b", 2)

		time.Sleep(20 * time.Millisecond)

		assert.Equal(t, 2, cache.Cleanup())
		assert.Zero(t, cache.Size())
	})

	t.Run("clear empties the cache", func(t *testing.T) {
		cache := NewTTLCache(time.Minute)
		cache.Set("a", 1)
		cache.Clear()
		assert.Zero(t, cache.Size())
	})

	t.Run("zero ttl gets a default", func(t *testing.T) {
		cache := NewTTLCache(0)
		cache.Set("key", "value")
		_, ok := cache.Get("key")
		assert.True(t, ok)
	})
}
