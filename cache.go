package jotai

import (
	"sync"
)

// SyncCache is a typed wrapper around sync.Map used for the store's value
// cache.
type SyncCache[K comparable, V any] struct {
	data sync.Map
}

func (c *SyncCache[K, V]) Load(key K) (V, bool) {
	value, ok := c.data.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return value.(V), true
}

func (c *SyncCache[K, V]) Store(key K, value V) {
	c.data.Store(key, value)
}

func (c *SyncCache[K, V]) Delete(key K) {
	c.data.Delete(key)
}

func (c *SyncCache[K, V]) Range(fn func(key K, value V) bool) {
	c.data.Range(func(key, value any) bool {
		return fn(key.(K), value.(V))
	})
}

func (c *SyncCache[K, V]) Len() int {
	count := 0
	c.data.Range(func(key, value any) bool {
		count++
		return true
	})
	return count
}

func (c *SyncCache[K, V]) Clear() {
	c.data.Range(func(key, value any) bool {
		c.data.Delete(key)
		return true
	})
}
