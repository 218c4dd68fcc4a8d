// Package cache provides a bounded LRU map used for interning pools.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// LRU is a thread-safe least-recently-used map holding at most Capacity
// entries. When full, inserting a new key evicts the oldest entry.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	table    map[K]*list.Element
	lru      *list.List

	// Statistics
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// getEntry extracts an entry from a list element.
// The type assertion is safe because the list only ever stores *lruEntry.
func getEntry[K comparable, V any](elem *list.Element) *lruEntry[K, V] {
	entry, _ := elem.Value.(*lruEntry[K, V])
	return entry
}

// NewLRU creates an LRU holding at most capacity entries.
// A capacity <= 0 disables caching: Put is a no-op and Get always misses.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	return &LRU[K, V]{
		capacity: capacity,
		table:    make(map[K]*list.Element),
		lru:      list.New(),
	}
}

// Put inserts or updates key, marking it most recently used.
func (c *LRU[K, V]) Put(key K, value V) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.table[key]; ok {
		getEntry[K, V](elem).value = value
		c.lru.MoveToFront(elem)
		return
	}

	for c.lru.Len() >= c.capacity {
		c.evictOne()
	}
	c.table[key] = c.lru.PushFront(&lruEntry[K, V]{key: key, value: value})
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.table[key]; ok {
		c.lru.MoveToFront(elem)
		c.hits.Add(1)
		return getEntry[K, V](elem).value, true
	}
	c.misses.Add(1)
	var zero V
	return zero, false
}

// Erase removes key from the cache.
func (c *LRU[K, V]) Erase(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.table[key]; ok {
		c.removeEntry(elem)
	}
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.table)
}

// Capacity returns the maximum number of entries.
func (c *LRU[K, V]) Capacity() int {
	return c.capacity
}

// Close drops all entries.
func (c *LRU[K, V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.table = make(map[K]*list.Element)
	c.lru.Init()
}

// HitCount returns the number of cache hits.
func (c *LRU[K, V]) HitCount() uint64 { return c.hits.Load() }

// MissCount returns the number of cache misses.
func (c *LRU[K, V]) MissCount() uint64 { return c.misses.Load() }

// EvictionCount returns the number of entries evicted for capacity.
func (c *LRU[K, V]) EvictionCount() uint64 { return c.evictions.Load() }

// HitRate returns the cache hit rate (0.0 to 1.0).
func (c *LRU[K, V]) HitRate() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

// evictOne evicts the least recently used entry.
// Must be called with mu held.
func (c *LRU[K, V]) evictOne() {
	if e := c.lru.Back(); e != nil {
		c.removeEntry(e)
		c.evictions.Add(1)
	}
}

// removeEntry removes an entry from the cache.
// Must be called with mu held.
func (c *LRU[K, V]) removeEntry(elem *list.Element) {
	delete(c.table, getEntry[K, V](elem).key)
	c.lru.Remove(elem)
}
