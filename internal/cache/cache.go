package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Cache is a generic thread-safe map with optional per-entry expiry.
//
// Cache is safe for concurrent use.
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*cacheEntry[V]
	now     func() time.Time

	// Statistics (atomic for lock-free reads)
	hits   atomic.Uint64
	misses atomic.Uint64
}

// cacheEntry holds a cached value with its optional deadline.
type cacheEntry[V any] struct {
	value   V
	expires time.Time // zero means never
}

// New creates an empty cache. now supplies the clock used for expiry;
// nil means time.Now.
func New[K comparable, V any](now func() time.Time) *Cache[K, V] {
	if now == nil {
		now = time.Now
	}
	return &Cache[K, V]{
		entries: make(map[K]*cacheEntry[V]),
		now:     now,
	}
}

// lookup returns the live entry for key, evicting it if expired.
// Caller must hold c.mu.
func (c *Cache[K, V]) lookup(key K) (*cacheEntry[V], bool) {
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !entry.expires.IsZero() && !c.now().Before(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return entry, true
}

// Get retrieves a value from the cache.
// Returns (value, true) if found, (zero, false) otherwise.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	entry, ok := c.lookup(key)
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	return entry.value, true
}

// Set stores a value in the cache, replacing any existing entry and
// clearing its deadline.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cacheEntry[V]{value: value}
}

// GetOrCreate returns the cached value or stores the result of create.
// The boolean reports whether the value was already present.
//
// create is called under the lock so that concurrent callers for the same
// key observe exactly one created value. Keep create fast: it must only
// build a handle, never perform the work the handle stands for.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.lookup(key); ok {
		c.hits.Add(1)
		return entry.value, true
	}

	c.misses.Add(1)
	value := create()
	c.entries[key] = &cacheEntry[V]{value: value}
	return value, false
}

// Delete removes an entry from the cache.
// Returns the removed value and true if the entry was present.
func (c *Cache[K, V]) Delete(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lookup(key)
	if !ok {
		var zero V
		return zero, false
	}
	delete(c.entries, key)
	return entry.value, true
}

// DeleteIf removes the entry for key only if match reports true for its
// current value. It is used to retire a specific value without clobbering
// a newer one stored under the same key.
func (c *Cache[K, V]) DeleteIf(key K, match func(V) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || !match(entry.value) {
		return false
	}
	delete(c.entries, key)
	return true
}

// ExpireIf gives the entry for key a deadline ttl from now, if match
// reports true for its current value.
func (c *Cache[K, V]) ExpireIf(key K, ttl time.Duration, match func(V) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || !match(entry.value) {
		return false
	}
	entry.expires = c.now().Add(ttl)
	return true
}

// Clear removes all entries from the cache.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*cacheEntry[V])
}

// Len returns the number of live entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	now := c.now()
	for _, entry := range c.entries {
		if entry.expires.IsZero() || now.Before(entry.expires) {
			n++
		}
	}
	return n
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Len:     c.Len(),
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate,
	}
}

// ResetStats resets all statistics counters to zero.
func (c *Cache[K, V]) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of live entries.
	Len int
	// Hits is the number of lookups that found an entry.
	Hits uint64
	// Misses is the number of lookups that found nothing.
	Misses uint64
	// HitRate is Hits / (Hits + Misses), 0.0 to 1.0.
	HitRate float64
}
