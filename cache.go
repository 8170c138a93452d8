package assets

import (
	"reflect"
	"time"

	"github.com/gogpu/assets/internal/cache"
)

// cacheKey pairs the asset type with the source hash. Two asset types never
// share an entry even when their sources hash identically.
type cacheKey struct {
	kind reflect.Type
	hash uint64
}

func keyOf[S Source, O any](a Asset[S, O], source S) cacheKey {
	return cacheKey{kind: reflect.TypeOf(a), hash: hashSource(source)}
}

func (k cacheKey) kindName() string {
	if k.kind == nil {
		return "<nil>"
	}
	return k.kind.String()
}

// Cache maps (asset type, source) to the task producing that asset.
//
// One mutex guards the whole map and is held only for the map operation,
// never while an asset is produced. Values are stored type-erased and
// recovered with a checked type assertion; a mismatch is treated as a miss.
//
// Cache is safe for concurrent use.
type Cache struct {
	store      *cache.Cache[cacheKey, any]
	failureTTL time.Duration
	metrics    Metrics
}

func newCache(now func() time.Time, failureTTL time.Duration, m Metrics) *Cache {
	return &Cache{
		store:      cache.New[cacheKey, any](now),
		failureTTL: failureTTL,
		metrics:    m,
	}
}

// Get returns the task cached for source under asset a's type. It never
// creates an entry and never blocks on production.
func Get[S Source, O any](c *Cache, a Asset[S, O], source S) (*Task[O], bool) {
	key := keyOf(a, source)
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	task, ok := v.(*Task[O])
	return task, ok
}

// Insert stores task for source under asset a's type, replacing any
// existing entry.
func Insert[S Source, O any](c *Cache, a Asset[S, O], source S, task *Task[O]) {
	c.store.Set(keyOf(a, source), task)
}

// Remove evicts the entry for source under asset a's type. It returns the
// settled output if there was one; removing a pending entry reports false
// and does not cancel its production.
func Remove[S Source, O any](c *Cache, a Asset[S, O], source S) (O, bool) {
	key := keyOf(a, source)
	v, ok := c.store.Delete(key)
	if !ok {
		var zero O
		return zero, false
	}
	c.metrics.CacheRemove(key.kindName())

	task, ok := v.(*Task[O])
	if !ok {
		var zero O
		return zero, false
	}
	return task.Poll()
}

// getOrInsert returns the task for key, creating and storing a pending one
// if absent. The probe and the insert happen under one lock acquisition.
func getOrInsert[O any](c *Cache, key cacheKey) (*Task[O], bool) {
	v, found := c.store.GetOrCreate(key, func() any { return newTask[O]() })
	if task, ok := v.(*Task[O]); ok {
		return task, found
	}
	task := newTask[O]()
	c.store.Set(key, task)
	return task, false
}

// retire applies the failure TTL to a task that settled as a failure.
// Only the entry still holding this very task is touched.
func (c *Cache) retire(key cacheKey, task any) {
	same := func(v any) bool { return v == task }
	switch {
	case c.failureTTL == 0:
		c.store.DeleteIf(key, same)
	case c.failureTTL > 0:
		c.store.ExpireIf(key, c.failureTTL, same)
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.store.Len()
}

// Clear removes every entry. In-flight production is not cancelled.
func (c *Cache) Clear() {
	c.store.Clear()
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// Stats returns lookup statistics across all asset kinds.
func (c *Cache) Stats() CacheStats {
	s := c.store.Stats()
	return CacheStats{Entries: s.Len, Hits: s.Hits, Misses: s.Misses}
}
