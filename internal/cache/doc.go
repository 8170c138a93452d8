// Package cache provides the generic storage behind the asset cache.
//
// # Cache[K, V]
//
// A thread-safe map guarded by a single mutex. The mutex is held only for
// the map operation itself, never while a value is being produced, so
// callers can store handles to in-flight work and settle them later.
//
//	c := cache.New[string, int](nil)
//	c.Set("key", 42)
//	value, ok := c.Get("key")
//
// # Expiry
//
// Entries never expire unless ExpireIf gives them a deadline. Expired
// entries are lazily evicted on access, and Len counts only live entries.
// There is no size bound and no LRU eviction.
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation
// (it contains a mutex).
package cache
