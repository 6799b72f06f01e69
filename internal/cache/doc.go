// Package cache provides a small generic LRU used by the shader compiler and
// the engine's program store.
//
// Cache holds at most one value per key. When a limit is configured, the
// least recently used entries are evicted once the limit is exceeded and the
// eviction hook receives each evicted pair so owners can release resources
// such as GPU pipelines.
//
//	c := cache.New[string, []uint32](64)
//	c.OnEvict(func(key string, words []uint32) { ... })
//	c.Set("difference", spirv)
//	words, ok := c.Get("difference")
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
