package cache

import "sync"

// Cache is a generic thread-safe LRU cache.
// A limit of 0 means unlimited.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*node[K, V]
	order   list[K, V]
	limit   int
	onEvict func(K, V)

	hits   uint64
	misses uint64
}

// New creates a cache that keeps at most limit entries.
func New[K comparable, V any](limit int) *Cache[K, V] {
	if limit < 0 {
		limit = 0
	}
	return &Cache[K, V]{
		entries: make(map[K]*node[K, V]),
		limit:   limit,
	}
}

// OnEvict registers fn to be called for every entry dropped because the
// limit was exceeded. It is not called for Delete or Drain.
// fn runs with the cache lock held and must not call back into the cache.
func (c *Cache[K, V]) OnEvict(fn func(K, V)) {
	c.mu.Lock()
	c.onEvict = fn
	c.mu.Unlock()
}

// Get returns the value for key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.moveToFront(n)
	return n.value, true
}

// Peek returns the value for key without touching its recency.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[key]; ok {
		return n.value, true
	}
	var zero V
	return zero, false
}

// Set stores value under key, replacing any previous value, and evicts the
// least recently used entries while the cache is over its limit.
// The replaced value, if any, is returned so the caller can release it.
func (c *Cache[K, V]) Set(key K, value V) (old V, replaced bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[key]; ok {
		old, n.value = n.value, value
		c.order.moveToFront(n)
		return old, true
	}

	n := &node[K, V]{key: key, value: value}
	c.entries[key] = n
	c.order.pushFront(n)

	for c.limit > 0 && c.order.len > c.limit {
		victim := c.order.back()
		if victim == n {
			break
		}
		c.order.remove(victim)
		delete(c.entries, victim.key)
		if c.onEvict != nil {
			c.onEvict(victim.key, victim.value)
		}
	}
	return old, false
}

// Delete removes key and returns its value.
func (c *Cache[K, V]) Delete(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.remove(n)
	delete(c.entries, key)
	return n.value, true
}

// Drain removes every entry and returns them from most to least recently used.
func (c *Cache[K, V]) Drain() []Entry[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Entry[K, V], 0, len(c.entries))
	for n := c.order.head; n != nil; n = n.next {
		out = append(out, Entry[K, V]{Key: n.key, Value: n.value})
	}
	c.entries = make(map[K]*node[K, V])
	c.order = list[K, V]{}
	return out
}

// Keys returns the cached keys from most to least recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.entries))
	for n := c.order.head; n != nil; n = n.next {
		keys = append(keys, n.key)
	}
	return keys
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Limit returns the configured limit (0 = unlimited).
func (c *Cache[K, V]) Limit() int {
	return c.limit
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Len: len(c.entries), Limit: c.limit, Hits: c.hits, Misses: c.misses}
}

// Entry is a key/value pair returned by Drain.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Stats contains cache statistics.
type Stats struct {
	Len    int
	Limit  int
	Hits   uint64
	Misses uint64
}

// node is an element of the recency list.
type node[K comparable, V any] struct {
	key        K
	value      V
	prev, next *node[K, V]
}

// list is a doubly linked recency list; head is the most recently used.
type list[K comparable, V any] struct {
	head, tail *node[K, V]
	len        int
}

func (l *list[K, V]) pushFront(n *node[K, V]) {
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
	l.len++
}

func (l *list[K, V]) moveToFront(n *node[K, V]) {
	if l.head == n {
		return
	}
	l.remove(n)
	l.pushFront(n)
}

func (l *list[K, V]) back() *node[K, V] {
	return l.tail
}

func (l *list[K, V]) remove(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev = nil
	n.next = nil
	l.len--
}
