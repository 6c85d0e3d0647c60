package match

import "github.com/charmbracelet/log"

// Cache is a bounded pure-function memo. Values are never stale because
// every key folds in all inputs of the memoized computation, so entries
// are evicted only by capacity. Eviction drops the oldest fifth of the
// entries by insertion order, which keeps eviction O(1) amortized
// instead of maintaining strict LRU bookkeeping.
//
// A Cache instance is not safe for concurrent use. The matcher is
// single-threaded per session and the dispatcher touches its memo only
// from its own event loop, so neither caller needs a lock here.
type Cache struct {
	entries map[string]any
	order   []string
	max     int

	hits   int
	misses int
}

// DefaultMatchCacheSize bounds the keystroke-verdict memo.
const DefaultMatchCacheSize = 1000

// DefaultDisplayCacheSize bounds the derived display-info memo.
const DefaultDisplayCacheSize = 500

// NewCache creates a cache bounded to max entries.
func NewCache(max int) *Cache {
	if max < 1 {
		max = 1
	}
	return &Cache{
		entries: make(map[string]any, max),
		max:     max,
	}
}

// Get returns the memoized value for key.
func (c *Cache) Get(key string) (any, bool) {
	v, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Put stores a value, evicting the oldest entries when full.
func (c *Cache) Put(key string, v any) {
	if _, exists := c.entries[key]; exists {
		c.entries[key] = v
		return
	}
	if len(c.entries) >= c.max {
		c.evict()
	}
	c.entries[key] = v
	c.order = append(c.order, key)
}

// evict removes the oldest ~20% of entries by insertion order.
func (c *Cache) evict() {
	n := c.max / 5
	if n < 1 {
		n = 1
	}
	if n > len(c.order) {
		n = len(c.order)
	}
	for _, key := range c.order[:n] {
		delete(c.entries, key)
	}
	c.order = c.order[n:]
	log.Debugf("cache evicted %d entries, %d remain", n, len(c.entries))
}

// Len returns the current entry count.
func (c *Cache) Len() int { return len(c.entries) }

// Stats reports hit counters for debug logging.
func (c *Cache) Stats() map[string]int {
	return map[string]int{
		"entries": len(c.entries),
		"max":     c.max,
		"hits":    c.hits,
		"misses":  c.misses,
	}
}
