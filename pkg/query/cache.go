package query

import (
	"sync"

	"github.com/tchap/go-patricia/v2/patricia"
)

// PrefixCache memoizes autocomplete answers for recently queried prefixes.
// Entries live in a patricia trie keyed by the normalized prefix, with LRU
// eviction driven by a logical access clock. The cache is only a shortcut
// over the prefix index; a load invalidates it wholesale.
type PrefixCache struct {
	mu          sync.Mutex
	trie        *patricia.Trie
	accessTime  map[string]int64
	accessCount int64
	hits        int64
	maxEntries  int
}

// cachedNames is one memoized answer. limit records how many ids were
// materialized; a cached answer can only serve requests asking for that
// many results or fewer.
type cachedNames struct {
	limit int
	names []string
}

// NewPrefixCache returns a cache holding at most maxEntries prefixes.
func NewPrefixCache(maxEntries int) *PrefixCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &PrefixCache{
		trie:       patricia.NewTrie(),
		accessTime: make(map[string]int64, maxEntries),
		maxEntries: maxEntries,
	}
}

// Get returns the cached names for prefix truncated to limit, if an entry
// exists that was materialized with at least that limit.
func (c *PrefixCache) Get(prefix string, limit int) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := c.trie.Get(patricia.Prefix(prefix))
	if item == nil {
		return nil, false
	}
	entry := item.(cachedNames)
	if entry.limit < limit {
		// A larger limit could surface members this entry never fetched.
		return nil, false
	}

	c.markAccessed(prefix)
	c.hits++

	names := entry.names
	if len(names) > limit {
		names = names[:limit]
	}
	return names, true
}

// Put stores the names materialized for prefix under the given limit.
func (c *PrefixCache) Put(prefix string, limit int, names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, known := c.accessTime[prefix]; !known && len(c.accessTime) >= c.maxEntries {
		c.evictLRU()
	}
	c.trie.Set(patricia.Prefix(prefix), cachedNames{limit: limit, names: names})
	c.markAccessed(prefix)
}

// Invalidate drops every entry. The loader calls this after each flush so
// served suggestions never outlive the data they came from by more than a
// batch.
func (c *PrefixCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trie = patricia.NewTrie()
	c.accessTime = make(map[string]int64, c.maxEntries)
}

// Stats reports cache size and hit counters.
func (c *PrefixCache) Stats() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]int{
		"cachedPrefixes": len(c.accessTime),
		"maxEntries":     c.maxEntries,
		"hits":           int(c.hits),
	}
}

func (c *PrefixCache) markAccessed(prefix string) {
	c.accessCount++
	c.accessTime[prefix] = c.accessCount
}

func (c *PrefixCache) evictLRU() {
	var oldest string
	oldestTime := int64(1<<63 - 1)

	for prefix, at := range c.accessTime {
		if at < oldestTime {
			oldestTime = at
			oldest = prefix
		}
	}
	if oldest != "" {
		c.trie.Delete(patricia.Prefix(oldest))
		delete(c.accessTime, oldest)
	}
}
