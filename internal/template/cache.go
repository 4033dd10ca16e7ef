package template

import (
	"math"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"go.uber.org/zap"
)

const (
	// Unlimited cache size
	Unlimited = -1
	// Disabled turns caching off; every load parses the source again
	Disabled = 0
)

// CacheStats is a snapshot of the cache counters
type CacheStats struct {
	Hits      int
	Misses    int
	Evictions int
	Size      int
}

// Cache memoizes parsed templates by location. When full, the entry that
// was inserted first is evicted. Lookups use Peek so they never refresh an
// entry's age, which turns the LRU list into insertion order.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	entries *simplelru.LRU[key, *Template]
	// included key -> keys of the templates that include it
	parents map[key]map[key]struct{}
	stats   CacheStats
	logger  *zap.Logger
}

// NewCache creates a new template cache. maxSize is Unlimited, Disabled or
// a positive number of entries.
func NewCache(maxSize int, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSize < Unlimited {
		maxSize = Unlimited
	}
	return &Cache{
		maxSize: maxSize,
		entries: newEntries(maxSize),
		parents: make(map[key]map[key]struct{}),
		logger:  logger,
	}
}

func newEntries(maxSize int) *simplelru.LRU[key, *Template] {
	size := maxSize
	if size <= 0 {
		size = math.MaxInt
	}
	// only fails for a non-positive size
	l, _ := simplelru.NewLRU[key, *Template](size, nil)
	return l
}

// MaxSize returns the configured maximum size
func (c *Cache) MaxSize() int {
	return c.maxSize
}

// Get returns the cached template for the location, calling load on a
// miss. String-sourced locations are never cached. load runs without the
// lock held because parsing a template may load its includes through the
// same cache.
func (c *Cache) Get(loc Location, load func() (*Template, error)) (*Template, error) {
	if loc.IsString() || c.maxSize == Disabled {
		return load()
	}

	k := loc.key()

	c.mu.Lock()
	if t, ok := c.entries.Peek(k); ok {
		c.stats.Hits++
		c.mu.Unlock()
		c.logger.Debug("template cache hit", zap.String("path", k.path))
		return t, nil
	}
	c.stats.Misses++
	c.mu.Unlock()

	c.logger.Debug("template cache miss", zap.String("path", k.path))
	t, err := load()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Check again in case another goroutine loaded it
	if cached, ok := c.entries.Peek(k); ok {
		return cached, nil
	}

	if c.maxSize > 0 && c.entries.Len() >= c.maxSize {
		if oldest, _, ok := c.entries.RemoveOldest(); ok {
			c.stats.Evictions++
			c.logger.Debug("template evicted from cache", zap.String("path", oldest.path))
		}
	}
	c.entries.Add(k, t)
	return t, nil
}

// Evict removes the template at the location
func (c *Cache) Evict(loc Location) bool {
	if loc.IsString() {
		return false
	}
	target := loc.key()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remove(func(k key) bool { return k == target }) > 0
}

// EvictPath removes every template whose resolved path equals path,
// whatever resolver loaded it
func (c *Cache) EvictPath(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.remove(func(k key) bool { return k.path == path })
	if n > 0 {
		c.logger.Debug("evicted templates for path",
			zap.String("path", path),
			zap.Int("count", n),
		)
	}
	return n
}

// link records that the template at parent includes the one at child
func (c *Cache) link(parent, child Location) {
	if parent.IsString() || child.IsString() {
		return
	}
	pk, ck := parent.key(), child.key()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.parents[ck] == nil {
		c.parents[ck] = make(map[key]struct{})
	}
	c.parents[ck][pk] = struct{}{}
}

// remove drops the matching entries and, transitively, every entry that
// includes one of them
func (c *Cache) remove(match func(key) bool) int {
	doomed := make(map[key]struct{})
	var queue []key
	for _, k := range c.entries.Keys() {
		if match(k) {
			queue = append(queue, k)
		}
	}
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		if _, ok := doomed[k]; ok {
			continue
		}
		doomed[k] = struct{}{}
		for pk := range c.parents[k] {
			queue = append(queue, pk)
		}
	}

	n := 0
	for k := range doomed {
		if c.entries.Remove(k) {
			n++
		}
		delete(c.parents, k)
	}
	c.stats.Evictions += n
	return n
}

// Purge removes every entry
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
	c.parents = make(map[key]map[key]struct{})
}

// Stats returns a snapshot of the cache counters
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = c.entries.Len()
	return s
}
