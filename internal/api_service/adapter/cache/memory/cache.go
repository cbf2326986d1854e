package memory

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/langowen/exchange-rates/internal/entities"
)

type Options struct {
	// Capacity bounds the number of entries; zero means unbounded.
	Capacity int
	// TTL expires entries after the given age; zero keeps them until cleared.
	TTL time.Duration
}

// Cache is a process-wide rate cache. Counters are lifetime totals and
// survive Clear.
type Cache struct {
	mu      sync.Mutex
	lru     *expirable.LRU[entities.RateKey, float64]
	opts    Options
	enabled bool

	hits   atomic.Uint64
	misses atomic.Uint64

	// dropped counts every onEvict call, removed the ones caused by Delete
	// and Clear. Both change only while mu is held, except for TTL expiry.
	dropped atomic.Uint64
	removed uint64
}

// New builds an enabled cache. The underlying expirable LRU runs one
// cleanup goroutine for the life of the process.
func New(opts Options) *Cache {
	if opts.Capacity < 0 {
		opts.Capacity = 0
	}

	c := &Cache{
		opts:    opts,
		enabled: true,
	}
	c.lru = expirable.NewLRU[entities.RateKey, float64](opts.Capacity, c.onEvict, opts.TTL)

	return c
}

// onEvict runs under the LRU lock for capacity evictions, TTL expiry and
// explicit removal alike.
func (c *Cache) onEvict(entities.RateKey, float64) {
	c.dropped.Add(1)
}

// NewDisabled returns a cache that answers every call with
// entities.ErrCacheUnavailable.
func NewDisabled() *Cache {
	return &Cache{}
}

func (c *Cache) Get(key entities.RateKey) (float64, bool, error) {
	if !c.enabled {
		return 0, false, entities.ErrCacheUnavailable
	}

	c.mu.Lock()
	rate, ok := c.lru.Get(key)
	c.mu.Unlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}

	return rate, ok, nil
}

func (c *Cache) Put(key entities.RateKey, rate float64) error {
	if !c.enabled {
		return entities.ErrCacheUnavailable
	}

	c.mu.Lock()
	c.lru.Add(key, rate)
	c.mu.Unlock()

	return nil
}

// Lookup reads one entry for inspection without touching counters or
// recency.
func (c *Cache) Lookup(key entities.RateKey) (float64, error) {
	if !c.enabled {
		return 0, entities.ErrCacheUnavailable
	}

	c.mu.Lock()
	rate, ok := c.lru.Peek(key)
	c.mu.Unlock()

	if !ok {
		return 0, entities.ErrNotFound
	}

	return rate, nil
}

func (c *Cache) Delete(key entities.RateKey) error {
	if !c.enabled {
		return entities.ErrCacheUnavailable
	}

	c.mu.Lock()
	present := c.remove(key)
	c.mu.Unlock()

	if !present {
		return entities.ErrNotFound
	}

	return nil
}

func (c *Cache) Clear() error {
	if !c.enabled {
		return entities.ErrCacheUnavailable
	}

	c.mu.Lock()
	for _, key := range c.lru.Keys() {
		c.remove(key)
	}
	c.mu.Unlock()

	return nil
}

func (c *Cache) Keys() ([]entities.RateKey, error) {
	if !c.enabled {
		return nil, entities.ErrCacheUnavailable
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Keys(), nil
}

// Entries returns a point-in-time copy of the whole cache.
func (c *Cache) Entries() (map[entities.RateKey]float64, error) {
	if !c.enabled {
		return nil, entities.ErrCacheUnavailable
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	keys := c.lru.Keys()
	entries := make(map[entities.RateKey]float64, len(keys))
	for _, key := range keys {
		if rate, ok := c.lru.Peek(key); ok {
			entries[key] = rate
		}
	}

	return entries, nil
}

func (c *Cache) Statistics() (entities.CacheStatistics, error) {
	if !c.enabled {
		return entities.CacheStatistics{}, entities.ErrCacheUnavailable
	}

	c.mu.Lock()
	evictions := c.dropped.Load() - c.removed
	size := c.lru.Len()
	c.mu.Unlock()

	return entities.CacheStatistics{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: evictions,
		Size:      size,
	}, nil
}

func (c *Cache) Details() (entities.CacheDetails, error) {
	if !c.enabled {
		return entities.CacheDetails{}, entities.ErrCacheUnavailable
	}

	return entities.CacheDetails{
		Enabled:  true,
		Capacity: c.opts.Capacity,
		TTL:      c.opts.TTL,
		Size:     c.size(),
	}, nil
}

func (c *Cache) Enabled() bool {
	return c.enabled
}

// remove deletes key without counting it as an eviction. Callers hold mu.
func (c *Cache) remove(key entities.RateKey) bool {
	if !c.lru.Remove(key) {
		return false
	}
	c.removed++

	return true
}

func (c *Cache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Len()
}
