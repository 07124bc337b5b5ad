// Package cache holds upstream responses for a bounded time and count.
package cache

import (
	"container/list"
	"net/url"
	"sync"
	"time"

	"github.com/okian/mlbedge/pkg/metrics"
)

const (
	defaultTTL     = 5 * time.Minute
	defaultMaxSize = 100
)

// Cache maps a request signature to a parsed response payload.
type Cache interface {
	// Get returns the payload when the entry is younger than the TTL.
	// Expired entries are dropped on read.
	Get(key string) ([]byte, bool)
	// Set stores payload under key, evicting the oldest insertion at capacity.
	Set(key string, payload []byte)
	Clear()
	Stats() Stats
}

// Stats is a point-in-time snapshot of cache behaviour.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
	MaxSize   int   `json:"max_size"`
}

type entry struct {
	key        string
	payload    []byte
	insertedAt time.Time
}

// memoryCache keeps entries in insertion order; the list front is the oldest.
type memoryCache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	stats   Stats
}

// NewMemoryCache creates an in-process cache.
func NewMemoryCache(opts ...Option) Cache {
	c := &memoryCache{
		ttl:     defaultTTL,
		maxSize: defaultMaxSize,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.items = make(map[string]*list.Element, c.maxSize)
	c.order = list.New()
	return c
}

// Key builds the request signature from endpoint and query parameters.
// Parameters are encoded in sorted key order so equivalent queries collide.
func Key(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	return endpoint + "?" + params.Encode()
}

func (c *memoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		metrics.RecordCacheMiss()
		return nil, false
	}
	e := el.Value.(*entry)
	if c.now().Sub(e.insertedAt) >= c.ttl {
		c.remove(el)
		c.stats.Misses++
		metrics.RecordCacheMiss()
		return nil, false
	}
	c.stats.Hits++
	metrics.RecordCacheHit()
	return e.payload, true
}

func (c *memoryCache) Set(key string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry)
		e.payload = payload
		e.insertedAt = now
		c.order.MoveToBack(el)
		return
	}

	for c.order.Len() >= c.maxSize {
		c.remove(c.order.Front())
	}
	c.items[key] = c.order.PushBack(&entry{key: key, payload: payload, insertedAt: now})
	metrics.UpdateCacheEntries(c.order.Len())
}

func (c *memoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element, c.maxSize)
	c.order.Init()
	metrics.UpdateCacheEntries(0)
}

func (c *memoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = c.order.Len()
	s.MaxSize = c.maxSize
	return s
}

// remove drops el. Must be called with c.mu held.
func (c *memoryCache) remove(el *list.Element) {
	e := c.order.Remove(el).(*entry)
	delete(c.items, e.key)
	c.stats.Evictions++
	metrics.RecordCacheEviction()
	metrics.UpdateCacheEntries(c.order.Len())
}
