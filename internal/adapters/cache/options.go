package cache

import "time"

// Option applies a configuration option to the memoryCache.
type Option func(*memoryCache)

// WithTTL sets how long an entry stays fresh.
func WithTTL(ttl time.Duration) Option {
	return func(c *memoryCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMaxSize bounds the number of entries. The oldest insertion is evicted
// when a new key arrives at capacity.
func WithMaxSize(maxSize int) Option {
	return func(c *memoryCache) {
		if maxSize > 0 {
			c.maxSize = maxSize
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(c *memoryCache) {
		if now != nil {
			c.now = now
		}
	}
}
