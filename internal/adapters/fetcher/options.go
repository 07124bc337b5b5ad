package fetcher

import (
	"time"

	"github.com/okian/mlbedge/internal/adapters/cache"
	"github.com/okian/mlbedge/internal/adapters/ratelimit"
	"github.com/okian/mlbedge/pkg/logger"
)

// Option applies a configuration option to the Fetcher.
type Option func(*Fetcher)

// WithCache sets the response cache.
func WithCache(c cache.Cache) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.cache = c
		}
	}
}

// WithLimiter sets the request rate limiter.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.limiter = l
		}
	}
}

// WithRetry sets the attempt budget and the linear backoff unit.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(f *Fetcher) {
		if attempts > 0 {
			f.attempts = attempts
		}
		if delay >= 0 {
			f.delay = delay
		}
	}
}

// WithSleeper replaces the backoff sleep, mainly for tests.
func WithSleeper(s Sleeper) Option {
	return func(f *Fetcher) {
		if s != nil {
			f.sleep = s
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}
