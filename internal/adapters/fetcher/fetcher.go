// Package fetcher performs one logical API request with caching, rate
// limiting, linear-backoff retries and a structurally valid fallback.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/okian/mlbedge/internal/adapters/cache"
	"github.com/okian/mlbedge/internal/adapters/ratelimit"
	"github.com/okian/mlbedge/internal/adapters/transport"
	"github.com/okian/mlbedge/pkg/logger"
	"github.com/okian/mlbedge/pkg/metrics"
)

const (
	defaultAttempts = 3
	defaultDelay    = time.Second
)

// DefaultFallback is returned when no payload-specific fallback is given.
var DefaultFallback = []byte(`{"stats":[],"injuries":[],"roster":[],"dates":[],"teams":[],"venue":{},"dimensions":{}}`)

// Getter is the network side of a fetch; *transport.Chain satisfies it.
type Getter interface {
	Get(ctx context.Context, path string, query url.Values) (*transport.Response, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Fetcher wraps a Getter with cache, limiter and retries.
type Fetcher struct {
	getter   Getter
	cache    cache.Cache
	limiter  *ratelimit.Limiter
	attempts int
	delay    time.Duration
	sleep    Sleeper
	logger   logger.Logger
}

// New creates a Fetcher over g.
func New(g Getter, opts ...Option) *Fetcher {
	f := &Fetcher{
		getter:   g,
		cache:    cache.NewMemoryCache(),
		limiter:  ratelimit.New(),
		attempts: defaultAttempts,
		delay:    defaultDelay,
		sleep:    sleepContext,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the JSON body for endpoint with params. A nil fallback means
// DefaultFallback. Errors:
//   - ratelimit.ErrRateLimited: the window is full, no I/O happened.
//   - ErrInvalidPayload: a 2xx response that is not JSON, not retried.
//   - ErrExhausted: every attempt failed; the fallback is returned as well.
//   - the context error if ctx ended.
func (f *Fetcher) Fetch(ctx context.Context, endpoint string, params url.Values, fallback []byte) ([]byte, error) {
	key := cache.Key(endpoint, params)
	if body, ok := f.cache.Get(key); ok {
		return body, nil
	}
	if err := f.limiter.Allow(); err != nil {
		return nil, err
	}

	var last error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		resp, err := f.getter.Get(ctx, endpoint, params)
		if err == nil {
			if !json.Valid(resp.Body) {
				return nil, fmt.Errorf("%w: %s via %s", ErrInvalidPayload, endpoint, resp.Strategy)
			}
			f.cache.Set(key, resp.Body)
			return resp.Body, nil
		}
		last = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, transport.ErrNoStrategies) {
			break
		}
		if attempt == f.attempts {
			break
		}

		wait := f.delay * time.Duration(attempt)
		metrics.RecordFetchRetry()
		f.logger.Warn(ctx, "fetch attempt failed, backing off",
			logger.String("endpoint", endpoint),
			logger.Int("attempt", attempt),
			logger.Duration("backoff", wait),
			logger.Error(err),
		)
		if err := f.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	metrics.RecordFetchFallback()
	f.logger.Error(ctx, "fetch exhausted, using fallback",
		logger.String("endpoint", endpoint),
		logger.Error(last),
	)
	if fallback == nil {
		fallback = DefaultFallback
	}
	return fallback, fmt.Errorf("%w: %s: %w", ErrExhausted, endpoint, last)
}

// CacheStats exposes the underlying cache counters.
func (f *Fetcher) CacheStats() cache.Stats { return f.cache.Stats() }

// LimiterStats exposes the limiter window.
func (f *Fetcher) LimiterStats() ratelimit.Stats { return f.limiter.Stats() }

// ClearCache drops every cached response.
func (f *Fetcher) ClearCache() { f.cache.Clear() }

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
