// Package ratelimit bounds outbound request volume with a fixed window.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/okian/mlbedge/pkg/metrics"
)

const (
	defaultMax    = 50
	defaultWindow = time.Minute
)

// Option applies a configuration option to the Limiter.
type Option func(*Limiter)

// WithLimit sets the number of requests allowed per window.
func WithLimit(maxRequests int, window time.Duration) Option {
	return func(l *Limiter) {
		if maxRequests > 0 && window > 0 {
			l.max = maxRequests
			l.window = window
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// Limiter is a fixed-window counter. The window restarts on the first call
// made at least one window after it began.
type Limiter struct {
	mu          sync.Mutex
	max         int
	window      time.Duration
	count       int
	windowStart time.Time
	rejected    int64
	now         func() time.Time
}

// Stats is a snapshot of limiter state.
type Stats struct {
	Max         int       `json:"max"`
	Window      string    `json:"window"`
	Used        int       `json:"used"`
	Remaining   int       `json:"remaining"`
	Rejected    int64     `json:"rejected"`
	WindowStart time.Time `json:"window_start"`
}

// New creates a limiter allowing 50 requests per minute by default.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		max:    defaultMax,
		window: defaultWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.windowStart = l.now()
	return l
}

// Allow consumes one slot or returns ErrRateLimited.
func (l *Limiter) Allow() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.roll()
	if l.count >= l.max {
		l.rejected++
		metrics.RecordRateLimited()
		return fmt.Errorf("%w: maximum %d requests per %v", ErrRateLimited, l.max, l.window)
	}
	l.count++
	return nil
}

// Remaining reports the slots left in the current window.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll()
	return l.max - l.count
}

// Stats returns a snapshot.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll()
	return Stats{
		Max:         l.max,
		Window:      l.window.String(),
		Used:        l.count,
		Remaining:   l.max - l.count,
		Rejected:    l.rejected,
		WindowStart: l.windowStart,
	}
}

// roll starts a new window when the current one has elapsed. Must hold l.mu.
func (l *Limiter) roll() {
	now := l.now()
	if now.Sub(l.windowStart) >= l.window {
		l.count = 0
		l.windowStart = now
	}
}
