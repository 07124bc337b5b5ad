package transport

import (
	"net/http"
	"time"

	"github.com/okian/mlbedge/pkg/logger"
)

// Option applies a configuration option to the Chain.
type Option func(*Chain)

// WithTimeout sets the per-request deadline shared by all strategies.
func WithTimeout(d time.Duration) Option {
	return func(c *Chain) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxBody caps the response body size. Larger bodies fail the attempt.
func WithMaxBody(n int64) Option {
	return func(c *Chain) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Chain) {
		if h != nil {
			c.client = h
		}
	}
}

// WithPacing spaces requests per strategy. A zero rps disables pacing.
func WithPacing(rps float64, burst int) Option {
	return func(c *Chain) {
		c.pacingRPS = rps
		if burst > 0 {
			c.pacingBurst = burst
		}
	}
}

// WithBreaker configures the per-strategy circuit breaker. It trips once at
// least minRequests were seen and the failure ratio reaches ratio.
func WithBreaker(minRequests int, ratio float64, openFor time.Duration) Option {
	return func(c *Chain) {
		if minRequests > 0 {
			c.breakerMin = uint32(minRequests)
		}
		if ratio > 0 && ratio <= 1 {
			c.breakerRatio = ratio
		}
		if openFor > 0 {
			c.breakerOpen = openFor
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Chain) {
		if l != nil {
			c.logger = l
		}
	}
}
