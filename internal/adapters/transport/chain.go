// Package transport reaches the stats API through an ordered list of
// strategies: direct first, then a relaying proxy. Each strategy has its own
// pacing limiter and circuit breaker.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/okian/mlbedge/pkg/logger"
	"github.com/okian/mlbedge/pkg/metrics"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultPacingBurst  = 1
	defaultBreakerMin   = 3
	defaultBreakerRatio = 0.6
	defaultBreakerOpen  = 30 * time.Second
	defaultMaxBodyBytes = 10 << 20
)

// Response is a successful upstream reply.
type Response struct {
	Strategy   string
	StatusCode int
	Body       []byte
}

type leg struct {
	strategy Strategy
	pacer    *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
}

// Chain tries strategies in order until one returns a 2xx response.
type Chain struct {
	legs   []*leg
	client *http.Client
	logger logger.Logger

	timeout      time.Duration
	maxBody      int64
	pacingRPS    float64
	pacingBurst  int
	breakerMin   uint32
	breakerRatio float64
	breakerOpen  time.Duration
}

// NewChain builds a chain over strategies in the given order.
func NewChain(strategies []Strategy, opts ...Option) *Chain {
	c := &Chain{
		client:       &http.Client{},
		logger:       logger.Nop(),
		timeout:      defaultTimeout,
		maxBody:      defaultMaxBodyBytes,
		pacingBurst:  defaultPacingBurst,
		breakerMin:   defaultBreakerMin,
		breakerRatio: defaultBreakerRatio,
		breakerOpen:  defaultBreakerOpen,
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, s := range strategies {
		if s == nil {
			continue
		}
		c.legs = append(c.legs, c.newLeg(s))
	}
	return c
}

func (c *Chain) newLeg(s Strategy) *leg {
	l := &leg{strategy: s}
	if c.pacingRPS > 0 {
		l.pacer = rate.NewLimiter(rate.Limit(c.pacingRPS), c.pacingBurst)
	}
	minReq, ratio, log := c.breakerMin, c.breakerRatio, c.logger
	l.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name(),
		MaxRequests: 1,
		Timeout:     c.breakerOpen,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minReq {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(name, int(to))
			log.Warn(context.Background(), "breaker state changed",
				logger.String("strategy", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	return l
}

// Strategies returns the strategy names in order.
func (c *Chain) Strategies() []string {
	names := make([]string, 0, len(c.legs))
	for _, l := range c.legs {
		names = append(names, l.strategy.Name())
	}
	return names
}

// BreakerStates reports each strategy's breaker state.
func (c *Chain) BreakerStates() map[string]string {
	out := make(map[string]string, len(c.legs))
	for _, l := range c.legs {
		out[l.strategy.Name()] = l.breaker.State().String()
	}
	return out
}

// Get performs one logical request. All strategies share a single deadline.
// On total failure the last strategy's *Error is returned.
func (c *Chain) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	if len(c.legs) == 0 {
		return nil, ErrNoStrategies
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var last error
	for _, l := range c.legs {
		resp, err := c.try(ctx, l, path, query)
		if err == nil {
			return resp, nil
		}
		last = err
		c.logger.Debug(ctx, "strategy failed",
			logger.String("strategy", l.strategy.Name()),
			logger.String("path", path),
			logger.Error(err),
		)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, last
}

func (c *Chain) try(ctx context.Context, l *leg, path string, query url.Values) (*Response, error) {
	name := l.strategy.Name()
	if l.pacer != nil {
		// Wait fails early when the reservation would outlive the deadline.
		if err := l.pacer.Wait(ctx); err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, c.fail(name, classify(ctx, err))
			}
			return nil, c.fail(name, &Error{Kind: ErrTimeout, Err: err})
		}
	}

	start := time.Now()
	out, err := l.breaker.Execute(func() (interface{}, error) {
		req, err := l.strategy.NewRequest(ctx, path, query)
		if err != nil {
			return nil, err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
		if err != nil {
			return nil, err
		}
		if int64(len(body)) > c.maxBody {
			return nil, fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, c.maxBody)
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, &statusError{code: resp.StatusCode}
		}
		return &Response{Strategy: name, StatusCode: resp.StatusCode, Body: body}, nil
	})
	metrics.RecordUpstreamLatency(name, float64(time.Since(start).Milliseconds()))

	if err != nil {
		var se *statusError
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return nil, c.fail(name, &Error{Kind: ErrCircuitOpen, Strategy: name})
		case errors.As(err, &se):
			return nil, c.fail(name, &Error{Kind: ErrUpstreamStatus, Strategy: name, StatusCode: se.code})
		default:
			return nil, c.fail(name, classify(ctx, err))
		}
	}

	resp, ok := out.(*Response)
	if !ok {
		return nil, c.fail(name, &Error{Kind: ErrNetwork, Err: fmt.Errorf("unexpected breaker result %T", out)})
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.fail(name, &Error{Kind: ErrUpstreamStatus, Strategy: name, StatusCode: resp.StatusCode})
	}
	metrics.RecordUpstreamRequest(name, "ok")
	return resp, nil
}

func (c *Chain) fail(name string, e *Error) error {
	e.Strategy = name
	metrics.RecordUpstreamRequest(name, outcome(e))
	return e
}

func classify(ctx context.Context, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Kind: ErrTimeout, Err: err}
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return &Error{Kind: ErrTimeout, Err: err}
	}
	return &Error{Kind: ErrNetwork, Err: err}
}

func outcome(e *Error) string {
	switch {
	case errors.Is(e.Kind, ErrTimeout):
		return "timeout"
	case errors.Is(e.Kind, ErrUpstreamStatus):
		return "status"
	case errors.Is(e.Kind, ErrCircuitOpen):
		return "open"
	}
	return "network"
}
