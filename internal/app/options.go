package service

import (
	"time"

	"github.com/okian/mlbedge/internal/adapters/repository"
	"github.com/okian/mlbedge/internal/config"
	"github.com/okian/mlbedge/internal/domain/valuation"
	"github.com/okian/mlbedge/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration the default components are built from.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithClient replaces the stats API client.
func WithClient(c Client) Option {
	return func(s *Service) {
		if c != nil {
			s.client = c
		}
	}
}

// WithEngine replaces the value engine.
func WithEngine(e *valuation.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithHistory replaces the history store.
func WithHistory(h repository.Store) Option {
	return func(s *Service) {
		if h != nil {
			s.history = h
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFanoutLimit bounds concurrent pitcher lookups per roster.
func WithFanoutLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fanoutLimit = n
		}
	}
}

// WithRecentStarts sets how many game-log entries form recent form.
func WithRecentStarts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recentStarts = n
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces the analysis ID generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}
