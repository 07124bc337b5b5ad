// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Flat snake_case keys so env vars map directly (MLBEDGE_CACHE_TTL_MS -> cache_ttl_ms).
// - New() returns defaults; Load layers a YAML file and env vars on top.
// - The resulting Config is treated as immutable and handed to constructors.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// BaseURL is the MLB stats API root.
	BaseURL string `koanf:"base_url"`

	// ProxyURL is prefixed to the full target URL when the direct call fails.
	ProxyURL string `koanf:"proxy_url"`

	// Season selects the stats season used by every team/pitcher query.
	Season int `koanf:"season"`

	RequestTimeoutMS int `koanf:"request_timeout_ms"`
	RetryAttempts    int `koanf:"retry_attempts"`
	RetryDelayMS     int `koanf:"retry_delay_ms"`

	CacheTTLMS   int `koanf:"cache_ttl_ms"`
	CacheMaxSize int `koanf:"cache_max_size"`

	// RateLimitMax requests are allowed per RateLimitWindowMS fixed window.
	RateLimitMax      int `koanf:"rate_limit_max"`
	RateLimitWindowMS int `koanf:"rate_limit_window_ms"`

	// PacingRPS spaces outbound requests per transport strategy. Zero disables pacing.
	PacingRPS   float64 `koanf:"pacing_rps"`
	PacingBurst int     `koanf:"pacing_burst"`

	BreakerMinRequests  int     `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64 `koanf:"breaker_failure_ratio"`
	BreakerOpenMS       int     `koanf:"breaker_open_ms"`

	// FanoutLimit bounds concurrent pitcher lookups per roster.
	FanoutLimit int `koanf:"fanout_limit"`

	// RecentStarts is how many game-log splits form a pitcher's recent aggregate.
	RecentStarts int `koanf:"recent_starts"`

	// HistorySize bounds the in-memory update/analysis history.
	HistorySize int `koanf:"history_size"`

	// Metrics toggles recording and shapes the exposed series names.
	MetricsEnabled   bool              `koanf:"metrics_enabled"`
	MetricsNamespace string            `koanf:"metrics_namespace"`
	MetricsSubsystem string            `koanf:"metrics_subsystem"`
	MetricsRefreshMS int               `koanf:"metrics_refresh_ms"`
	MetricsBuckets   []float64         `koanf:"metrics_buckets_ms"`
	MetricsLabels    map[string]string `koanf:"metrics_labels"`

	SpreadThreshold float64 `koanf:"spread_threshold"`
	TotalThreshold  float64 `koanf:"total_threshold"`

	// Run projection weights.
	WeightOPS   float64 `koanf:"weight_ops"`
	WeightWHIP  float64 `koanf:"weight_whip"`
	WeightBABIP float64 `koanf:"weight_babip"`
	WeightISO   float64 `koanf:"weight_iso"`
	WeightERA   float64 `koanf:"weight_era"`
	WeightK9    float64 `koanf:"weight_k9"`
	LeagueERA   float64 `koanf:"league_era"`
	LeagueK9    float64 `koanf:"league_k9"`
	HRBump      float64 `koanf:"hr_bump"`
	MinRuns     float64 `koanf:"min_runs"`
	MaxRuns     float64 `koanf:"max_runs"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		BaseURL:             "https://statsapi.mlb.com/api/v1",
		ProxyURL:            "https://corsproxy.io/?",
		Season:              2024,
		RequestTimeoutMS:    10_000,
		RetryAttempts:       3,
		RetryDelayMS:        1_000,
		CacheTTLMS:          300_000,
		CacheMaxSize:        100,
		RateLimitMax:        50,
		RateLimitWindowMS:   60_000,
		PacingRPS:           10,
		PacingBurst:         5,
		BreakerMinRequests:  3,
		BreakerFailureRatio: 0.6,
		BreakerOpenMS:       30_000,
		FanoutLimit:         4,
		RecentStarts:        3,
		HistorySize:         200,
		MetricsEnabled:      true,
		MetricsNamespace:    "mlbedge",
		MetricsSubsystem:    "analyzer",
		MetricsRefreshMS:    10_000,
		SpreadThreshold:     2.0,
		TotalThreshold:      3.0,
		WeightOPS:           4.0,
		WeightWHIP:          2.5,
		WeightBABIP:         1.5,
		WeightISO:           2.0,
		WeightERA:           0.2,
		WeightK9:            -0.1,
		LeagueERA:           4.5,
		LeagueK9:            8.5,
		HRBump:              0.5,
		MinRuns:             2,
		MaxRuns:             8,
	}
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.BaseURL == "":
		return fmt.Errorf("%w: base_url must not be empty", ErrInvalidConfig)
	case c.RequestTimeoutMS <= 0:
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	case c.RetryAttempts <= 0:
		return fmt.Errorf("%w: retry_attempts must be positive", ErrInvalidConfig)
	case c.RetryDelayMS < 0:
		return fmt.Errorf("%w: retry_delay_ms must not be negative", ErrInvalidConfig)
	case c.CacheTTLMS <= 0 || c.CacheMaxSize <= 0:
		return fmt.Errorf("%w: cache_ttl_ms and cache_max_size must be positive", ErrInvalidConfig)
	case c.RateLimitMax <= 0 || c.RateLimitWindowMS <= 0:
		return fmt.Errorf("%w: rate_limit_max and rate_limit_window_ms must be positive", ErrInvalidConfig)
	case c.PacingRPS < 0:
		return fmt.Errorf("%w: pacing_rps must not be negative", ErrInvalidConfig)
	case c.SpreadThreshold <= 0 || c.TotalThreshold <= 0:
		return fmt.Errorf("%w: thresholds must be positive", ErrInvalidConfig)
	case c.MinRuns >= c.MaxRuns:
		return fmt.Errorf("%w: min_runs must be below max_runs", ErrInvalidConfig)
	case c.MetricsRefreshMS <= 0:
		return fmt.Errorf("%w: metrics_refresh_ms must be positive", ErrInvalidConfig)
	}
	for i := 1; i < len(c.MetricsBuckets); i++ {
		if c.MetricsBuckets[i] <= c.MetricsBuckets[i-1] {
			return fmt.Errorf("%w: metrics_buckets_ms must be strictly increasing", ErrInvalidConfig)
		}
	}
	return nil
}

// RequestTimeout returns the per-attempt network timeout.
func (c *Config) RequestTimeout() time.Duration { return ms(c.RequestTimeoutMS) }

// RetryDelay returns the linear backoff unit.
func (c *Config) RetryDelay() time.Duration { return ms(c.RetryDelayMS) }

// CacheTTL returns the response cache time-to-live.
func (c *Config) CacheTTL() time.Duration { return ms(c.CacheTTLMS) }

// RateLimitWindow returns the fixed limiter window.
func (c *Config) RateLimitWindow() time.Duration { return ms(c.RateLimitWindowMS) }

// BreakerOpen returns how long a tripped breaker stays open.
func (c *Config) BreakerOpen() time.Duration { return ms(c.BreakerOpenMS) }

// MetricsRefresh returns how often gauge refreshers run.
func (c *Config) MetricsRefresh() time.Duration { return ms(c.MetricsRefreshMS) }

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }
