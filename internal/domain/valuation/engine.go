// Package valuation compares projected runs with market lines and emits
// structured betting-value recommendations.
package valuation

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/mlbedge/internal/domain/model"
	"github.com/okian/mlbedge/internal/domain/projection"
	"github.com/okian/mlbedge/internal/domain/types"
	"github.com/okian/mlbedge/pkg/logger"
	"github.com/okian/mlbedge/pkg/metrics"
)

// Default recommendation thresholds in runs.
const (
	defaultSpreadThreshold = 2.0
	defaultTotalThreshold  = 3.0
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithProjector sets the run projector.
func WithProjector(p *projection.Projector) Option {
	return func(e *Engine) {
		if p != nil {
			e.projector = p
		}
	}
}

// WithThresholds sets the minimum edge for spread and total recommendations.
func WithThresholds(spread, total float64) Option {
	return func(e *Engine) {
		if spread > 0 {
			e.spreadThreshold = spread
		}
		if total > 0 {
			e.totalThreshold = total
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Matchup is the engine input. Home and Away must both be present.
type Matchup struct {
	Home         *projection.SideInput
	Away         *projection.SideInput
	MarketSpread float64
	MarketTotal  float64
	Weather      types.Weather
}

// Engine is the value-decision engine.
type Engine struct {
	projector       *projection.Projector
	spreadThreshold float64
	totalThreshold  float64
	logger          logger.Logger
}

// NewEngine creates an engine with default thresholds and projector.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		projector:       projection.NewProjector(),
		spreadThreshold: defaultSpreadThreshold,
		totalThreshold:  defaultTotalThreshold,
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Thresholds returns the spread and total thresholds.
func (e *Engine) Thresholds() (spread, total float64) {
	return e.spreadThreshold, e.totalThreshold
}

// FindValue projects both sides and compares them with the market. It never
// fails: any problem yields a zeroed report with one insufficient-data
// recommendation.
func (e *Engine) FindValue(ctx context.Context, m Matchup) (report model.ValueReport) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(ctx, "value computation panicked", logger.Any("panic", r))
			report = InsufficientData()
		}
	}()

	if m.Weather == "" {
		m.Weather = types.WeatherNormal
	}
	if err := validate(m); err != nil {
		e.logger.Warn(ctx, "insufficient data for valuation", logger.Error(err))
		metrics.RecordRecommendation(string(types.KindInsufficientData))
		return InsufficientData()
	}

	home := *m.Home
	away := *m.Away
	home.Batting = home.Batting.WithOPS()
	away.Batting = away.Batting.WithOPS()

	homeRuns := e.projector.Project(home, m.Weather)
	awayRuns := e.projector.Project(away, m.Weather)
	metrics.RecordProjectedRuns(homeRuns)
	metrics.RecordProjectedRuns(awayRuns)

	report = e.Evaluate(homeRuns, awayRuns, m.MarketSpread, m.MarketTotal, m.Weather)
	report.Confidence = e.confidence(report, home, away)

	e.logger.Debug(ctx, "valuation complete",
		logger.Float64("homeRuns", homeRuns),
		logger.Float64("awayRuns", awayRuns),
		logger.Float64("spreadValue", report.SpreadValue),
		logger.Float64("totalValue", report.TotalValue),
		logger.Int("recommendations", len(report.Recommendations)),
	)
	return report
}

// Evaluate runs the comparison step on already projected runs.
// Recommendations are ordered: weather note, spread, total.
func (e *Engine) Evaluate(homeRuns, awayRuns, marketSpread, marketTotal float64, weather types.Weather) model.ValueReport {
	proj := model.MatchupProjection{
		HomeExpectedRuns: homeRuns,
		AwayExpectedRuns: awayRuns,
		ProjectedSpread:  homeRuns - awayRuns,
		ProjectedTotal:   homeRuns + awayRuns,
	}
	report := model.ValueReport{
		Projection:      proj,
		SpreadValue:     proj.ProjectedSpread - marketSpread,
		TotalValue:      proj.ProjectedTotal - marketTotal,
		Recommendations: []model.ValueRecommendation{},
		Confidence:      types.ConfidenceLow,
	}

	factor := weather.Factor()
	if !weather.Neutral() {
		report.Recommendations = append(report.Recommendations, model.ValueRecommendation{
			Kind:    types.KindWeatherNote,
			Weather: weather,
			Factor:  &factor,
		})
	}

	if math.Abs(report.SpreadValue) >= e.spreadThreshold {
		rec := model.ValueRecommendation{
			Kind:      types.KindSpread,
			Side:      types.SideHome,
			Line:      marketSpread,
			Magnitude: math.Abs(report.SpreadValue),
		}
		if report.SpreadValue < 0 {
			rec.Side = types.SideAway
			rec.Line = -marketSpread
		}
		report.Recommendations = append(report.Recommendations, rec)
	}

	if math.Abs(report.TotalValue) >= e.totalThreshold {
		rec := model.ValueRecommendation{
			Kind:      types.KindTotal,
			Direction: types.DirectionOver,
			Line:      marketTotal,
			Magnitude: math.Abs(report.TotalValue),
		}
		if report.TotalValue < 0 {
			rec.Direction = types.DirectionUnder
		}
		rec.WeatherSupported = weatherSupports(rec.Direction, factor)
		report.Recommendations = append(report.Recommendations, rec)
	}

	for _, rec := range report.Recommendations {
		metrics.RecordRecommendation(string(rec.Kind))
	}
	return report
}

// InsufficientData is the zeroed report returned on failure.
func InsufficientData() model.ValueReport {
	return model.ValueReport{
		Recommendations: []model.ValueRecommendation{{Kind: types.KindInsufficientData}},
		Confidence:      types.ConfidenceLow,
	}
}

func weatherSupports(d types.Direction, f types.WeatherFactor) bool {
	switch d {
	case types.DirectionOver:
		return f.RunsMultiplier > 1
	case types.DirectionUnder:
		return f.RunsMultiplier < 1
	}
	return false
}

func validate(m Matchup) error {
	switch {
	case m.Home == nil:
		return fmt.Errorf("%w: home side", ErrMissingSide)
	case m.Away == nil:
		return fmt.Errorf("%w: away side", ErrMissingSide)
	case !finite(m.MarketSpread) || !finite(m.MarketTotal):
		return ErrNonFiniteLine
	case !m.Weather.Valid():
		return fmt.Errorf("%w: %q", ErrUnknownWeather, m.Weather)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
