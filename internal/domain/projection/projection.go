// Package projection converts a side's derived statistics into expected runs.
package projection

import (
	"math"

	"github.com/okian/mlbedge/internal/domain/stats"
	"github.com/okian/mlbedge/internal/domain/types"
)

// Default projection weights and bounds.
const (
	defaultWeightOPS   = 4.0
	defaultWeightWHIP  = 2.5
	defaultWeightBABIP = 1.5
	defaultWeightISO   = 2.0
	defaultWeightERA   = 0.2
	defaultWeightK9    = -0.1
	defaultLeagueERA   = 4.5
	defaultLeagueK9    = 8.5
	defaultHRBump      = 0.5
	defaultMinRuns     = 2.0
	defaultMaxRuns     = 8.0
)

// Weights are the linear coefficients of the run model.
type Weights struct {
	OPS   float64
	WHIP  float64
	BABIP float64
	ISO   float64
	ERA   float64
	K9    float64
	// LeagueERA and LeagueK9 are the baselines ERA and K/9 are measured against.
	LeagueERA float64
	LeagueK9  float64
	// HRBump scales the ISO-driven home run adjustment.
	HRBump float64
}

// DefaultWeights returns the stock coefficients.
func DefaultWeights() Weights {
	return Weights{
		OPS:       defaultWeightOPS,
		WHIP:      defaultWeightWHIP,
		BABIP:     defaultWeightBABIP,
		ISO:       defaultWeightISO,
		ERA:       defaultWeightERA,
		K9:        defaultWeightK9,
		LeagueERA: defaultLeagueERA,
		LeagueK9:  defaultLeagueK9,
		HRBump:    defaultHRBump,
	}
}

// Option applies a configuration option to the Projector.
type Option func(*Projector)

// WithWeights replaces the model coefficients.
func WithWeights(w Weights) Option {
	return func(p *Projector) {
		p.weights = w
	}
}

// WithBounds sets the clamp range for projected runs.
func WithBounds(minRuns, maxRuns float64) Option {
	return func(p *Projector) {
		if minRuns < maxRuns {
			p.minRuns = minRuns
			p.maxRuns = maxRuns
		}
	}
}

// Starter is the subset of a starting pitcher's aggregate the model reads.
type Starter struct {
	ERA  float64 `json:"era"`
	WHIP float64 `json:"whip"`
	K9   float64 `json:"k9"`
}

// StarterFrom narrows a derived pitching set.
func StarterFrom(p stats.DerivedPitching) Starter {
	return Starter{ERA: p.ERA, WHIP: p.WHIP, K9: p.K9}
}

// StarterFallback substitutes the team aggregate when a starter is unknown.
// K/9 is not carried over.
func StarterFallback(team stats.DerivedPitching) Starter {
	return Starter{ERA: team.ERA, WHIP: team.WHIP, K9: 0}
}

// SideInput is everything the model needs for one team.
type SideInput struct {
	Batting stats.DerivedBatting
	Starter Starter
}

// Projector computes expected runs for a side.
type Projector struct {
	weights Weights
	minRuns float64
	maxRuns float64
}

// NewProjector creates a projector with default weights and bounds.
func NewProjector(opts ...Option) *Projector {
	p := &Projector{
		weights: DefaultWeights(),
		minRuns: defaultMinRuns,
		maxRuns: defaultMaxRuns,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Bounds returns the clamp range.
func (p *Projector) Bounds() (float64, float64) {
	return p.minRuns, p.maxRuns
}

// Project returns expected runs in [min, max]. A non-finite intermediate
// result clamps to the minimum.
func (p *Projector) Project(in SideInput, weather types.Weather) float64 {
	w := p.weights
	b := in.Batting
	s := in.Starter

	base := b.OPS*w.OPS +
		(1-s.WHIP)*w.WHIP +
		b.BABIP*w.BABIP +
		b.ISO*w.ISO +
		(s.ERA-w.LeagueERA)*w.ERA +
		(s.K9-w.LeagueK9)*w.K9

	f := weather.Factor()
	adjusted := base * f.RunsMultiplier
	hrBump := b.ISO * (f.HomeRunMultiplier - 1) * w.HRBump

	return p.clamp(adjusted + hrBump)
}

func (p *Projector) clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return p.minRuns
	}
	return math.Max(p.minRuns, math.Min(p.maxRuns, v))
}
