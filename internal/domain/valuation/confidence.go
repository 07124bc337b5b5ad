package valuation

import (
	"math"

	"github.com/okian/mlbedge/internal/domain/model"
	"github.com/okian/mlbedge/internal/domain/projection"
	"github.com/okian/mlbedge/internal/domain/types"
)

// Confidence weights and scales. Each factor is normalised to [0, 1] before weighting.
const (
	weightSpreadValue = 0.3
	weightTotalValue  = 0.3
	weightOffense     = 0.2
	weightPitching    = 0.2

	offenseEdgeScale  = 0.080 // OPS gap that counts as a full offensive edge
	pitchingEdgeScale = 2.0   // starter ERA gap that counts as a full pitching edge

	highConfidence   = 0.7
	mediumConfidence = 0.4
)

// ConfidenceScore returns the weighted [0, 1] score behind a confidence grade.
func (e *Engine) ConfidenceScore(r model.ValueReport, home, away projection.SideInput) float64 {
	spread := unit(math.Abs(r.SpreadValue) / (2 * e.spreadThreshold))
	total := unit(math.Abs(r.TotalValue) / (2 * e.totalThreshold))
	offense := unit(math.Abs(home.Batting.OPS-away.Batting.OPS) / offenseEdgeScale)
	pitching := unit(math.Abs(home.Starter.ERA-away.Starter.ERA) / pitchingEdgeScale)

	return spread*weightSpreadValue + total*weightTotalValue + offense*weightOffense + pitching*weightPitching
}

func (e *Engine) confidence(r model.ValueReport, home, away projection.SideInput) types.Confidence {
	return Grade(e.ConfidenceScore(r, home, away))
}

// Grade maps a score onto High, Medium or Low.
func Grade(score float64) types.Confidence {
	switch {
	case score >= highConfidence:
		return types.ConfidenceHigh
	case score >= mediumConfidence:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceLow
	}
}

func unit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
