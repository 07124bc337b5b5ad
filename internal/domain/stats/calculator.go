// Package stats derives sabermetric indicators from counting statistics.
//
// Every ratio returns 0 when its denominator is zero. Aggregation across
// games always sums the counting stats first and derives afterwards.
package stats

import (
	"math"

	"github.com/shopspring/decimal"
)

// BattingLine holds batting counting stats for a team or player.
type BattingLine struct {
	AtBats     int `json:"atBats"`
	Hits       int `json:"hits"`
	Doubles    int `json:"doubles"`
	Triples    int `json:"triples"`
	HomeRuns   int `json:"homeRuns"`
	Walks      int `json:"baseOnBalls"`
	HitByPitch int `json:"hitByPitch"`
	SacFlies   int `json:"sacFlies"`
	Strikeouts int `json:"strikeOuts"`
}

// PitchingLine holds pitching counting stats.
type PitchingLine struct {
	Innings    Innings `json:"inningsPitched"`
	EarnedRuns int     `json:"earnedRuns"`
	Hits       int     `json:"hits"`
	Walks      int     `json:"baseOnBalls"`
	Strikeouts int     `json:"strikeOuts"`
	HitByPitch int     `json:"hitBatsmen"`
}

// DerivedBatting is the batting indicator set used by the projector.
type DerivedBatting struct {
	AVG   float64 `json:"avg"`
	OBP   float64 `json:"obp"`
	SLG   float64 `json:"slg"`
	ISO   float64 `json:"iso"`
	BABIP float64 `json:"babip"`
	OPS   float64 `json:"ops"`
}

// DerivedPitching is the pitching indicator set.
type DerivedPitching struct {
	ERA  float64 `json:"era"`
	WHIP float64 `json:"whip"`
	K9   float64 `json:"k9"`
	BB9  float64 `json:"bb9"`
}

func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

// OnBasePercentage is (H+BB+HBP)/(AB+BB+HBP+SF).
func OnBasePercentage(b BattingLine) float64 {
	return ratio(
		float64(b.Hits+b.Walks+b.HitByPitch),
		float64(b.AtBats+b.Walks+b.HitByPitch+b.SacFlies),
	)
}

// TotalBases counts singles once, doubles twice, triples three times and
// home runs four times.
func TotalBases(b BattingLine) int {
	return b.Hits + b.Doubles + 2*b.Triples + 3*b.HomeRuns
}

// SluggingPercentage is total bases over at-bats.
func SluggingPercentage(b BattingLine) float64 {
	return ratio(float64(TotalBases(b)), float64(b.AtBats))
}

// BattingAverage is H/AB.
func BattingAverage(b BattingLine) float64 {
	return ratio(float64(b.Hits), float64(b.AtBats))
}

// IsolatedPower is SLG minus AVG.
func IsolatedPower(b BattingLine) float64 {
	return SluggingPercentage(b) - BattingAverage(b)
}

// BABIP is (H−HR)/(AB−HR−K+SF). A missing strikeout count reads as zero.
func BABIP(b BattingLine) float64 {
	return ratio(
		float64(b.Hits-b.HomeRuns),
		float64(b.AtBats-b.HomeRuns-b.Strikeouts+b.SacFlies),
	)
}

// ERA is earned runs per nine innings.
func ERA(p PitchingLine) float64 {
	return ratio(float64(p.EarnedRuns)*9, float64(p.Innings))
}

// WHIP is (H+BB)/IP. Hit batsmen are not counted.
func WHIP(p PitchingLine) float64 {
	return ratio(float64(p.Hits+p.Walks), float64(p.Innings))
}

// StrikeoutsPerNine is K·9/IP.
func StrikeoutsPerNine(p PitchingLine) float64 {
	return ratio(float64(p.Strikeouts)*9, float64(p.Innings))
}

// WalksPerNine is BB·9/IP.
func WalksPerNine(p PitchingLine) float64 {
	return ratio(float64(p.Walks)*9, float64(p.Innings))
}

// DeriveBatting computes the full batting indicator set.
func DeriveBatting(b BattingLine) DerivedBatting {
	d := DerivedBatting{
		AVG:   BattingAverage(b),
		OBP:   OnBasePercentage(b),
		SLG:   SluggingPercentage(b),
		BABIP: BABIP(b),
	}
	return d.complete()
}

// DerivePitching computes the full pitching indicator set.
func DerivePitching(p PitchingLine) DerivedPitching {
	return DerivedPitching{
		ERA:  ERA(p),
		WHIP: WHIP(p),
		K9:   StrikeoutsPerNine(p),
		BB9:  WalksPerNine(p),
	}
}

// Empty reports whether the line has no plate appearances.
func (b BattingLine) Empty() bool {
	return b.AtBats+b.Walks+b.HitByPitch+b.SacFlies == 0
}

// Empty reports whether no innings were recorded.
func (p PitchingLine) Empty() bool {
	return p.Innings <= 0
}

// DeriveBattingOr derives from counting stats, or falls back to the
// reported ratios when the line carries no plate appearances. The ISO and
// OPS identities hold in both cases.
func DeriveBattingOr(b BattingLine, reported DerivedBatting) DerivedBatting {
	if !b.Empty() {
		return DeriveBatting(b)
	}
	return reported.complete()
}

// DerivePitchingOr derives from counting stats, or returns the reported
// ratios when no innings were recorded.
func DerivePitchingOr(p PitchingLine, reported DerivedPitching) DerivedPitching {
	if !p.Empty() {
		return DerivePitching(p)
	}
	return reported
}

func (d DerivedBatting) complete() DerivedBatting {
	d.ISO = d.SLG - d.AVG
	d.OPS = d.OBP + d.SLG
	return d
}

// WithOPS fills OPS from OBP and SLG when it is missing.
func (d DerivedBatting) WithOPS() DerivedBatting {
	if d.OPS == 0 {
		d.OPS = d.OBP + d.SLG
	}
	return d
}

// AggregateBatting sums counting stats across lines.
func AggregateBatting(lines ...BattingLine) BattingLine {
	var out BattingLine
	for _, l := range lines {
		out.AtBats += l.AtBats
		out.Hits += l.Hits
		out.Doubles += l.Doubles
		out.Triples += l.Triples
		out.HomeRuns += l.HomeRuns
		out.Walks += l.Walks
		out.HitByPitch += l.HitByPitch
		out.SacFlies += l.SacFlies
		out.Strikeouts += l.Strikeouts
	}
	return out
}

// AggregatePitching sums counting stats across lines. Innings are summed in
// outs so thirds never drift.
func AggregatePitching(lines ...PitchingLine) PitchingLine {
	var out PitchingLine
	outs := 0
	for _, l := range lines {
		outs += l.Innings.Outs()
		out.EarnedRuns += l.EarnedRuns
		out.Hits += l.Hits
		out.Walks += l.Walks
		out.Strikeouts += l.Strikeouts
		out.HitByPitch += l.HitByPitch
	}
	out.Innings = Innings(float64(outs) / 3)
	return out
}

// Round returns a display copy: three places for rate stats.
func (d DerivedBatting) Round() DerivedBatting {
	return DerivedBatting{
		AVG:   Round(d.AVG, 3),
		OBP:   Round(d.OBP, 3),
		SLG:   Round(d.SLG, 3),
		ISO:   Round(d.ISO, 3),
		BABIP: Round(d.BABIP, 3),
		OPS:   Round(d.OPS, 3),
	}
}

// Round returns a display copy: two places for ERA and WHIP, one for per-nine rates.
func (d DerivedPitching) Round() DerivedPitching {
	return DerivedPitching{
		ERA:  Round(d.ERA, 2),
		WHIP: Round(d.WHIP, 2),
		K9:   Round(d.K9, 1),
		BB9:  Round(d.BB9, 1),
	}
}

// Round rounds half away from zero to the given number of places.
// Non-finite input becomes 0.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
