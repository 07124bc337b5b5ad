package model

import (
	"time"

	"github.com/okian/mlbedge/internal/domain/stats"
	"github.com/okian/mlbedge/internal/domain/types"
)

// MatchupProjection is the modelled outcome of a game.
type MatchupProjection struct {
	HomeExpectedRuns float64 `json:"home_expected_runs"`
	AwayExpectedRuns float64 `json:"away_expected_runs"`
	// ProjectedSpread is home minus away.
	ProjectedSpread float64 `json:"projected_spread"`
	ProjectedTotal  float64 `json:"projected_total"`
}

// ValueRecommendation is one structured note. Rendering text is left to callers.
type ValueRecommendation struct {
	Kind             types.RecommendationKind `json:"kind"`
	Side             types.Side               `json:"side,omitempty"`
	Direction        types.Direction          `json:"direction,omitempty"`
	Line             float64                  `json:"line,omitempty"`
	Magnitude        float64                  `json:"magnitude,omitempty"`
	Weather          types.Weather            `json:"weather,omitempty"`
	Factor           *types.WeatherFactor     `json:"factor,omitempty"`
	WeatherSupported bool                     `json:"weather_supported,omitempty"`
}

// ValueReport is the full output of the value engine.
type ValueReport struct {
	Projection      MatchupProjection     `json:"projection"`
	SpreadValue     float64               `json:"spread_value"`
	TotalValue      float64               `json:"total_value"`
	Recommendations []ValueRecommendation `json:"recommendations"`
	Confidence      types.Confidence      `json:"confidence"`
}

// Rounded returns a display copy with two decimals on every number.
func (r ValueReport) Rounded() ValueReport {
	out := r
	out.Projection = MatchupProjection{
		HomeExpectedRuns: stats.Round(r.Projection.HomeExpectedRuns, 2),
		AwayExpectedRuns: stats.Round(r.Projection.AwayExpectedRuns, 2),
		ProjectedSpread:  stats.Round(r.Projection.ProjectedSpread, 2),
		ProjectedTotal:   stats.Round(r.Projection.ProjectedTotal, 2),
	}
	out.SpreadValue = stats.Round(r.SpreadValue, 2)
	out.TotalValue = stats.Round(r.TotalValue, 2)
	out.Recommendations = make([]ValueRecommendation, len(r.Recommendations))
	for i, rec := range r.Recommendations {
		rec.Magnitude = stats.Round(rec.Magnitude, 2)
		out.Recommendations[i] = rec
	}
	return out
}

// Injury is one entry of a team's injury report.
type Injury struct {
	PlayerID    int    `json:"player_id"`
	Player      string `json:"player"`
	Position    string `json:"position,omitempty"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

// BullpenArm is a reliever's recent workload.
type BullpenArm struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	Appearances int           `json:"appearances"`
	Pitches     int           `json:"pitches"`
	Innings     stats.Innings `json:"innings"`
	Fatigue     types.Fatigue `json:"fatigue"`
	Available   bool          `json:"available"`
}

// Pitch-count bands over the recent window.
const (
	fatigueModeratePitches = 25
	fatigueTiredPitches    = 50
	fatigueExhaustPitches  = 75
)

// ClassifyFatigue grades a reliever by pitches thrown in the recent window.
func ClassifyFatigue(pitches int) types.Fatigue {
	switch {
	case pitches < fatigueModeratePitches:
		return types.FatigueFresh
	case pitches < fatigueTiredPitches:
		return types.FatigueModerate
	case pitches < fatigueExhaustPitches:
		return types.FatigueTired
	default:
		return types.FatigueExhausted
	}
}

// GameResult is one completed head-to-head game.
type GameResult struct {
	GamePK    int    `json:"game_pk"`
	Date      string `json:"date"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
	// Won is from the requesting team's perspective.
	Won bool `json:"won"`
}

// HeadToHead is a season series summary.
type HeadToHead struct {
	TeamID     int          `json:"team_id"`
	OpponentID int          `json:"opponent_id"`
	Wins       int          `json:"wins"`
	Losses     int          `json:"losses"`
	LastGames  []GameResult `json:"last_games"`
}

// StatChange records a field that moved between two fetches of a team.
type StatChange struct {
	TeamID   int       `json:"team_id"`
	Side     string    `json:"side,omitempty"`
	Field    string    `json:"field"`
	Previous float64   `json:"previous"`
	Current  float64   `json:"current"`
	Delta    float64   `json:"delta"`
	At       time.Time `json:"at"`
}

// UpdateEntry is a human-readable activity record.
type UpdateEntry struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// SideSummary is what an analysis saw for one team.
type SideSummary struct {
	Team     TeamIdentity          `json:"team"`
	Batting  stats.DerivedBatting  `json:"batting"`
	Starter  stats.DerivedPitching `json:"starter"`
	Injuries []Injury              `json:"injuries,omitempty"`
	Bullpen  []BullpenArm          `json:"bullpen,omitempty"`
}

// AnalysisResult is a completed matchup analysis.
type AnalysisResult struct {
	ID           string        `json:"id"`
	Home         SideSummary   `json:"home"`
	Away         SideSummary   `json:"away"`
	MarketSpread float64       `json:"market_spread"`
	MarketTotal  float64       `json:"market_total"`
	Weather      types.Weather `json:"weather"`
	Ballpark     Ballpark      `json:"ballpark"`
	HeadToHead   *HeadToHead   `json:"head_to_head,omitempty"`
	Report       ValueReport   `json:"report"`
	Warnings     []string      `json:"warnings,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}
