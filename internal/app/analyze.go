package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/mlbedge/internal/adapters/mlbapi"
	"github.com/okian/mlbedge/internal/domain/model"
	"github.com/okian/mlbedge/internal/domain/projection"
	"github.com/okian/mlbedge/internal/domain/stats"
	"github.com/okian/mlbedge/internal/domain/types"
	"github.com/okian/mlbedge/internal/domain/valuation"
	"github.com/okian/mlbedge/pkg/logger"
	"github.com/okian/mlbedge/pkg/metrics"
)

// Accepted market line ranges.
const (
	minSpread = -20.0
	maxSpread = 20.0
	minTotal  = 5.0
	maxTotal  = 20.0
)

// AnalyzeRequest selects a matchup and the market to compare it with.
// Pitcher IDs are optional; without one the team's staff line is used.
type AnalyzeRequest struct {
	HomeTeamID    int     `json:"home_team_id"`
	AwayTeamID    int     `json:"away_team_id"`
	HomePitcherID int     `json:"home_pitcher_id,omitempty"`
	AwayPitcherID int     `json:"away_pitcher_id,omitempty"`
	MarketSpread  float64 `json:"market_spread"`
	MarketTotal   float64 `json:"market_total"`
	Weather       string  `json:"weather,omitempty"`
}

// Validate checks the request before any network call.
func (r AnalyzeRequest) Validate() (types.Weather, error) {
	problems := teamProblems(r.HomeTeamID, r.AwayTeamID)
	if !inRange(r.MarketSpread, minSpread, maxSpread) {
		problems = append(problems, fmt.Sprintf("Spread must be a number between %g and %g", minSpread, maxSpread))
	}
	if !inRange(r.MarketTotal, minTotal, maxTotal) {
		problems = append(problems, fmt.Sprintf("Total must be a number between %g and %g", minTotal, maxTotal))
	}
	w, err := types.ParseWeather(r.Weather)
	if err != nil {
		problems = append(problems, fmt.Sprintf("Unknown weather %q", r.Weather))
	}
	return w, validationError(problems)
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}

// sideData is everything fetched for one team of a matchup.
type sideData struct {
	team     model.TeamIdentity
	label    string
	lines    mlbapi.TeamStatLines
	hasStats bool
	injuries []model.Injury
	bullpen  []model.BullpenArm
	starter  *model.PitcherProfile
}

// Analyze runs a full matchup analysis. Every independent fetch runs
// concurrently; the engine waits for all of them. Exhausted fetches become
// warnings while rate-limit and data-shape errors abort.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (model.AnalysisResult, error) {
	if err := s.ready(); err != nil {
		return model.AnalysisResult{}, err
	}
	weather, err := req.Validate()
	if err != nil {
		metrics.RecordAnalysis("invalid")
		return model.AnalysisResult{}, err
	}

	start := s.now()
	home := &sideData{label: "home"}
	away := &sideData{label: "away"}
	home.team, _ = model.LookupTeam(req.HomeTeamID)
	away.team, _ = model.LookupTeam(req.AwayTeamID)

	var (
		warn     warnings
		ballpark = model.UnknownBallpark()
		h2h      model.HeadToHead
		h2hOK    bool
		g        errgroup.Group
	)
	s.fetchSide(ctx, &g, &warn, home, req.HomePitcherID)
	s.fetchSide(ctx, &g, &warn, away, req.AwayPitcherID)
	g.Go(func() error {
		bp, err := s.client.Venue(ctx, home.team.ID)
		if fatal(err) {
			return err
		}
		if err != nil {
			warn.add("Ballpark details for %s are unavailable", home.team.Name)
		}
		ballpark = bp
		return nil
	})
	g.Go(func() error {
		h, err := s.client.HeadToHead(ctx, home.team.ID, away.team.ID)
		if fatal(err) {
			return err
		}
		if err != nil {
			warn.add("Head-to-head record is unavailable")
			return nil
		}
		h2h, h2hOK = h, true
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.RecordAnalysis("error")
		s.logger.Warn(ctx, "analysis aborted",
			logger.Int("home", home.team.ID),
			logger.Int("away", away.team.ID),
			logger.Error(err),
		)
		return model.AnalysisResult{}, err
	}

	homeIn, homeSummary := s.sideInput(home, &warn)
	awayIn, awaySummary := s.sideInput(away, &warn)
	report := s.engine.FindValue(ctx, valuation.Matchup{
		Home:         homeIn,
		Away:         awayIn,
		MarketSpread: req.MarketSpread,
		MarketTotal:  req.MarketTotal,
		Weather:      weather,
	})

	result := model.AnalysisResult{
		ID:           s.newID(),
		Home:         homeSummary,
		Away:         awaySummary,
		MarketSpread: req.MarketSpread,
		MarketTotal:  req.MarketTotal,
		Weather:      weather,
		Ballpark:     ballpark,
		Report:       report.Rounded(),
		Warnings:     warn.get(),
		CreatedAt:    s.now(),
	}
	if h2hOK {
		result.HeadToHead = &h2h
	}

	if err := s.history.SaveAnalysis(ctx, result); err != nil {
		s.logger.Debug(ctx, "analysis not recorded", logger.Error(err))
	}
	s.recordUpdate(ctx, "Matchup analyzed", fmt.Sprintf("%s at %s: %d recommendations",
		away.team.Name, home.team.Name, len(result.Report.Recommendations)))

	took := s.now().Sub(start)
	metrics.RecordAnalysis("ok")
	metrics.RecordAnalysisLatency(float64(took.Milliseconds()))
	s.logger.Info(ctx, "matchup analyzed",
		logger.String("id", result.ID),
		logger.String("home", home.team.Name),
		logger.String("away", away.team.Name),
		logger.Int("warnings", len(result.Warnings)),
		logger.Duration("took", took.Round(time.Millisecond)),
	)
	return result, nil
}

func (s *Service) fetchSide(ctx context.Context, g *errgroup.Group, warn *warnings, side *sideData, pitcherID int) {
	g.Go(func() error {
		lines, err := s.client.TeamStats(ctx, side.team.ID)
		if fatal(err) {
			return err
		}
		if err != nil {
			warn.add("Season stats for %s are unavailable", side.team.Name)
			return nil
		}
		side.lines = lines
		side.hasStats = lines.Batting != (stats.DerivedBatting{})
		return nil
	})
	g.Go(func() error {
		in, err := s.client.Injuries(ctx, side.team.ID)
		if fatal(err) {
			return err
		}
		if err != nil {
			warn.add("Injury report for %s is unavailable", side.team.Name)
		}
		side.injuries = in
		return nil
	})
	g.Go(func() error {
		arms, err := s.client.Bullpen(ctx, side.team.ID)
		if fatal(err) {
			return err
		}
		if err != nil {
			warn.add("Bullpen usage for %s is unavailable", side.team.Name)
		}
		side.bullpen = arms
		return nil
	})
	if pitcherID <= 0 {
		return
	}
	g.Go(func() error {
		report, err := s.pitcherProfile(ctx, pitcherID)
		if err != nil {
			return err
		}
		for _, w := range report.Warnings {
			warn.add("%s", w)
		}
		side.starter = &report.Profile
		return nil
	})
}

// sideInput builds the projector input for one side. A side without season
// stats yields nil so the engine reports insufficient data.
func (s *Service) sideInput(side *sideData, warn *warnings) (*projection.SideInput, model.SideSummary) {
	summary := model.SideSummary{
		Team:     side.team,
		Injuries: side.injuries,
		Bullpen:  side.bullpen,
	}

	var starter projection.Starter
	switch {
	case side.starter != nil && hasPitching(*side.starter):
		starter = projection.StarterFrom(side.starter.Starter())
	default:
		if side.starter != nil {
			warn.add("No pitching data for the %s starter; using the team staff line", side.label)
		}
		starter = projection.StarterFallback(side.lines.Pitching)
	}
	summary.Starter = stats.DerivedPitching{ERA: starter.ERA, WHIP: starter.WHIP, K9: starter.K9}.Round()

	if !side.hasStats {
		return nil, summary
	}
	batting := side.lines.Batting.WithOPS()
	summary.Batting = batting.Round()
	return &projection.SideInput{Batting: batting, Starter: starter}, summary
}

func hasPitching(p model.PitcherProfile) bool {
	return len(p.Recent) > 0 || p.Season != (stats.DerivedPitching{})
}
