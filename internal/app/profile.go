package service

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/okian/mlbedge/internal/adapters/mlbapi"
	"github.com/okian/mlbedge/internal/domain/model"
	"github.com/okian/mlbedge/internal/domain/stats"
	"github.com/okian/mlbedge/pkg/logger"
)

// statChangeEpsilon ignores movement below display precision.
const statChangeEpsilon = 0.0005

// TeamProfile is a team's season view plus what moved since the last fetch.
type TeamProfile struct {
	Stats    model.TeamSeasonStats `json:"stats"`
	Changes  []model.StatChange    `json:"changes,omitempty"`
	Warnings []string              `json:"warnings,omitempty"`
}

// PitcherReport is a pitcher profile with non-fatal fetch warnings.
type PitcherReport struct {
	Profile  model.PitcherProfile `json:"profile"`
	Warnings []string             `json:"warnings,omitempty"`
}

// warnings collects non-fatal problems from concurrent fetches.
type warnings struct {
	mu   sync.Mutex
	list []string
}

func (w *warnings) add(format string, args ...interface{}) {
	w.mu.Lock()
	w.list = append(w.list, fmt.Sprintf(format, args...))
	w.mu.Unlock()
}

func (w *warnings) get() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.list...)
}

// TeamProfile fetches season stats and the active roster concurrently, then
// the season line of every rostered pitcher with bounded fan-out.
func (s *Service) TeamProfile(ctx context.Context, teamID int) (TeamProfile, error) {
	if err := s.readyTeam(teamID); err != nil {
		return TeamProfile{}, err
	}
	team, _ := model.LookupTeam(teamID)
	var warn warnings

	var (
		lines  mlbapi.TeamStatLines
		roster []mlbapi.Player
		g      errgroup.Group
	)
	g.Go(func() error {
		var err error
		lines, err = s.client.TeamStats(ctx, teamID)
		if fatal(err) {
			return err
		}
		if err != nil {
			warn.add("Season stats for %s are unavailable", team.Name)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		roster, err = s.client.ActiveRoster(ctx, teamID)
		if fatal(err) {
			return err
		}
		if err != nil {
			warn.add("Roster for %s is unavailable", team.Name)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return TeamProfile{}, err
	}

	pitchers, err := s.pitcherSummaries(ctx, mlbapi.Pitchers(roster), &warn)
	if err != nil {
		return TeamProfile{}, err
	}

	current := model.TeamSeasonStats{
		Team:      team,
		Batting:   lines.Batting,
		Pitching:  lines.Pitching,
		Pitchers:  pitchers,
		FetchedAt: s.now(),
	}
	profile := TeamProfile{Stats: current, Warnings: warn.get()}
	if !lines.BattingLine.Empty() || lines.Batting != (stats.DerivedBatting{}) {
		profile.Changes = s.trackChanges(ctx, current)
	}
	return profile, nil
}

func (s *Service) pitcherSummaries(ctx context.Context, pitchers []mlbapi.Player, warn *warnings) ([]model.PitcherSummary, error) {
	out := make([]model.PitcherSummary, len(pitchers))
	var g errgroup.Group
	g.SetLimit(s.fanoutLimit)
	for i, p := range pitchers {
		out[i] = model.PitcherSummary{ID: p.ID, Name: p.Name, Position: p.Position}
		g.Go(func() error {
			season, ip, err := s.client.PitcherSeason(ctx, p.ID)
			if fatal(err) {
				return err
			}
			if err != nil {
				warn.add("Season stats for pitcher %s are unavailable", p.Name)
				return nil
			}
			out[i].Season = season
			out[i].Innings = ip
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// trackChanges stores current as the team's latest snapshot and records the
// rate stats that moved since the previous one.
func (s *Service) trackChanges(ctx context.Context, current model.TeamSeasonStats) []model.StatChange {
	prev, ok := s.history.SwapTeamStats(ctx, current)
	if !ok {
		return nil
	}
	fields := []struct {
		side, name string
		before     float64
		after      float64
	}{
		{"batting", "avg", prev.Batting.AVG, current.Batting.AVG},
		{"batting", "obp", prev.Batting.OBP, current.Batting.OBP},
		{"batting", "slg", prev.Batting.SLG, current.Batting.SLG},
		{"batting", "ops", prev.Batting.OPS, current.Batting.OPS},
		{"pitching", "era", prev.Pitching.ERA, current.Pitching.ERA},
		{"pitching", "whip", prev.Pitching.WHIP, current.Pitching.WHIP},
		{"pitching", "k9", prev.Pitching.K9, current.Pitching.K9},
	}

	var changes []model.StatChange
	for _, f := range fields {
		delta := f.after - f.before
		if math.Abs(delta) < statChangeEpsilon {
			continue
		}
		changes = append(changes, model.StatChange{
			TeamID:   current.Team.ID,
			Side:     f.side,
			Field:    f.name,
			Previous: stats.Round(f.before, 3),
			Current:  stats.Round(f.after, 3),
			Delta:    stats.Round(delta, 3),
			At:       current.FetchedAt,
		})
	}
	if len(changes) == 0 {
		return nil
	}
	if err := s.history.AddStatChanges(ctx, changes); err != nil {
		s.logger.Debug(ctx, "stat changes not recorded", logger.Error(err))
	}
	s.recordUpdate(ctx, "Stats updated", fmt.Sprintf("%s: %d rate stats changed", current.Team.Name, len(changes)))
	return changes
}

// PitcherProfile combines season rates with the aggregate of the most
// recent starts.
func (s *Service) PitcherProfile(ctx context.Context, pitcherID int) (PitcherReport, error) {
	if err := s.ready(); err != nil {
		return PitcherReport{}, err
	}
	if pitcherID <= 0 {
		return PitcherReport{}, validationError([]string{"Pitcher must be selected"})
	}
	return s.pitcherProfile(ctx, pitcherID)
}

func (s *Service) pitcherProfile(ctx context.Context, pitcherID int) (PitcherReport, error) {
	var (
		warn   warnings
		season stats.DerivedPitching
		recent []model.GameLine
		g      errgroup.Group
	)
	g.Go(func() error {
		var err error
		season, _, err = s.client.PitcherSeason(ctx, pitcherID)
		if fatal(err) {
			return err
		}
		if err != nil {
			warn.add("Season stats for pitcher %d are unavailable", pitcherID)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		recent, err = s.client.PitcherGameLog(ctx, pitcherID, s.recentStarts)
		if fatal(err) {
			return err
		}
		if err != nil {
			warn.add("Game log for pitcher %d is unavailable", pitcherID)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return PitcherReport{}, err
	}

	lines := make([]stats.PitchingLine, len(recent))
	for i, gl := range recent {
		lines[i] = gl.Line
	}
	profile := model.PitcherProfile{
		ID:              pitcherID,
		Season:          season,
		Recent:          recent,
		RecentAggregate: stats.DerivePitching(stats.AggregatePitching(lines...)),
	}
	if profile.Recent == nil {
		profile.Recent = []model.GameLine{}
	}
	return PitcherReport{Profile: profile, Warnings: warn.get()}, nil
}
