// Package mlbapi is a typed client over the MLB stats endpoints the analyzer
// consumes. Every call goes through the resilient fetcher; exhausted calls
// return empty typed values together with the error.
package mlbapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/okian/mlbedge/internal/adapters/fetcher"
	"github.com/okian/mlbedge/internal/domain/model"
	"github.com/okian/mlbedge/internal/domain/stats"
	"github.com/okian/mlbedge/pkg/logger"
)

const (
	defaultSeason        = 2024
	defaultBullpenGames  = 3
	defaultHeadToHeadMax = 5

	groupHitting  = "hitting"
	groupPitching = "pitching"

	// PitcherPositionCode identifies pitchers on a roster.
	PitcherPositionCode = "1"
)

// Fetcher is the transport-facing dependency; *fetcher.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, params url.Values, fallback []byte) ([]byte, error)
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithSeason sets the season used by season-scoped queries.
func WithSeason(season int) Option {
	return func(c *Client) {
		if season > 0 {
			c.season = season
		}
	}
}

// WithBullpenGames sets how many recent games the bullpen query covers.
func WithBullpenGames(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.bullpenGames = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client exposes typed endpoint wrappers.
type Client struct {
	fetcher      Fetcher
	season       int
	bullpenGames int
	logger       logger.Logger
}

// NewClient creates a client over f.
func NewClient(f Fetcher, opts ...Option) *Client {
	c := &Client{
		fetcher:      f,
		season:       defaultSeason,
		bullpenGames: defaultBullpenGames,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Season returns the configured season.
func (c *Client) Season() int { return c.season }

// Player is one active roster entry.
type Player struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Jersey       string `json:"jersey,omitempty"`
	PositionCode string `json:"position_code"`
	Position     string `json:"position"`
}

// IsPitcher reports whether the roster entry is a pitcher.
func (p Player) IsPitcher() bool { return p.PositionCode == PitcherPositionCode }

// Pitchers filters a roster down to pitchers, preserving order.
func Pitchers(roster []Player) []Player {
	out := make([]Player, 0, len(roster))
	for _, p := range roster {
		if p.IsPitcher() {
			out = append(out, p)
		}
	}
	return out
}

// TeamStatLines holds a team's season counting lines and derived rates.
type TeamStatLines struct {
	BattingLine  stats.BattingLine
	PitchingLine stats.PitchingLine
	Batting      stats.DerivedBatting
	Pitching     stats.DerivedPitching
}

// Teams lists the league's teams.
func (c *Client) Teams(ctx context.Context) ([]model.TeamIdentity, error) {
	var p teamsPayload
	err := c.get(ctx, "teams", url.Values{"sportId": {"1"}}, []byte(`{"teams":[]}`), &p)
	out := make([]model.TeamIdentity, 0, len(p.Teams))
	for _, t := range p.Teams {
		out = append(out, model.TeamIdentity{ID: t.ID, Name: t.Name, Abbreviation: t.Abbreviation})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// TeamStats returns season hitting and pitching for a team. A non-empty
// payload lacking either group is ErrDataShape.
func (c *Client) TeamStats(ctx context.Context, teamID int) (TeamStatLines, error) {
	var p statsPayload
	params := url.Values{
		"stats":  {"season"},
		"group":  {groupHitting + "," + groupPitching},
		"season": {c.seasonParam()},
	}
	err := c.get(ctx, fmt.Sprintf("teams/%d/stats", teamID), params, nil, &p)
	if err != nil && !errors.Is(err, fetcher.ErrExhausted) {
		return TeamStatLines{}, err
	}
	if len(p.Stats) == 0 {
		return TeamStatLines{}, err
	}

	hitting, ok := firstSplit(p.Stats, groupHitting)
	if !ok {
		return TeamStatLines{}, fmt.Errorf("%w: team %d has no %s group", ErrDataShape, teamID, groupHitting)
	}
	pitching, ok := firstSplit(p.Stats, groupPitching)
	if !ok {
		return TeamStatLines{}, fmt.Errorf("%w: team %d has no %s group", ErrDataShape, teamID, groupPitching)
	}

	var out TeamStatLines
	var rb reportedBatting
	if derr := decodeStat(hitting.Stat, &out.BattingLine, &rb); derr != nil {
		return TeamStatLines{}, derr
	}
	var rp reportedPitching
	if derr := decodeStat(pitching.Stat, &out.PitchingLine, &rp); derr != nil {
		return TeamStatLines{}, derr
	}
	out.Batting = stats.DeriveBattingOr(out.BattingLine, rb.derived())
	out.Pitching = stats.DerivePitchingOr(out.PitchingLine, rp.derived())
	return out, err
}

// ActiveRoster returns the active roster. Use Pitchers to keep only arms.
func (c *Client) ActiveRoster(ctx context.Context, teamID int) ([]Player, error) {
	var p rosterPayload
	err := c.get(ctx, fmt.Sprintf("teams/%d/roster", teamID), url.Values{"rosterType": {"active"}}, []byte(`{"roster":[]}`), &p)
	out := make([]Player, 0, len(p.Roster))
	for _, r := range p.Roster {
		out = append(out, Player{
			ID:           r.Person.ID,
			Name:         r.Person.FullName,
			Jersey:       r.JerseyNumber,
			PositionCode: r.Position.Code,
			Position:     r.Position.Abbreviation,
		})
	}
	return out, err
}

// PitcherSeason returns a pitcher's season rates and innings.
func (c *Client) PitcherSeason(ctx context.Context, pitcherID int) (stats.DerivedPitching, stats.Innings, error) {
	var p statsPayload
	params := url.Values{"stats": {"season"}, "group": {groupPitching}, "season": {c.seasonParam()}}
	err := c.get(ctx, fmt.Sprintf("people/%d/stats", pitcherID), params, nil, &p)
	if err != nil && !errors.Is(err, fetcher.ErrExhausted) {
		return stats.DerivedPitching{}, 0, err
	}
	s, ok := firstSplit(p.Stats, groupPitching)
	if !ok {
		if len(p.Stats) > 0 {
			return stats.DerivedPitching{}, 0, fmt.Errorf("%w: pitcher %d has no %s group", ErrDataShape, pitcherID, groupPitching)
		}
		return stats.DerivedPitching{}, 0, err
	}
	var line stats.PitchingLine
	var rp reportedPitching
	if derr := decodeStat(s.Stat, &line, &rp); derr != nil {
		return stats.DerivedPitching{}, 0, derr
	}
	return stats.DerivePitchingOr(line, rp.derived()), line.Innings, err
}

// PitcherGameLog returns the most recent n appearances, newest first. A
// non-positive n returns every appearance.
func (c *Client) PitcherGameLog(ctx context.Context, pitcherID, n int) ([]model.GameLine, error) {
	var p statsPayload
	params := url.Values{"stats": {"gameLog"}, "group": {groupPitching}, "season": {c.seasonParam()}}
	err := c.get(ctx, fmt.Sprintf("people/%d/stats", pitcherID), params, nil, &p)
	if err != nil && !errors.Is(err, fetcher.ErrExhausted) {
		return nil, err
	}

	var games []model.GameLine
	for _, g := range p.Stats {
		if g.Group.DisplayName != "" && g.Group.DisplayName != groupPitching {
			continue
		}
		for _, s := range g.Splits {
			var line stats.PitchingLine
			if derr := decodeStat(s.Stat, &line, nil); derr != nil {
				return nil, derr
			}
			games = append(games, model.GameLine{Date: s.Date, Opponent: s.Opponent.Name, Line: line})
		}
	}
	sort.SliceStable(games, func(i, j int) bool { return games[i].Date > games[j].Date })
	if n > 0 && len(games) > n {
		games = games[:n]
	}
	return games, err
}

// Venue returns a team's ballpark. Unknown attributes are left as "N/A".
func (c *Client) Venue(ctx context.Context, teamID int) (model.Ballpark, error) {
	var p venuePayload
	err := c.get(ctx, fmt.Sprintf("teams/%d/venue", teamID), nil, []byte(`{"venue":{},"dimensions":{}}`), &p)
	if err != nil && !errors.Is(err, fetcher.ErrExhausted) {
		return model.UnknownBallpark(), err
	}

	v := p.Venue
	bp := model.UnknownBallpark()
	if v.Name != "" {
		bp.Name = v.Name
	}
	bp.Dimensions = model.BallparkDimensions{
		LeftField:   firstKnown(v.Dimensions.LeftField, v.FieldInfo.LeftLine),
		CenterField: firstKnown(v.Dimensions.CenterField, v.FieldInfo.Center),
		RightField:  firstKnown(v.Dimensions.RightField, v.FieldInfo.RightLine),
	}
	if s := firstNonEmpty(v.FieldInfo.Surface, v.FieldInfo.TurfType); s != "" {
		bp.Surface = s
	}
	if v.FieldInfo.RoofType != "" {
		bp.Roof = v.FieldInfo.RoofType
	}
	bp.Factors = model.EstimateParkFactors(bp.Dimensions)
	return bp, err
}

// Injuries returns a team's injury report.
func (c *Client) Injuries(ctx context.Context, teamID int) ([]model.Injury, error) {
	var p injuriesPayload
	err := c.get(ctx, fmt.Sprintf("teams/%d/roster/injuries", teamID), nil, []byte(`{"injuries":[]}`), &p)
	out := make([]model.Injury, 0, len(p.Injuries))
	for _, in := range p.Injuries {
		name := in.Player.FullName
		if name == "" {
			name = "Unknown"
		}
		status := in.Status
		if status == "" {
			status = "Unknown"
		}
		out = append(out, model.Injury{
			PlayerID:    in.Player.ID,
			Player:      name,
			Position:    in.Player.PrimaryPosition.Name,
			Status:      status,
			Description: in.Description,
			Date:        in.Date,
		})
	}
	return out, err
}

// HeadToHead summarises completed games between team and opponent this
// season, from team's perspective. LastGames is newest first.
func (c *Client) HeadToHead(ctx context.Context, teamID, opponentID int) (model.HeadToHead, error) {
	var p schedulePayload
	params := url.Values{
		"sportId":  {"1"},
		"teamId":   {strconv.Itoa(teamID)},
		"opponent": {strconv.Itoa(opponentID)},
		"season":   {c.seasonParam()},
	}
	err := c.get(ctx, "schedule/games", params, []byte(`{"dates":[]}`), &p)

	h := model.HeadToHead{TeamID: teamID, OpponentID: opponentID, LastGames: []model.GameResult{}}
	var played []model.GameResult
	for _, d := range p.Dates {
		for _, g := range d.Games {
			if g.Status.AbstractGameState != "" && g.Status.AbstractGameState != "Final" {
				continue
			}
			r := model.GameResult{
				GamePK:    g.GamePK,
				Date:      d.Date,
				HomeTeam:  g.Teams.Home.Team.Name,
				AwayTeam:  g.Teams.Away.Team.Name,
				HomeScore: g.Teams.Home.Score,
				AwayScore: g.Teams.Away.Score,
			}
			switch teamID {
			case g.Teams.Home.Team.ID:
				r.Won = r.HomeScore > r.AwayScore
			case g.Teams.Away.Team.ID:
				r.Won = r.AwayScore > r.HomeScore
			default:
				continue
			}
			if r.Won {
				h.Wins++
			} else {
				h.Losses++
			}
			played = append(played, r)
		}
	}
	sort.SliceStable(played, func(i, j int) bool { return played[i].Date > played[j].Date })
	if len(played) > defaultHeadToHeadMax {
		played = played[:defaultHeadToHeadMax]
	}
	h.LastGames = append(h.LastGames, played...)
	return h, err
}

// Bullpen returns relievers' workload over the recent games window.
func (c *Client) Bullpen(ctx context.Context, teamID int) ([]model.BullpenArm, error) {
	var p statsPayload
	params := url.Values{
		"group":     {"bullpen"},
		"season":    {c.seasonParam()},
		"gameType":  {"R"},
		"lastGames": {strconv.Itoa(c.bullpenGames)},
	}
	err := c.get(ctx, fmt.Sprintf("teams/%d/stats/pitching", teamID), params, nil, &p)
	if err != nil && !errors.Is(err, fetcher.ErrExhausted) {
		return nil, err
	}

	arms := []model.BullpenArm{}
	for _, g := range p.Stats {
		for _, s := range g.Splits {
			var w workload
			if len(s.Stat) > 0 {
				if derr := json.Unmarshal(s.Stat, &w); derr != nil {
					return nil, fmt.Errorf("%w: bullpen stat: %w", ErrDataShape, derr)
				}
			}
			fatigue := model.ClassifyFatigue(w.NumberOfPitches)
			arms = append(arms, model.BullpenArm{
				ID:          s.Player.ID,
				Name:        s.Player.FullName,
				Appearances: w.GamesPlayed,
				Pitches:     w.NumberOfPitches,
				Innings:     w.InningsPitched,
				Fatigue:     fatigue,
				Available:   fatigue.Available(),
			})
		}
	}
	return arms, err
}

// get fetches endpoint and decodes it into out. Exhausted fetches decode the
// fallback and still return the error.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, fallback []byte, out interface{}) error {
	body, err := c.fetcher.Fetch(ctx, endpoint, params, fallback)
	if err != nil && !errors.Is(err, fetcher.ErrExhausted) {
		if errors.Is(err, fetcher.ErrInvalidPayload) {
			return fmt.Errorf("%w: %w", ErrDataShape, err)
		}
		return err
	}
	if err != nil {
		c.logger.Warn(ctx, "serving fallback payload", logger.String("endpoint", endpoint), logger.Error(err))
	}
	if derr := json.Unmarshal(body, out); derr != nil {
		return fmt.Errorf("%w: %s: %w", ErrDataShape, endpoint, derr)
	}
	return err
}

func (c *Client) seasonParam() string { return strconv.Itoa(c.season) }

func firstSplit(groups []statGroup, name string) (split, bool) {
	for _, g := range groups {
		if g.Group.DisplayName == name && len(g.Splits) > 0 {
			return g.Splits[0], true
		}
	}
	return split{}, false
}

func decodeStat(raw json.RawMessage, line, reported interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, line); err != nil {
		return fmt.Errorf("%w: stat: %w", ErrDataShape, err)
	}
	if reported == nil {
		return nil
	}
	if err := json.Unmarshal(raw, reported); err != nil {
		return fmt.Errorf("%w: stat: %w", ErrDataShape, err)
	}
	return nil
}

func (r reportedBatting) derived() stats.DerivedBatting {
	return stats.DerivedBatting{
		AVG:   float64(r.AVG),
		OBP:   float64(r.OBP),
		SLG:   float64(r.SLG),
		BABIP: float64(r.BABIP),
		OPS:   float64(r.OPS),
	}
}

func (r reportedPitching) derived() stats.DerivedPitching {
	return stats.DerivedPitching{
		ERA:  float64(r.ERA),
		WHIP: float64(r.WHIP),
		K9:   float64(r.K9),
		BB9:  float64(r.BB9),
	}
}

func firstKnown(ds ...model.Distance) model.Distance {
	for _, d := range ds {
		if d.Known() {
			return d
		}
	}
	return 0
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
