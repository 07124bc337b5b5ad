// Package service provides the analyzer service that implements the
// dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/mlbedge/internal/adapters/cache"
	"github.com/okian/mlbedge/internal/adapters/fetcher"
	"github.com/okian/mlbedge/internal/adapters/mlbapi"
	"github.com/okian/mlbedge/internal/adapters/ratelimit"
	"github.com/okian/mlbedge/internal/adapters/repository"
	"github.com/okian/mlbedge/internal/adapters/transport"
	"github.com/okian/mlbedge/internal/config"
	"github.com/okian/mlbedge/internal/domain/model"
	"github.com/okian/mlbedge/internal/domain/projection"
	"github.com/okian/mlbedge/internal/domain/stats"
	"github.com/okian/mlbedge/internal/domain/valuation"
	"github.com/okian/mlbedge/pkg/logger"
)

// Client is the stats API surface the service needs; *mlbapi.Client
// satisfies it.
type Client interface {
	Teams(ctx context.Context) ([]model.TeamIdentity, error)
	TeamStats(ctx context.Context, teamID int) (mlbapi.TeamStatLines, error)
	ActiveRoster(ctx context.Context, teamID int) ([]mlbapi.Player, error)
	PitcherSeason(ctx context.Context, pitcherID int) (stats.DerivedPitching, stats.Innings, error)
	PitcherGameLog(ctx context.Context, pitcherID, n int) ([]model.GameLine, error)
	Venue(ctx context.Context, teamID int) (model.Ballpark, error)
	Injuries(ctx context.Context, teamID int) ([]model.Injury, error)
	HeadToHead(ctx context.Context, teamID, opponentID int) (model.HeadToHead, error)
	Bullpen(ctx context.Context, teamID int) ([]model.BullpenArm, error)
}

// Service implements the analyzer operations.
type Service struct {
	mu sync.RWMutex

	// Core components
	client  Client
	engine  *valuation.Engine
	history repository.Store

	// Built from config when the client is not injected.
	chain   *transport.Chain
	fetcher *fetcher.Fetcher

	// Configuration
	cfg          *config.Config
	fanoutLimit  int
	recentStarts int
	now          func() time.Time
	newID        func() string

	// State
	started bool
	teams   []model.TeamIdentity

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:   config.New(),
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fanoutLimit == 0 {
		s.fanoutLimit = s.cfg.FanoutLimit
	}
	if s.recentStarts == 0 {
		s.recentStarts = s.cfg.RecentStarts
	}
	return s
}

// Start wires every component that was not injected.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	s.logger.Info(ctx, "starting analyzer service...")

	if s.client == nil {
		s.buildDataAccess()
	}
	if s.engine == nil {
		s.engine = s.buildEngine()
	}
	if s.history == nil {
		s.history = repository.NewMemoryStore(repository.WithCapacity(s.cfg.HistorySize))
	}

	s.started = true
	s.logger.Info(ctx, "analyzer service started",
		logger.Int("season", s.cfg.Season),
		logger.Int("fanoutLimit", s.fanoutLimit),
		logger.Int("recentStarts", s.recentStarts),
	)
	return nil
}

func (s *Service) buildDataAccess() {
	cfg := s.cfg
	strategies := []transport.Strategy{transport.NewDirect(cfg.BaseURL)}
	if cfg.ProxyURL != "" {
		strategies = append(strategies, transport.NewProxy(cfg.ProxyURL, cfg.BaseURL))
	}
	s.chain = transport.NewChain(strategies,
		transport.WithTimeout(cfg.RequestTimeout()),
		transport.WithPacing(cfg.PacingRPS, cfg.PacingBurst),
		transport.WithBreaker(cfg.BreakerMinRequests, cfg.BreakerFailureRatio, cfg.BreakerOpen()),
		transport.WithLogger(s.logger.Named("transport")),
	)
	s.fetcher = fetcher.New(s.chain,
		fetcher.WithCache(cache.NewMemoryCache(cache.WithTTL(cfg.CacheTTL()), cache.WithMaxSize(cfg.CacheMaxSize))),
		fetcher.WithLimiter(ratelimit.New(ratelimit.WithLimit(cfg.RateLimitMax, cfg.RateLimitWindow()))),
		fetcher.WithRetry(cfg.RetryAttempts, cfg.RetryDelay()),
		fetcher.WithLogger(s.logger.Named("fetcher")),
	)
	s.client = mlbapi.NewClient(s.fetcher,
		mlbapi.WithSeason(cfg.Season),
		mlbapi.WithLogger(s.logger.Named("mlbapi")),
	)
}

func (s *Service) buildEngine() *valuation.Engine {
	cfg := s.cfg
	p := projection.NewProjector(
		projection.WithWeights(projection.Weights{
			OPS:       cfg.WeightOPS,
			WHIP:      cfg.WeightWHIP,
			BABIP:     cfg.WeightBABIP,
			ISO:       cfg.WeightISO,
			ERA:       cfg.WeightERA,
			K9:        cfg.WeightK9,
			LeagueERA: cfg.LeagueERA,
			LeagueK9:  cfg.LeagueK9,
			HRBump:    cfg.HRBump,
		}),
		projection.WithBounds(cfg.MinRuns, cfg.MaxRuns),
	)
	return valuation.NewEngine(
		valuation.WithProjector(p),
		valuation.WithThresholds(cfg.SpreadThreshold, cfg.TotalThreshold),
		valuation.WithLogger(s.logger.Named("valuation")),
	)
}

// Stop marks the service stopped. In-flight calls finish normally.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "analyzer service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Teams returns the league's teams, loading them on first use.
func (s *Service) Teams(ctx context.Context) ([]model.TeamIdentity, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	teams := s.teams
	s.mu.RUnlock()
	if len(teams) > 0 {
		return append([]model.TeamIdentity(nil), teams...), nil
	}
	return s.RefreshTeams(ctx)
}

// RefreshTeams reloads the team list. When the API has nothing to offer the
// static franchise list is used.
func (s *Service) RefreshTeams(ctx context.Context) ([]model.TeamIdentity, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	teams, err := s.client.Teams(ctx)
	if fatal(err) {
		return nil, err
	}
	source := "api"
	if len(teams) == 0 {
		s.logger.Warn(ctx, "team list unavailable, using static franchises", logger.Error(err))
		teams = model.Franchises()
		source = "static"
	}

	s.mu.Lock()
	s.teams = teams
	s.mu.Unlock()

	s.recordUpdate(ctx, "Teams refreshed", fmt.Sprintf("%d teams loaded from %s", len(teams), source))
	return append([]model.TeamIdentity(nil), teams...), nil
}

// Ballpark returns the home venue of a team. Exhausted fetches return the
// unknown ballpark together with the error.
func (s *Service) Ballpark(ctx context.Context, teamID int) (model.Ballpark, error) {
	if err := s.readyTeam(teamID); err != nil {
		return model.UnknownBallpark(), err
	}
	return s.client.Venue(ctx, teamID)
}

// Injuries returns a team's injury report.
func (s *Service) Injuries(ctx context.Context, teamID int) ([]model.Injury, error) {
	if err := s.readyTeam(teamID); err != nil {
		return nil, err
	}
	return s.client.Injuries(ctx, teamID)
}

// Bullpen returns a team's recent bullpen workload.
func (s *Service) Bullpen(ctx context.Context, teamID int) ([]model.BullpenArm, error) {
	if err := s.readyTeam(teamID); err != nil {
		return nil, err
	}
	return s.client.Bullpen(ctx, teamID)
}

// HeadToHead returns the season series from home's perspective.
func (s *Service) HeadToHead(ctx context.Context, homeID, awayID int) (model.HeadToHead, error) {
	if err := s.ready(); err != nil {
		return model.HeadToHead{}, err
	}
	if err := validationError(teamProblems(homeID, awayID)); err != nil {
		return model.HeadToHead{}, err
	}
	return s.client.HeadToHead(ctx, homeID, awayID)
}

// History is the recorded activity of the process.
type History struct {
	Updates     []model.UpdateEntry    `json:"updates"`
	StatChanges []model.StatChange     `json:"stat_changes"`
	Analyses    []model.AnalysisResult `json:"analyses"`
}

// History returns up to limit entries of each kind, newest first.
func (s *Service) History(ctx context.Context, limit int) (History, error) {
	if err := s.ready(); err != nil {
		return History{}, err
	}
	var h History
	var err error
	if h.Updates, err = s.history.Updates(ctx, limit); err != nil {
		return History{}, err
	}
	if h.StatChanges, err = s.history.StatChanges(ctx, limit); err != nil {
		return History{}, err
	}
	if h.Analyses, err = s.history.Analyses(ctx, limit); err != nil {
		return History{}, err
	}
	return h, nil
}

// Analysis returns a recorded analysis by ID.
func (s *Service) Analysis(ctx context.Context, id string) (model.AnalysisResult, error) {
	if err := s.ready(); err != nil {
		return model.AnalysisResult{}, err
	}
	return s.history.Analysis(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]interface{}{
		"started":      s.started,
		"season":       s.cfg.Season,
		"fanoutLimit":  s.fanoutLimit,
		"recentStarts": s.recentStarts,
		"teams":        len(s.teams),
	}
	if !s.started {
		return out
	}
	out["history"] = s.history.Count(context.Background())
	if s.fetcher != nil {
		out["cache"] = s.fetcher.CacheStats()
		out["rateLimit"] = s.fetcher.LimiterStats()
	}
	if s.chain != nil {
		out["strategies"] = s.chain.Strategies()
		out["breakers"] = s.chain.BreakerStates()
	}
	return out
}

func (s *Service) readyTeam(teamID int) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, ok := model.LookupTeam(teamID); !ok {
		return validationError([]string{fmt.Sprintf("Unknown team %d", teamID)})
	}
	return nil
}

func (s *Service) recordUpdate(ctx context.Context, title, message string) {
	if err := s.history.AddUpdate(ctx, model.UpdateEntry{Title: title, Message: message, At: s.now()}); err != nil {
		s.logger.Debug(ctx, "update not recorded", logger.Error(err))
	}
}

// fatal reports whether err must abort the operation. Exhausted fetches
// carry usable fallback data and are downgraded to warnings.
func fatal(err error) bool {
	return err != nil && !errors.Is(err, fetcher.ErrExhausted)
}

func teamProblems(homeID, awayID int) []string {
	var problems []string
	if homeID == 0 {
		problems = append(problems, "Home team must be selected")
	} else if _, ok := model.LookupTeam(homeID); !ok {
		problems = append(problems, fmt.Sprintf("Unknown home team %d", homeID))
	}
	if awayID == 0 {
		problems = append(problems, "Away team must be selected")
	} else if _, ok := model.LookupTeam(awayID); !ok {
		problems = append(problems, fmt.Sprintf("Unknown away team %d", awayID))
	}
	if homeID != 0 && homeID == awayID {
		problems = append(problems, "Home and away teams must be different")
	}
	return problems
}
