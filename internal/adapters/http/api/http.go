// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/mlbedge/internal/adapters/fetcher"
	service "github.com/okian/mlbedge/internal/app"
	"github.com/okian/mlbedge/internal/domain/model"
)

// History paging defaults.
const (
	defaultHistoryLimit = 20
	defaultMaxLimit     = 200
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the analyzer service.
type Dependencies interface {
	Teams(ctx context.Context) ([]model.TeamIdentity, error)
	RefreshTeams(ctx context.Context) ([]model.TeamIdentity, error)
	TeamProfile(ctx context.Context, teamID int) (service.TeamProfile, error)
	PitcherProfile(ctx context.Context, pitcherID int) (service.PitcherReport, error)
	Ballpark(ctx context.Context, teamID int) (model.Ballpark, error)
	Injuries(ctx context.Context, teamID int) ([]model.Injury, error)
	Bullpen(ctx context.Context, teamID int) ([]model.BullpenArm, error)
	HeadToHead(ctx context.Context, homeID, awayID int) (model.HeadToHead, error)
	Analyze(ctx context.Context, req service.AnalyzeRequest) (model.AnalysisResult, error)
	History(ctx context.Context, limit int) (service.History, error)
	Analysis(ctx context.Context, id string) (model.AnalysisResult, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	teamsHandler   *TeamsHandler
	pitcherHandler *PitcherHandler
	matchupHandler *MatchupHandler
	historyHandler *HistoryHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps the
// history page size; zero uses the default.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	if maxLimit <= 0 {
		maxLimit = defaultMaxLimit
	}
	return &Server{
		healthHandler:  NewHealthHandler(statsProvider),
		statsHandler:   NewStatsHandler(statsProvider),
		teamsHandler:   NewTeamsHandler(deps),
		pitcherHandler: NewPitcherHandler(deps),
		matchupHandler: NewMatchupHandler(deps),
		historyHandler: NewHistoryHandler(deps, maxLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, RequestID(MetricsMiddleware(h, endpoint)))
	}
	route("/healthz", "healthz", s.healthHandler.HandleHealth)
	route("/stats", "stats", s.statsHandler.HandleStats)
	route("/teams", "teams", s.teamsHandler.HandleList)
	route("/teams/{id}/profile", "team_profile", s.teamsHandler.HandleProfile)
	route("/teams/{id}/ballpark", "ballpark", s.teamsHandler.HandleBallpark)
	route("/teams/{id}/injuries", "injuries", s.teamsHandler.HandleInjuries)
	route("/teams/{id}/bullpen", "bullpen", s.teamsHandler.HandleBullpen)
	route("/pitchers/{id}", "pitcher", s.pitcherHandler.HandleProfile)
	route("/h2h", "h2h", s.matchupHandler.HandleHeadToHead)
	route("/analyze", "analyze", s.matchupHandler.HandleAnalyze)
	route("/history", "history", s.historyHandler.HandleList)
	route("/history/{id}", "analysis", s.historyHandler.HandleGet)
}

type errorResponse struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	DismissAfterMS int64  `json:"dismiss_after_ms"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as one user-facing message. Bad requests raised by
// the handler layer carry their own text.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg, dismiss := service.UserMessage(err)
	if code == codeBadRequest {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, DismissAfterMS: dismiss.Milliseconds()})
}

// writeResult writes v, downgrading exhausted fetches to a 199 warning so
// callers still get the fallback payload.
func writeResult(w http.ResponseWriter, v any, err error) {
	if err != nil && !errors.Is(err, fetcher.ErrExhausted) {
		writeError(w, err)
		return
	}
	if err != nil {
		msg, _ := service.UserMessage(err)
		w.Header().Set("Warning", fmt.Sprintf("199 mlbedge %q", msg))
	}
	writeJSON(w, http.StatusOK, v)
}

func pathID(r *http.Request) (int, error) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, key)
	}
	return v, nil
}
