package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	service "github.com/okian/mlbedge/internal/app"
)

// maxBodyBytes bounds POST /analyze payloads.
const maxBodyBytes = 64 << 10

// MatchupHandler serves head-to-head and analysis routes.
type MatchupHandler struct {
	deps Dependencies
}

// NewMatchupHandler creates a new matchup handler.
func NewMatchupHandler(deps Dependencies) *MatchupHandler {
	return &MatchupHandler{deps: deps}
}

// HandleHeadToHead handles GET /h2h?home={id}&away={id}.
func (h *MatchupHandler) HandleHeadToHead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	home, err := queryInt(r, "home", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	away, err := queryInt(r, "away", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	record, err := h.deps.HeadToHead(r.Context(), home, away)
	writeResult(w, record, err)
}

// HandleAnalyze handles POST /analyze.
func (h *MatchupHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req service.AnalyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON body", ErrBadRequest))
		return
	}
	result, err := h.deps.Analyze(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
