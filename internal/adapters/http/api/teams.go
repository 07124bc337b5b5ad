package api

import (
	"net/http"

	"github.com/okian/mlbedge/internal/domain/model"
)

// TeamsHandler serves team-scoped routes.
type TeamsHandler struct {
	deps Dependencies
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps Dependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps}
}

// HandleList handles GET /teams. ?refresh=true reloads the list upstream.
func (h *TeamsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	load := h.deps.Teams
	if r.URL.Query().Get("refresh") == "true" {
		load = h.deps.RefreshTeams
	}
	teams, err := load(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

// HandleProfile handles GET /teams/{id}/profile.
func (h *TeamsHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	profile, err := h.deps.TeamProfile(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleBallpark handles GET /teams/{id}/ballpark.
func (h *TeamsHandler) HandleBallpark(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	park, err := h.deps.Ballpark(r.Context(), id)
	writeResult(w, park, err)
}

// HandleInjuries handles GET /teams/{id}/injuries.
func (h *TeamsHandler) HandleInjuries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	injuries, err := h.deps.Injuries(r.Context(), id)
	if injuries == nil {
		injuries = []model.Injury{}
	}
	writeResult(w, injuries, err)
}

// HandleBullpen handles GET /teams/{id}/bullpen.
func (h *TeamsHandler) HandleBullpen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	arms, err := h.deps.Bullpen(r.Context(), id)
	if arms == nil {
		arms = []model.BullpenArm{}
	}
	writeResult(w, arms, err)
}
