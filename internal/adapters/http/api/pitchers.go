package api

import "net/http"

// PitcherHandler serves pitcher profiles.
type PitcherHandler struct {
	deps Dependencies
}

// NewPitcherHandler creates a new pitcher handler.
func NewPitcherHandler(deps Dependencies) *PitcherHandler {
	return &PitcherHandler{deps: deps}
}

// HandleProfile handles GET /pitchers/{id}.
func (h *PitcherHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := h.deps.PitcherProfile(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
