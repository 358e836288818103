package handlers

import (
	"errors"
	"net/http"

	"github.com/match-scheduler/models"
	"github.com/match-scheduler/services"
)

type MatchHandler struct {
	matches services.MatchService
}

func NewMatchHandler(matches services.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

// List returns every match.
func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.matches.List(r.Context()))
}

// Create adds an unscheduled match between the submitted players.
func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Players []string `json:"players"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	if _, err := h.matches.Add(r.Context(), input.Players); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// Update overwrites the match addressed by the matchId query parameter,
// which is either a match id or a legacy numeric index.
func (h *MatchHandler) Update(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("matchId")
	if key == "" {
		badRequestResponse(w, errors.New("matchId query parameter is required"))
		return
	}

	var input struct {
		Match models.Match `json:"match"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.matches.Update(r.Context(), key, input.Match); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
