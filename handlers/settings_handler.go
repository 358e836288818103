package handlers

import (
	"net/http"

	"github.com/match-scheduler/models"
	"github.com/match-scheduler/services"
)

type SettingsHandler struct {
	settings services.SettingsService
}

func NewSettingsHandler(settings services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

func (h *SettingsHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Config(r.Context()))
}

func (h *SettingsHandler) PatchConfig(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Config models.ServerConfig `json:"config"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.settings.SetConfig(r.Context(), input.Config); err != nil {
		serverErrorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SettingsHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Schema(r.Context()))
}

func (h *SettingsHandler) PatchSchema(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Schema []models.MatchField `json:"schema"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.settings.SetSchema(r.Context(), input.Schema); err != nil {
		serverErrorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SettingsHandler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Players(r.Context()))
}

func (h *SettingsHandler) PatchPlayers(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Players []models.PlayerIDMap `json:"players"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.settings.SetPlayers(r.Context(), input.Players); err != nil {
		serverErrorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reload forces a fresh read of every collection from disk.
func (h *SettingsHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.Reload(r.Context()); err != nil {
		serverErrorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
