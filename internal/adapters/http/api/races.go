package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/alpine/internal/domain/model"
	"github.com/okian/alpine/internal/domain/types"
)

// RaceDependencies defines the race and season lookups.
type RaceDependencies interface {
	Summary(ctx context.Context) (model.SeasonSummary, error)
	Races(ctx context.Context) ([]model.RaceInfo, error)
	RaceResults(ctx context.Context, cat types.Category, raceNumber int) ([]model.PlacementRecord, error)
}

// RacesHandler handles race requests.
type RacesHandler struct {
	deps RaceDependencies
}

// NewRacesHandler creates a new races handler.
func NewRacesHandler(deps RaceDependencies) *RacesHandler {
	return &RacesHandler{deps: deps}
}

// HandleSummary handles GET /api/summary.
func (h *RacesHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.deps.Summary(r.Context())
	if err != nil {
		writeServiceError(w, "api.get_summary", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// HandleRaces handles GET /api/races.
func (h *RacesHandler) HandleRaces(w http.ResponseWriter, r *http.Request) {
	races, err := h.deps.Races(r.Context())
	if err != nil {
		writeServiceError(w, "api.get_races", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(races))
}

// HandleRaceResults handles GET /api/races/{gender}/{sport}/{division}/{race}.
func (h *RacesHandler) HandleRaceResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_race"
	cat, err := categoryParams(r)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	number, err := strconv.Atoi(chi.URLParam(r, "race"))
	if err != nil || number < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	records, err := h.deps.RaceResults(r.Context(), cat, number)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toRaceResponse(cat, number, records))
}
