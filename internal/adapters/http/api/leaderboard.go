package api

import (
	"context"
	"net/http"

	"github.com/okian/alpine/internal/domain/qualifier"
	"github.com/okian/alpine/internal/domain/standings"
	"github.com/okian/alpine/internal/domain/types"
)

// StandingsDependencies defines the leaderboard operations.
type StandingsDependencies interface {
	Individual(ctx context.Context, cat types.Category) (standings.Leaderboard, error)
	Team(ctx context.Context, gender types.Gender, sport types.Sport) ([]standings.TeamStanding, error)
	Qualifiers(ctx context.Context, cat types.Category) (qualifier.Result, error)
}

// StandingsHandler handles leaderboard requests.
type StandingsHandler struct {
	deps StandingsDependencies
}

// NewStandingsHandler creates a new standings handler.
func NewStandingsHandler(deps StandingsDependencies) *StandingsHandler {
	return &StandingsHandler{deps: deps}
}

// HandleIndividual handles GET /api/individual/{gender}/{sport}/{division}.
func (h *StandingsHandler) HandleIndividual(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_individual"
	cat, err := categoryParams(r)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	board, err := h.deps.Individual(r.Context(), cat)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, individualResponse{
		Category:  cat,
		Label:     cat.Label(),
		RaceCount: board.RaceCount,
		Counting:  board.Counting,
		Athletes:  nonNil(board.Athletes),
	})
}

// HandleTeam handles GET /api/team/{gender}/{sport}.
func (h *StandingsHandler) HandleTeam(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_team"
	gender, sport, err := sportParams(r)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	rows, err := h.deps.Team(r.Context(), gender, sport)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, teamResponse{Gender: gender, Sport: sport, Teams: nonNil(rows)})
}

// HandleQualifiers handles GET /api/qualifiers/{gender}/{sport}/{division}.
func (h *StandingsHandler) HandleQualifiers(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_qualifiers"
	cat, err := categoryParams(r)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	res, err := h.deps.Qualifiers(r.Context(), cat)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	res.Team = nonNil(res.Team)
	res.Individual = nonNil(res.Individual)
	writeJSON(w, http.StatusOK, qualifierResponse{Category: cat, Result: res})
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
