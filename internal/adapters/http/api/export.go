package api

import (
	"context"
	"net/http"

	"github.com/okian/alpine/internal/adapters/export"
	"github.com/okian/alpine/internal/domain/types"
)

// ExportDependencies renders CSV exports.
type ExportDependencies interface {
	IndividualCSV(ctx context.Context, cat types.Category) ([]byte, error)
	TeamCSV(ctx context.Context, gender types.Gender, sport types.Sport) ([]byte, error)
}

// ExportHandler serves CSV downloads.
type ExportHandler struct {
	deps ExportDependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps ExportDependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleIndividual handles GET /export/{gender}/{sport}/{division}.
func (h *ExportHandler) HandleIndividual(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_individual"
	cat, err := categoryParams(r)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	body, err := h.deps.IndividualCSV(r.Context(), cat)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeCSV(w, export.IndividualFilename(cat), body)
}

// HandleTeam handles GET /export/{gender}/{sport}/team.
func (h *ExportHandler) HandleTeam(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_team"
	gender, sport, err := sportParams(r)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	body, err := h.deps.TeamCSV(r.Context(), gender, sport)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeCSV(w, export.TeamFilename(gender, sport), body)
}

func writeCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", export.ContentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
