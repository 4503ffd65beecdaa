// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/alpine/internal/adapters/http/swagger"
	service "github.com/okian/alpine/internal/app"
	"github.com/okian/alpine/internal/domain/model"
	"github.com/okian/alpine/internal/domain/qualifier"
	"github.com/okian/alpine/internal/domain/standings"
	"github.com/okian/alpine/internal/domain/types"
	"github.com/okian/alpine/pkg/logger"
	"github.com/okian/alpine/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StandingsDependencies
	RaceDependencies
	ExportDependencies
	UploadDependencies
}

// Server wires HTTP routes for the standings API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	standingsHandler *StandingsHandler
	racesHandler     *RacesHandler
	exportHandler    *ExportHandler
	uploadsHandler   *UploadsHandler

	corsOrigins []string
	logger      logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := options{
		corsOrigins:    []string{"*"},
		maxUploadBytes: 4 << 20,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("api")
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		standingsHandler: NewStandingsHandler(deps),
		racesHandler:     NewRacesHandler(deps),
		exportHandler:    NewExportHandler(deps),
		uploadsHandler:   NewUploadsHandler(deps, o.maxUploadBytes, o.logger),
		corsOrigins:      o.corsOrigins,
		logger:           o.logger,
	}
}

// Handler returns the router with every route attached.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	swagger.Register(r)

	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", MetricsMiddleware(s.racesHandler.HandleSummary, "summary"))
		r.Get("/races", MetricsMiddleware(s.racesHandler.HandleRaces, "races"))
		r.Get("/races/{gender}/{sport}/{division}/{race}", MetricsMiddleware(s.racesHandler.HandleRaceResults, "race_results"))
		r.Get("/individual/{gender}/{sport}/{division}", MetricsMiddleware(s.standingsHandler.HandleIndividual, "individual"))
		r.Get("/team/{gender}/{sport}", MetricsMiddleware(s.standingsHandler.HandleTeam, "team"))
		r.Get("/qualifiers/{gender}/{sport}/{division}", MetricsMiddleware(s.standingsHandler.HandleQualifiers, "qualifiers"))
		r.Post("/uploads", MetricsMiddleware(s.uploadsHandler.HandleUpload, "uploads"))
	})

	r.Route("/export/{gender}/{sport}", func(r chi.Router) {
		r.Get("/team", MetricsMiddleware(s.exportHandler.HandleTeam, "export_team"))
		r.Get("/{division}", MetricsMiddleware(s.exportHandler.HandleIndividual, "export_individual"))
	})

	return r
}

// Serve runs an HTTP server on addr until ctx ends, then shuts it down
// within shutdownTimeout.
func (s *Server) Serve(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", logger.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return Wrap("api.serve", errors.Join(ErrServe, err))
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return Wrap("api.shutdown", err)
	}
	return nil
}

// categoryParams parses the {gender}/{sport}/{division} path parameters.
func categoryParams(r *http.Request) (types.Category, error) {
	return types.ParseCategory(chi.URLParam(r, "gender"), chi.URLParam(r, "sport"), chi.URLParam(r, "division"))
}

// sportParams parses the {gender}/{sport} path parameters.
func sportParams(r *http.Request) (types.Gender, types.Sport, error) {
	g, err := types.ParseGender(chi.URLParam(r, "gender"))
	if err != nil {
		return "", "", err
	}
	sp, err := types.ParseSport(chi.URLParam(r, "sport"))
	if err != nil {
		return "", "", err
	}
	return g, sp, nil
}

type individualResponse struct {
	Category  types.Category              `json:"category"`
	Label     string                      `json:"label"`
	RaceCount int                         `json:"race_count"`
	Counting  int                         `json:"counting_results"`
	Athletes  []standings.AthleteStanding `json:"athletes"`
}

type teamResponse struct {
	Gender types.Gender             `json:"gender"`
	Sport  types.Sport              `json:"sport"`
	Teams  []standings.TeamStanding `json:"teams"`
}

type qualifierResponse struct {
	Category types.Category `json:"category"`
	qualifier.Result
}

type raceResult struct {
	Place       int      `json:"place"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	School      string   `json:"school"`
	TimeSeconds *float64 `json:"time_seconds"`
	Points      int      `json:"points"`
	Status      string   `json:"status,omitempty"`
}

type raceResponse struct {
	Category   types.Category `json:"category"`
	RaceNumber int            `json:"race_number"`
	RaceID     int            `json:"race_id"`
	EventDate  string         `json:"event_date"`
	Results    []raceResult   `json:"results"`
}

type uploadResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	ID        string `json:"id,omitempty"`
	Digest    string `json:"digest"`
}

func toRaceResponse(cat types.Category, number int, records []model.PlacementRecord) raceResponse {
	resp := raceResponse{Category: cat, RaceNumber: number, Results: make([]raceResult, len(records))}
	for i, r := range records {
		resp.RaceID = r.RaceID
		resp.EventDate = r.EventDate
		resp.Results[i] = raceResult{
			Place:       r.Place,
			FirstName:   r.FirstName,
			LastName:    r.LastName,
			School:      r.School,
			TimeSeconds: r.TimeSeconds,
			Points:      r.Points,
			Status:      r.Status,
		}
	}
	return resp
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service and domain errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, types.ErrInvalidCategory):
		writeError(w, http.StatusNotFound, "invalid_parameters", Wrap(op, err))
	case errors.Is(err, service.ErrRaceNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, service.ErrBadRequest), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
