package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/wx-observation-etl/internal/store"
)

// StationSource is the read side of the observation store.
type StationSource interface {
	Stations() []string
	Lookup(station string) (*store.Store, bool)
}

// Server exposes health, readiness, metrics and read-only station endpoints.
type Server struct {
	httpServer *http.Server
	stations   StationSource
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /stations routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, stations StationSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		stations: stations,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /stations", s.handleStations)
	mux.HandleFunc("GET /stations/{station}/latest", s.handleLatest)
	mux.HandleFunc("GET /stations/{station}/days/{date}", s.handleDay)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleStations(w http.ResponseWriter, _ *http.Request) {
	stations := s.stations.Stations()
	if stations == nil {
		stations = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"stations": stations})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	st, ok := s.lookup(w, r)
	if !ok {
		return
	}
	p, ok, err := st.LatestProjection()
	switch {
	case err != nil:
		s.internalError(w, st.Station(), err)
	case !ok:
		writeError(w, http.StatusNotFound, "no observations for "+st.Station())
	default:
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	st, ok := s.lookup(w, r)
	if !ok {
		return
	}
	date, err := time.Parse(time.DateOnly, r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	doc, err := st.DayProjections(date)
	if err != nil {
		s.internalError(w, st.Station(), err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*store.Store, bool) {
	name := r.PathValue("station")
	st, ok := s.stations.Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown station "+name)
	}
	return st, ok
}

func (s *Server) internalError(w http.ResponseWriter, station string, err error) {
	s.logger.Error("projection failed", "station", station, "error", err)
	writeError(w, http.StatusInternalServerError, "projection failed")
}

// AllReady combines readiness checks. Nil checkers are skipped.
func AllReady(checks ...sharedobs.ReadinessChecker) sharedobs.ReadinessChecker {
	return readinessSet(checks)
}

type readinessSet []sharedobs.ReadinessChecker

func (rs readinessSet) CheckReadiness(ctx context.Context) error {
	var errs []error
	for _, c := range rs {
		if c == nil {
			continue
		}
		if err := c.CheckReadiness(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
