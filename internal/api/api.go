package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/pfrederiksen/nfl-season-stats/internal/logger"
)

// Server exposes a Source over HTTP
type Server struct {
	source  Source
	log     *logger.Logger
	metrics *logger.Metrics
	router  *mux.Router
}

// New creates a Server. log and metrics may be nil.
func New(source Source, log *logger.Logger, metrics *logger.Metrics) *Server {
	if log == nil {
		log = logger.Default()
	}
	if metrics == nil {
		metrics = logger.NewMetrics()
	}

	s := &Server{
		source:  source,
		log:     log.With(logger.Fields{"component": "api"}),
		metrics: metrics,
		router:  mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.logRequests)
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	s.router.HandleFunc("/seasons", s.handleSeasons).Methods(http.MethodGet)
	s.router.HandleFunc("/seasons/{season:[0-9]{4}}", s.handleSeason).Methods(http.MethodGet)
	s.router.HandleFunc("/seasons/{season:[0-9]{4}}/teams/{team}", s.handleTeam).Methods(http.MethodGet)
	s.router.HandleFunc("/rows", s.handleRows).Methods(http.MethodGet)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("API listening", logger.Fields{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.GetSnapshot())
}

func (s *Server) handleSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := s.source.Seasons(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if seasons == nil {
		seasons = []int{}
	}
	writeJSON(w, http.StatusOK, map[string][]int{"seasons": seasons})
}

func (s *Server) handleSeason(w http.ResponseWriter, r *http.Request) {
	season, _ := strconv.Atoi(mux.Vars(r)["season"])

	rows, err := s.source.SeasonRows(r.Context(), season)
	if err != nil {
		s.fail(w, err)
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no data for season %d", season))
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	season, _ := strconv.Atoi(vars["season"])
	team := vars["team"]

	row, ok, err := s.source.TeamSeason(r.Context(), season, team)
	if err != nil {
		s.fail(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no data for %s in %d", team, season))
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	var seasons []int
	for _, v := range r.URL.Query()["season"] {
		season, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid season %q", v))
			return
		}
		seasons = append(seasons, season)
	}

	if len(seasons) == 0 {
		all, err := s.source.Seasons(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		seasons = all
	}

	rows, err := s.source.SeasonRows(r.Context(), seasons...)
	if err != nil {
		s.fail(w, err)
		return
	}
	if rows == nil {
		rows = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.log.Error("Request failed", nil, err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.metrics.IncrCounter(fmt.Sprintf("api.status.%d", rec.status))
		s.metrics.RecordTiming("api.request", time.Since(start))
		s.log.Debug("Request served", logger.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) // nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
