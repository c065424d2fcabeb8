package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/refitlabs/refit/internal/logging"
	"github.com/refitlabs/refit/pkg/domain"
	"github.com/refitlabs/refit/pkg/ports"
)

// Server exposes a read-only inspection API over the run stores.
// All writes still go through the CLI; the API never mutates a run.
type Server struct {
	Runs      ports.RunStore
	States    ports.StateStore
	Artifacts ports.ArtifactStore
	Version   string
	Logger    *slog.Logger
}

// NewHandler wires the inspection routes onto a chi router.
func NewHandler(s *Server) http.Handler {
	if s.Logger == nil {
		s.Logger = logging.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Get("/runs", s.listRuns)
	r.Get("/runs/{runID}", s.getRun)
	r.Get("/runs/{runID}/artifacts/{phase}", s.getArtifact)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"app":     "refit",
		"version": s.Version,
	})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Runs.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("list runs: %v", err), http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, map[string]any{"runs": ids})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	rec, err := s.States.Read(r.Context(), runID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.writeJSON(w, rec)
}

func (s *Server) getArtifact(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	phase, err := strconv.Atoi(chi.URLParam(r, "phase"))
	if err != nil || !domain.ValidPhase(phase) {
		http.Error(w, "invalid phase index", http.StatusBadRequest)
		return
	}

	art, err := s.Artifacts.Load(r.Context(), runID, phase)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.writeJSON(w, art)
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRunNotFound),
		errors.Is(err, domain.ErrMissingState),
		errors.Is(err, domain.ErrMissingArtifact):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrCorruptState):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("failed to encode response", "err", err)
	}
}
