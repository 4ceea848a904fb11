// Package server serves the season grouping endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/vmunix/episodic/internal/catalog"
	"github.com/vmunix/episodic/pkg/imdbapi"
)

// EpisodeSource returns the raw episode payload of a title.
type EpisodeSource interface {
	Episodes(ctx context.Context, titleID string, q imdbapi.EpisodeQuery) (any, error)
}

var _ EpisodeSource = (*imdbapi.Client)(nil)

// Server handles the HTTP API.
type Server struct {
	source EpisodeSource
	log    *slog.Logger
}

// New creates a Server reading episodes from source.
func New(source EpisodeSource, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{source: source, log: log}
}

// Handler returns the routed handler with request ids and access logging.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.RegisterRoutes(r)
	r.Use(requestID)
	return logRequests(r, s.log)
}

// RegisterRoutes registers the API routes on r.
func (s *Server) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/titles/{id}/seasons", s.listSeasons).Methods(http.MethodGet)
	api.HandleFunc("/health", s.health).Methods(http.MethodGet)
}

type seasonsResponse struct {
	Seasons []catalog.SeasonGroup `json:"seasons"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) listSeasons(w http.ResponseWriter, r *http.Request) {
	titleID := mux.Vars(r)["id"]
	log := s.log.With("title_id", titleID, "request_id", RequestID(r.Context()))

	start := time.Now()
	raw, err := s.source.Episodes(r.Context(), titleID, imdbapi.EpisodeQuery{})
	if errors.Is(err, imdbapi.ErrNotFound) {
		writeJSON(w, http.StatusOK, seasonsResponse{Seasons: []catalog.SeasonGroup{}})
		return
	}
	if err != nil {
		log.Warn("episode fetch failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	groups := catalog.GroupBySeason(raw, log)
	log.Debug("served seasons", "seasons", len(groups), "duration_ms", time.Since(start).Milliseconds())
	writeJSON(w, http.StatusOK, seasonsResponse{Seasons: groups})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}
