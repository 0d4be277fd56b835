package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"funding_digest/internal/logger"
	"funding_digest/internal/metrics"
	"funding_digest/internal/models"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Store is the read side of the digest archive.
type Store interface {
	LatestRecords(ctx context.Context, limit int) ([]models.Record, error)
	Ping(ctx context.Context) error
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	store Store
}

func NewServer(store Store) *Server {
	return &Server{store: store}
}

// Routes registers the API on a new mux wrapped in request-id and logging middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/digest/{limit}", s.GetDigest)
	mux.HandleFunc("GET /api/digest", s.GetDigest)
	mux.HandleFunc("GET /health", s.HealthCheck)
	mux.Handle("GET /metrics", metrics.Handler())
	return RequestIDMiddleware(LoggingMiddleware(mux))
}

// HealthCheck answers 200 OK when the archive is reachable, 503 otherwise.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		http.Error(w, "DB unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("OK"))
}

// GetDigest returns the latest delivered digest as a JSON array, at most limit records.
func (s *Server) GetDigest(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.PathValue("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	records, err := s.store.LatestRecords(r.Context(), limit)
	if err != nil {
		logger.Log.WithError(err).WithField("request_id", RequestID(r.Context())).Error("Failed to load digest")
		http.Error(w, "failed to load digest", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
