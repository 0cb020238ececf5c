// Package httpapi exposes the question, document and session services
// over HTTP with JSON bodies and server-sent events for streaming.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/arkanlabs/docchat/internal/core/domain"
	"github.com/arkanlabs/docchat/internal/core/ports/driving"
	"github.com/arkanlabs/docchat/internal/logger"
)

// Server serves the docchat HTTP API.
type Server struct {
	answers  driving.AnswerService
	sessions driving.SessionManager
	ingestor driving.IngestService
	probes   []HealthProbe

	httpServer *http.Server
}

// HealthProbe checks one backing service for the health endpoint.
type HealthProbe struct {
	// Name identifies the service in the health report.
	Name string

	// Ping reports whether the service is reachable.
	Ping func(ctx context.Context) error
}

// Config holds HTTP server configuration.
type Config struct {
	// Addr is the listen address (default: :8000).
	Addr string

	// ReadTimeout bounds request reading (default: 30s).
	ReadTimeout time.Duration

	// Probes are the backend checks the health endpoint reports on.
	Probes []HealthProbe
}

// NewServer wires the API routes.
func NewServer(cfg Config, answers driving.AnswerService, sessions driving.SessionManager, ingestor driving.IngestService) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8000"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}

	s := &Server{
		answers:  answers,
		sessions: sessions,
		ingestor: ingestor,
		probes:   cfg.Probes,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("GET /search", s.handleSearch)

	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("POST /documents", s.handleUploadDocument)
	mux.HandleFunc("DELETE /documents/{filename}", s.handleDeleteDocument)

	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions", s.handleListSessions)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("GET /sessions/{id}/history", s.handleSessionHistory)
	mux.HandleFunc("DELETE /sessions/{id}/history", s.handleClearSessionHistory)
	mux.HandleFunc("PUT /sessions/{id}/config", s.handleConfigureSession)
	mux.HandleFunc("GET /sessions/{id}/export", s.handleExportSession)

	s.httpServer = &http.Server{
		Addr:        cfg.Addr,
		Handler:     mux,
		ReadTimeout: cfg.ReadTimeout,
		// No WriteTimeout: answer streams stay open for as long as
		// generation runs.
	}
	return s
}

// ListenAndServe starts the server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	logger.Info("HTTP API listening on %s", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the underlying handler. Used in tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// healthResponse summarises corpus size and backend availability.
type healthResponse struct {
	Status    string          `json:"status"`
	Documents int             `json:"documents"`
	Fragments int             `json:"fragments"`
	Services  map[string]bool `json:"services,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := s.ingestor.ListDocuments(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	fragments := 0
	for _, rec := range records {
		fragments += rec.Chunks
	}

	resp := healthResponse{
		Status:    "ok",
		Documents: len(records),
		Fragments: fragments,
	}
	if len(s.probes) > 0 {
		resp.Services = make(map[string]bool, len(s.probes))
		for _, probe := range s.probes {
			up := probe.Ping(ctx) == nil
			resp.Services[probe.Name] = up
			if !up {
				resp.Status = "degraded"
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeJSON serialises a response body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("write response: %v", err)
	}
}

// writeError maps domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrRetrievalFailed),
		errors.Is(err, domain.ErrGenerationFailed),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrLLMUnavailable),
		errors.Is(err, domain.ErrVectorIndexUnavailable):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// decodeJSON parses a request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
