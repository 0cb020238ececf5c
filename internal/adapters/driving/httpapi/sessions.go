package httpapi

import (
	"fmt"
	"net/http"

	"github.com/arkanlabs/docchat/internal/core/domain"
)

// handleCreateSession allocates a new empty session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessions.Create(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

// handleListSessions returns a snapshot of all live sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	infos, err := s.sessions.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": infos,
		"total":    len(infos),
	})
}

// handleDeleteSession removes a session and its history.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"session_id": id,
		"status":     "deleted",
	})
}

// handleSessionHistory returns the session's full exchange record.
func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	history, err := s.sessions.History(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"history":    history,
		"total":      len(history),
	})
}

// handleClearSessionHistory empties the session's history.
func (s *Server) handleClearSessionHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.ClearHistory(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"session_id": id,
		"status":     "cleared",
	})
}

// configureSessionRequest is the body of PUT /sessions/{id}/config.
type configureSessionRequest struct {
	ContextWindow int `json:"context_window"`
}

// handleConfigureSession sets the session's context window.
func (s *Server) handleConfigureSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req configureSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ContextWindow <= 0 {
		writeError(w, fmt.Errorf("%w: context_window must be positive", domain.ErrInvalidInput))
		return
	}

	if err := s.sessions.Configure(r.Context(), id, req.ContextWindow); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":     id,
		"context_window": req.ContextWindow,
	})
}

// handleExportSession returns the session's history in exportable form.
func (s *Server) handleExportSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	export, err := s.sessions.Export(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}
