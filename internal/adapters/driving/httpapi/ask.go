package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/arkanlabs/docchat/internal/core/domain"
	"github.com/arkanlabs/docchat/internal/logger"
)

// handleAsk answers a question. With stream set the response is a
// server-sent event stream; otherwise a single JSON answer.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req domain.AskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if !req.Stream {
		answer, err := s.answers.Ask(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, answer)
		return
	}

	events, err := s.answers.AskStream(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, fmt.Errorf("streaming unsupported by connection"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for event := range events {
		if err := writeSSE(w, event); err != nil {
			// Client gone; the orchestrator notices via ctx and stops.
			logger.Debug("stream write failed: %v", err)
			return
		}
		flusher.Flush()
	}
}

// ssePayload is the wire form of one stream event.
type ssePayload struct {
	Type      domain.StreamEventType `json:"type"`
	Content   string                 `json:"content,omitempty"`
	Sources   []string               `json:"sources,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// writeSSE frames one event as "data: {json}\n\n".
func writeSSE(w http.ResponseWriter, event domain.StreamEvent) error {
	payload := ssePayload{
		Type:      event.Type,
		Content:   event.Token,
		Sources:   event.Sources,
		SessionID: event.SessionID,
	}
	if event.Err != nil {
		payload.Error = event.Err.Error()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// handleSearch returns raw retrieval results without generation.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	topK := 0
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, fmt.Errorf("%w: top_k must be an integer", domain.ErrInvalidInput))
			return
		}
		topK = parsed
	}

	hits, err := s.answers.Search(r.Context(), query, topK, r.URL.Query().Get("filename"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": hits,
		"total":   len(hits),
	})
}
