package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/arkanlabs/docchat/internal/core/domain"
)

// maxUploadBytes bounds a single document upload (32 MiB).
const maxUploadBytes = 32 << 20

// handleListDocuments returns all ingested document records.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	records, err := s.ingestor.ListDocuments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": records,
		"total":     len(records),
	})
}

// handleUploadDocument ingests a document sent as multipart form data
// under the "file" field. The force query parameter re-ingests content
// whose fingerprint is already known.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("%w: missing file field: %v", domain.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, fmt.Errorf("%w: read upload: %v", domain.ErrInvalidInput, err))
		return
	}

	force := r.URL.Query().Get("force") == "true"
	filename := filepath.Base(header.Filename)

	result, err := s.ingestor.IngestBytes(r.Context(), filename, data, force)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Status == domain.IngestStatusSkipped {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

// handleDeleteDocument removes a document and its indexed fragments.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if err := s.ingestor.DeleteDocument(r.Context(), filename); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"filename": filename,
		"status":   "deleted",
	})
}
