// Package plaintext extracts text from plain text formats.
package plaintext

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/arkanlabs/docchat/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// supportedExtensions lists the file extensions handled as plain text.
var supportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".text": true,
	".rst":  true,
	".log":  true,
	".csv":  true,
}

// Extractor reads plain text documents. Extraction is deterministic:
// identical bytes always yield identical text.
type Extractor struct{}

// New creates a plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the text content of a document.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not valid UTF-8 text", filename)
	}

	// Normalise line endings so fingerprint-identical files chunk identically
	// regardless of the platform that produced them.
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return text, nil
}

// Supports reports whether the extractor handles the given filename.
func (e *Extractor) Supports(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return supportedExtensions[ext]
}
