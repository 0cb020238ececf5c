package driven

import "context"

// TextExtractor converts raw file bytes into plain text.
// The extraction algorithm is an external collaborator: the core only
// cares that identical bytes yield identical text.
type TextExtractor interface {
	// Extract returns the text content of a document.
	Extract(ctx context.Context, filename string, data []byte) (string, error)

	// Supports reports whether the extractor handles the given filename.
	Supports(filename string) bool
}
