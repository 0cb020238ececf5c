// Package chunker splits extracted document text into overlapping
// fixed-size fragments sized for the embedding service.
package chunker

import "github.com/arkanlabs/docchat/internal/core/domain"

// Chunker splits text into overlapping chunks.
// Consecutive chunks share exactly the configured overlap so that
// concepts spanning a boundary remain retrievable from at least one
// fragment. Splitting is deterministic for identical inputs and never
// drops a trailing remainder shorter than the chunk size.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: domain.DefaultChunkSize,
		overlap:   domain.DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave a positive stride
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the configured chunk size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split divides text into overlapping chunks. Each chunk is at most
// chunkSize characters; each chunk after the first begins with the last
// overlap characters of its predecessor. Empty input yields no chunks.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}

	contentLen := len(text)
	stride := c.chunkSize - c.overlap

	estimated := contentLen/stride + 1
	chunks := make([]string, 0, estimated)

	for start := 0; start < contentLen; start += stride {
		end := start + c.chunkSize
		if end > contentLen {
			end = contentLen
		}

		chunks = append(chunks, text[start:end])

		// The final chunk absorbed the remainder; a further iteration
		// would only repeat its tail.
		if end == contentLen {
			break
		}
	}

	return chunks
}
