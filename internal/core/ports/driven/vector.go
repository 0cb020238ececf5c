package driven

import (
	"context"

	"github.com/arkanlabs/docchat/internal/core/domain"
)

// VectorIndex stores fragment embeddings and answers nearest-neighbour
// queries. The index algorithm is opaque to the core.
type VectorIndex interface {
	// Upsert inserts or replaces fragments with their embeddings.
	Upsert(ctx context.Context, fragments []domain.Fragment) error

	// Search finds the k most similar fragments to the query vector.
	// An empty filenameFilter searches all documents; otherwise only
	// fragments of that document are candidates. Results are ordered by
	// descending score; ties break by insertion order.
	Search(ctx context.Context, query []float32, k int, filenameFilter string) ([]domain.RetrievedFragment, error)

	// DeleteByFilename removes all fragments of one document.
	DeleteByFilename(ctx context.Context, filename string) error

	// Count returns the number of indexed fragments.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
