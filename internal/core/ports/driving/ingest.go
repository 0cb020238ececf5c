package driving

import (
	"context"

	"github.com/arkanlabs/docchat/internal/core/domain"
)

// IngestService turns source documents into indexed fragments.
type IngestService interface {
	// IngestFile fingerprints, extracts, chunks, embeds and indexes one
	// file. A duplicate fingerprint is skipped unless force is set.
	IngestFile(ctx context.Context, path string, force bool) (*domain.IngestResult, error)

	// IngestBytes ingests in-memory document content under a filename.
	IngestBytes(ctx context.Context, filename string, data []byte, force bool) (*domain.IngestResult, error)

	// IngestDir ingests every supported file in a directory.
	// Per-document failures are reported in the results and never abort
	// the rest of the batch.
	IngestDir(ctx context.Context, dir string, force bool) ([]domain.IngestResult, error)

	// ListDocuments returns all ingested document records.
	ListDocuments(ctx context.Context) ([]domain.DocumentRecord, error)

	// DeleteDocument removes a document's record and its fragments.
	DeleteDocument(ctx context.Context, filename string) error
}
