package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/arkanlabs/docchat/internal/chunker"
	"github.com/arkanlabs/docchat/internal/core/domain"
	"github.com/arkanlabs/docchat/internal/core/ports/driven"
	"github.com/arkanlabs/docchat/internal/core/ports/driving"
	"github.com/arkanlabs/docchat/internal/logger"
)

// Verify interface compliance at compile time
var _ driving.IngestService = (*Ingestor)(nil)

// Fingerprint returns the SHA-256 hex digest of raw document bytes.
// Identical bytes always fingerprint identically, regardless of
// filename or ingestion time.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Ingestor implements the ingestion pipeline: fingerprint, deduplicate,
// extract, chunk, embed, index, record.
type Ingestor struct {
	docs       driven.DocumentStore
	index      driven.VectorIndex
	embedder   driven.EmbeddingService
	extractors []driven.TextExtractor
	chunker    *chunker.Chunker
	timeout    time.Duration
}

// NewIngestor wires the ingestion pipeline. Extractors are consulted in
// order; the first one supporting a filename wins.
func NewIngestor(
	docs driven.DocumentStore,
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	extractors []driven.TextExtractor,
	ck *chunker.Chunker,
	timeout time.Duration,
) *Ingestor {
	if ck == nil {
		ck = chunker.New()
	}
	if timeout <= 0 {
		timeout = domain.DefaultServiceTimeout
	}
	return &Ingestor{
		docs:       docs,
		index:      index,
		embedder:   embedder,
		extractors: extractors,
		chunker:    ck,
		timeout:    timeout,
	}
}

// IsDuplicate reports whether content with this fingerprint has already
// been ingested.
func (g *Ingestor) IsDuplicate(ctx context.Context, hash string) (bool, error) {
	_, err := g.docs.GetRecordByHash(ctx, hash)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IngestFile reads a file from disk and ingests its content.
func (g *Ingestor) IngestFile(ctx context.Context, path string, force bool) (*domain.IngestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrIngestionFailed, path, err)
	}
	return g.IngestBytes(ctx, filepath.Base(path), data, force)
}

// IngestBytes ingests in-memory document content under a filename.
// Duplicate content (same fingerprint) is skipped unless force is set,
// in which case the previous fragments are replaced.
func (g *Ingestor) IngestBytes(ctx context.Context, filename string, data []byte, force bool) (*domain.IngestResult, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is empty", domain.ErrInvalidInput)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: document %s is empty", domain.ErrInvalidInput, filename)
	}

	hash := Fingerprint(data)
	logger.Section("Ingest: " + filename)
	logger.Debug("fingerprint: %s", hash)

	existing, err := g.docs.GetRecordByHash(ctx, hash)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check fingerprint: %w", err)
	}
	if existing != nil && !force {
		logger.Info("duplicate content, skipping (already ingested as %s)", existing.Filename)
		// The skip is not a failure; Err classifies it for callers that
		// want to tell duplicates apart from other skipped work.
		return &domain.IngestResult{
			Filename: filename,
			Hash:     hash,
			Chunks:   existing.Chunks,
			Status:   domain.IngestStatusSkipped,
			Err:      fmt.Errorf("%w as %s", domain.ErrAlreadyIngested, existing.Filename),
		}, nil
	}

	extractor := g.extractorFor(filename)
	if extractor == nil {
		return nil, fmt.Errorf("%w: no extractor supports %s", domain.ErrIngestionFailed, filename)
	}

	text, err := extractor.Extract(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("%w: extract %s: %v", domain.ErrIngestionFailed, filename, err)
	}

	chunks := g.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document %s has no extractable text", domain.ErrIngestionFailed, filename)
	}
	logger.Debug("split into %d chunk(s)", len(chunks))

	embedCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	vectors, err := g.embedder.EmbedBatch(embedCtx, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: embed %s: %v", domain.ErrEmbeddingUnavailable, filename, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: embedding count mismatch: %d chunks, %d vectors",
			domain.ErrIngestionFailed, len(chunks), len(vectors))
	}

	fragments := make([]domain.Fragment, len(chunks))
	for i, chunk := range chunks {
		fragments[i] = domain.Fragment{
			ID:        uuid.NewString(),
			Filename:  filename,
			Position:  i,
			Content:   chunk,
			Embedding: vectors[i],
		}
	}

	// Re-ingesting under force replaces the old fragments wholesale so
	// stale vectors never shadow the new content.
	if force {
		if err := g.index.DeleteByFilename(ctx, filename); err != nil {
			return nil, fmt.Errorf("replace indexed fragments for %s: %w", filename, err)
		}
		if err := g.docs.DeleteRecord(ctx, filename); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("replace record for %s: %w", filename, err)
		}
	}

	if err := g.index.Upsert(ctx, fragments); err != nil {
		return nil, fmt.Errorf("%w: index %s: %v", domain.ErrVectorIndexUnavailable, filename, err)
	}
	if err := g.docs.SaveFragments(ctx, fragments); err != nil {
		return nil, fmt.Errorf("save fragments for %s: %w", filename, err)
	}

	rec := &domain.DocumentRecord{
		Filename:   filename,
		Hash:       hash,
		Chunks:     len(fragments),
		IngestedAt: time.Now(),
	}
	if err := g.docs.SaveRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("save record for %s: %w", filename, err)
	}

	logger.Info("ingested %s: %d fragment(s)", filename, len(fragments))
	return &domain.IngestResult{
		Filename: filename,
		Hash:     hash,
		Chunks:   len(fragments),
		Status:   domain.IngestStatusIngested,
	}, nil
}

// IngestDir ingests every supported file in a directory. Each document
// is processed independently; a failure is reported in its result and
// never aborts the rest of the batch.
func (g *Ingestor) IngestDir(ctx context.Context, dir string, force bool) ([]domain.IngestResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read directory %s: %v", domain.ErrIngestionFailed, dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if g.extractorFor(entry.Name()) == nil {
			logger.Debug("skipping unsupported file: %s", entry.Name())
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	results := make([]domain.IngestResult, 0, len(names))
	for _, name := range names {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		res, err := g.IngestFile(ctx, filepath.Join(dir, name), force)
		if err != nil {
			logger.Warn("ingest %s failed: %v", name, err)
			results = append(results, domain.IngestResult{
				Filename: name,
				Status:   domain.IngestStatusFailed,
				Err:      err,
			})
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

// ListDocuments returns all ingested document records.
func (g *Ingestor) ListDocuments(ctx context.Context) ([]domain.DocumentRecord, error) {
	return g.docs.ListRecords(ctx)
}

// DeleteDocument removes a document's record and its indexed fragments.
func (g *Ingestor) DeleteDocument(ctx context.Context, filename string) error {
	if _, err := g.docs.GetRecordByFilename(ctx, filename); err != nil {
		return err
	}
	if err := g.index.DeleteByFilename(ctx, filename); err != nil {
		return fmt.Errorf("remove indexed fragments for %s: %w", filename, err)
	}
	if err := g.docs.DeleteRecord(ctx, filename); err != nil {
		return fmt.Errorf("remove record for %s: %w", filename, err)
	}
	logger.Info("deleted document %s", filename)
	return nil
}

// Supports reports whether any configured extractor handles the filename.
func (g *Ingestor) Supports(filename string) bool {
	return g.extractorFor(filename) != nil
}

func (g *Ingestor) extractorFor(filename string) driven.TextExtractor {
	for _, ex := range g.extractors {
		if ex.Supports(filename) {
			return ex
		}
	}
	return nil
}
