// Package memory provides an in-memory vector index using brute-force
// cosine similarity. Suitable for the corpus sizes a single docchat
// instance handles; the index is rebuilt from the document store on
// startup when durable storage is configured.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/arkanlabs/docchat/internal/core/domain"
	"github.com/arkanlabs/docchat/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// entry is one indexed fragment plus its insertion sequence number,
// used for deterministic tie-breaking.
type entry struct {
	fragment domain.Fragment
	seq      uint64
}

// Index stores fragment embeddings in memory.
type Index struct {
	mu      sync.RWMutex
	entries map[string]*entry // fragment id -> entry
	nextSeq uint64
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		entries: make(map[string]*entry),
	}
}

// Upsert inserts or replaces fragments. A replaced fragment keeps its
// original insertion sequence so tie-breaking stays stable.
func (x *Index) Upsert(ctx context.Context, fragments []domain.Fragment) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, frag := range fragments {
		if frag.ID == "" {
			return fmt.Errorf("fragment without id (file %s, position %d)", frag.Filename, frag.Position)
		}
		if len(frag.Embedding) == 0 {
			return fmt.Errorf("fragment %s has no embedding", frag.ID)
		}

		if existing, ok := x.entries[frag.ID]; ok {
			existing.fragment = frag
			continue
		}
		x.entries[frag.ID] = &entry{fragment: frag, seq: x.nextSeq}
		x.nextSeq++
	}
	return nil
}

// Search returns the k most similar fragments to the query vector,
// ordered by descending cosine similarity. Equal scores order by
// insertion sequence. An empty filenameFilter searches all documents.
func (x *Index) Search(ctx context.Context, query []float32, k int, filenameFilter string) ([]domain.RetrievedFragment, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	type scored struct {
		frag  domain.Fragment
		score float64
		seq   uint64
	}

	candidates := make([]scored, 0, len(x.entries))
	for _, e := range x.entries {
		if filenameFilter != "" && e.fragment.Filename != filenameFilter {
			continue
		}
		if len(e.fragment.Embedding) != len(query) {
			return nil, fmt.Errorf("dimension mismatch: query %d, fragment %s has %d",
				len(query), e.fragment.ID, len(e.fragment.Embedding))
		}
		candidates = append(candidates, scored{
			frag:  e.fragment,
			score: cosineSimilarity(query, e.fragment.Embedding),
			seq:   e.seq,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].seq < candidates[j].seq
	})

	if k > len(candidates) {
		k = len(candidates)
	}

	results := make([]domain.RetrievedFragment, k)
	for i := 0; i < k; i++ {
		results[i] = domain.RetrievedFragment{
			Fragment: candidates[i].frag,
			Score:    candidates[i].score,
		}
	}
	return results, nil
}

// DeleteByFilename removes all fragments of one document.
func (x *Index) DeleteByFilename(ctx context.Context, filename string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for id, e := range x.entries {
		if e.fragment.Filename == filename {
			delete(x.entries, id)
		}
	}
	return nil
}

// Count returns the number of indexed fragments.
func (x *Index) Count(ctx context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries), nil
}

// Close releases resources.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = make(map[string]*entry)
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors
// of equal length. Zero vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
