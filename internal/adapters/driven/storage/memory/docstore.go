// Package memory provides in-memory implementations of the storage
// driven ports. Used in tests and when running without durable storage.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/arkanlabs/docchat/internal/core/domain"
	"github.com/arkanlabs/docchat/internal/core/ports/driven"
)

// Ensure DocStore implements the interface.
var _ driven.DocumentStore = (*DocStore)(nil)

// DocStore is an in-memory document store.
type DocStore struct {
	mu        sync.RWMutex
	records   map[string]domain.DocumentRecord // filename -> record
	fragments map[string][]domain.Fragment     // filename -> fragments in position order
}

// NewDocStore creates an empty in-memory document store.
func NewDocStore() *DocStore {
	return &DocStore{
		records:   make(map[string]domain.DocumentRecord),
		fragments: make(map[string][]domain.Fragment),
	}
}

// SaveRecord stores or updates a document record.
func (s *DocStore) SaveRecord(ctx context.Context, rec *domain.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Filename] = *rec
	return nil
}

// GetRecordByHash retrieves a record by content fingerprint.
func (s *DocStore) GetRecordByHash(ctx context.Context, hash string) (*domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.Hash == hash {
			out := rec
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetRecordByFilename retrieves a record by filename.
func (s *DocStore) GetRecordByFilename(ctx context.Context, filename string) (*domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[filename]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := rec
	return &out, nil
}

// ListRecords returns all document records, ordered by filename.
func (s *DocStore) ListRecords(ctx context.Context) ([]domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.DocumentRecord, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Filename < records[j].Filename
	})
	return records, nil
}

// DeleteRecord removes a document record and its fragments.
func (s *DocStore) DeleteRecord(ctx context.Context, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[filename]; !ok {
		return domain.ErrNotFound
	}
	delete(s.records, filename)
	delete(s.fragments, filename)
	return nil
}

// SaveFragments stores fragment metadata grouped by document.
func (s *DocStore) SaveFragments(ctx context.Context, fragments []domain.Fragment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, frag := range fragments {
		stored := s.fragments[frag.Filename]

		replaced := false
		for i, existing := range stored {
			if existing.ID == frag.ID {
				stored[i] = frag
				replaced = true
				break
			}
		}
		if !replaced {
			stored = append(stored, frag)
		}
		s.fragments[frag.Filename] = stored
	}

	for filename := range s.fragments {
		frags := s.fragments[filename]
		sort.Slice(frags, func(i, j int) bool {
			return frags[i].Position < frags[j].Position
		})
	}
	return nil
}

// GetFragments retrieves all fragments of a document, ordered by position.
func (s *DocStore) GetFragments(ctx context.Context, filename string) ([]domain.Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.fragments[filename]
	if !ok {
		return nil, nil
	}
	out := make([]domain.Fragment, len(stored))
	copy(out, stored)
	return out, nil
}
