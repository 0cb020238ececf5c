package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/arkanlabs/docchat/internal/core/domain"
	"github.com/arkanlabs/docchat/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore is an in-memory conversation history store.
type HistoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]domain.Exchange
}

// NewHistoryStore creates an empty in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		sessions: make(map[string][]domain.Exchange),
	}
}

// AppendExchange records one exchange for a session.
func (s *HistoryStore) AppendExchange(ctx context.Context, sessionID string, ex domain.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], ex)
	return nil
}

// LoadHistory returns a session's exchanges in insertion order.
func (s *HistoryStore) LoadHistory(ctx context.Context, sessionID string) ([]domain.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.sessions[sessionID]
	out := make([]domain.Exchange, len(stored))
	copy(out, stored)
	return out, nil
}

// ClearHistory removes all exchanges of a session.
func (s *HistoryStore) ClearHistory(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// SessionIDs returns every session id with recorded exchanges.
func (s *HistoryStore) SessionIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
