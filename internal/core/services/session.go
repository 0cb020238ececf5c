package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arkanlabs/docchat/internal/core/domain"
	"github.com/arkanlabs/docchat/internal/core/ports/driven"
	"github.com/arkanlabs/docchat/internal/core/ports/driving"
	"github.com/arkanlabs/docchat/internal/logger"
)

// Verify interface compliance at compile time
var _ driving.SessionManager = (*SessionStore)(nil)

// session bundles a session's identity with its history. All fields
// except the history are guarded by the store's lock.
type session struct {
	id           string
	createdAt    time.Time
	lastActivity time.Time
	history      *ConversationHistory
}

// SessionStore owns every live session. It is the single authority for
// session ids: callers always address sessions by id and never hold a
// session object across operations, so a concurrent sweep can remove a
// session without invalidating anything a caller retains.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session

	settings domain.Settings

	// historyStore, when set, mirrors exchanges to durable storage so a
	// restart can resume conversations. Mirror failures are logged and
	// never fail the in-memory operation.
	historyStore driven.HistoryStore

	// now is replaceable for expiry tests.
	now func() time.Time
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithHistoryStore mirrors exchanges to durable storage.
func WithHistoryStore(hs driven.HistoryStore) SessionOption {
	return func(s *SessionStore) {
		s.historyStore = hs
	}
}

// WithClock replaces the time source. Used in tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) {
		s.now = now
	}
}

// NewSessionStore creates an empty store using the given settings.
func NewSessionStore(settings domain.Settings, opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		sessions: make(map[string]*session),
		settings: settings,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create allocates a new empty session and returns its id.
func (s *SessionStore) Create(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	now := s.now()
	s.sessions[id] = &session{
		id:           id,
		createdAt:    now,
		lastActivity: now,
		history:      NewConversationHistory(s.settings.ContextWindow, s.settings.MaxHistory),
	}

	logger.Debug("session created: %s", id)
	return id, nil
}

// Resolve maps a request's session id to a live session. An empty id
// creates a fresh session; a known id extends its expiry; an unknown id
// is an error rather than a silent new session, so a client can tell
// expiry apart from creation.
func (s *SessionStore) Resolve(ctx context.Context, id string) (string, error) {
	if id == "" {
		return s.Create(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return "", fmt.Errorf("resolve session %s: %w", id, domain.ErrSessionNotFound)
	}
	sess.lastActivity = s.now()
	return id, nil
}

// Touch extends a session's expiry without any other effect.
func (s *SessionStore) Touch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("touch session %s: %w", id, domain.ErrSessionNotFound)
	}
	sess.lastActivity = s.now()
	return nil
}

// Window returns the exchanges a prompt for this session should carry,
// oldest first. It does not extend expiry; Resolve already did.
func (s *SessionStore) Window(ctx context.Context, id string) ([]domain.Exchange, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("window for session %s: %w", id, domain.ErrSessionNotFound)
	}
	return sess.history.Window(0), nil
}

// Append commits a completed exchange to a session's history. If the
// session was swept between the query start and its completion the
// exchange is dropped: there is no conversation left to extend.
func (s *SessionStore) Append(ctx context.Context, id string, ex domain.Exchange) error {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		logger.Debug("session %s expired before commit, exchange dropped", id)
		return nil
	}
	sess.history.Append(ex)

	if s.historyStore != nil {
		if err := s.historyStore.AppendExchange(ctx, id, ex); err != nil {
			logger.Warn("persist exchange for session %s: %v", id, err)
		}
	}
	return nil
}

// List returns a snapshot of all live sessions, ordered by creation time.
func (s *SessionStore) List(ctx context.Context) ([]domain.SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]domain.SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		infos = append(infos, domain.SessionInfo{
			ID:           sess.id,
			Exchanges:    sess.history.Len(),
			CreatedAt:    sess.createdAt,
			LastActivity: sess.lastActivity,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos, nil
}

// Delete removes a session and its history.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("delete session %s: %w", id, domain.ErrSessionNotFound)
	}

	if s.historyStore != nil {
		if err := s.historyStore.ClearHistory(ctx, id); err != nil {
			logger.Warn("clear persisted history for session %s: %v", id, err)
		}
	}
	logger.Debug("session deleted: %s", id)
	return nil
}

// History returns the full exchange record of a session in order.
// Inspecting history is not conversational activity and leaves the
// expiry timer untouched.
func (s *SessionStore) History(ctx context.Context, id string) ([]domain.Exchange, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("history for session %s: %w", id, domain.ErrSessionNotFound)
	}
	return sess.history.All(), nil
}

// ClearHistory empties a session's history without destroying the session.
func (s *SessionStore) ClearHistory(ctx context.Context, id string) error {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("clear history for session %s: %w", id, domain.ErrSessionNotFound)
	}
	sess.history.Clear()

	if s.historyStore != nil {
		if err := s.historyStore.ClearHistory(ctx, id); err != nil {
			logger.Warn("clear persisted history for session %s: %v", id, err)
		}
	}
	return nil
}

// Configure sets a session's context window for future prompts.
func (s *SessionStore) Configure(ctx context.Context, id string, contextWindow int) error {
	if contextWindow <= 0 {
		return fmt.Errorf("%w: context window must be positive", domain.ErrInvalidInput)
	}

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("configure session %s: %w", id, domain.ErrSessionNotFound)
	}
	sess.history.Configure(contextWindow)
	return nil
}

// Export returns the session's history in exportable form.
func (s *SessionStore) Export(ctx context.Context, id string) (*domain.ConversationExport, error) {
	history, err := s.History(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.ConversationExport{
		SessionID:  id,
		History:    history,
		ExportedAt: s.now(),
		Total:      len(history),
	}, nil
}

// Sweep removes every session idle longer than the timeout and returns
// how many were removed. A session receiving a query while the sweep
// runs is safe: activity bumps happen under the same lock, so a session
// is either bumped before the scan sees it or removed before the bump,
// never half of each.
func (s *SessionStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	activity := make(map[string]time.Time, len(s.sessions))
	for id, sess := range s.sessions {
		activity[id] = sess.lastActivity
	}

	expired := expiredIDs(activity, now, s.settings.SessionTimeout)
	for _, id := range expired {
		delete(s.sessions, id)
		logger.Debug("session expired: %s", id)
	}
	s.mu.Unlock()

	// Persisted history follows the session's lifetime: an expired
	// conversation must not resurface on the next restart.
	if s.historyStore != nil {
		for _, id := range expired {
			if err := s.historyStore.ClearHistory(context.Background(), id); err != nil {
				logger.Warn("clear persisted history for expired session %s: %v", id, err)
			}
		}
	}
	return len(expired)
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Restore recreates a session with the given id and seeds its history,
// typically from durable storage at startup.
func (s *SessionStore) Restore(id string, history []domain.Exchange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	h := NewConversationHistory(s.settings.ContextWindow, s.settings.MaxHistory)
	h.restore(history)
	s.sessions[id] = &session{
		id:           id,
		createdAt:    now,
		lastActivity: now,
		history:      h,
	}
}

// expiredIDs selects the ids whose last activity is older than timeout.
// Pure function so expiry selection is testable without a store.
func expiredIDs(lastActivity map[string]time.Time, now time.Time, timeout time.Duration) []string {
	var ids []string
	for id, last := range lastActivity {
		if now.Sub(last) > timeout {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
