package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storagememory "github.com/arkanlabs/docchat/internal/adapters/driven/storage/memory"
	"github.com/arkanlabs/docchat/internal/core/domain"
)

func testSettings() domain.Settings {
	s := domain.DefaultSettings()
	s.SessionTimeout = time.Hour
	return s
}

func TestSessionStore_CreateAndResolve(t *testing.T) {
	store := NewSessionStore(testSettings())
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	resolved, err := store.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, resolved)
}

func TestSessionStore_ResolveEmptyCreates(t *testing.T) {
	store := NewSessionStore(testSettings())
	ctx := context.Background()

	id, err := store.Resolve(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, store.Len())
}

func TestSessionStore_ResolveUnknownFails(t *testing.T) {
	store := NewSessionStore(testSettings())

	_, err := store.Resolve(context.Background(), "no-such-session")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_ConcurrentCreateDistinctIDs(t *testing.T) {
	store := NewSessionStore(testSettings())
	ctx := context.Background()

	const n = 100
	ids := make(chan string, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := store.Create(ctx)
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate session id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestSessionStore_AppendAndWindowIsolation(t *testing.T) {
	store := NewSessionStore(testSettings())
	ctx := context.Background()

	a, err := store.Create(ctx)
	require.NoError(t, err)
	b, err := store.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Append(ctx, a, domain.Exchange{Question: "qa", Answer: "aa"}))
	require.NoError(t, store.Append(ctx, b, domain.Exchange{Question: "qb", Answer: "ab"}))

	windowA, err := store.Window(ctx, a)
	require.NoError(t, err)
	require.Len(t, windowA, 1)
	assert.Equal(t, "qa", windowA[0].Question)

	windowB, err := store.Window(ctx, b)
	require.NoError(t, err)
	require.Len(t, windowB, 1)
	assert.Equal(t, "qb", windowB[0].Question)
}

func TestSessionStore_AppendToSweptSessionDrops(t *testing.T) {
	store := NewSessionStore(testSettings())
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, id))

	// The exchange is silently dropped, not an error.
	err = store.Append(ctx, id, domain.Exchange{Question: "late", Answer: "late"})
	require.NoError(t, err)
}

func TestSessionStore_SweepRemovesExpired(t *testing.T) {
	now := time.Now()
	current := now

	settings := testSettings()
	settings.SessionTimeout = 30 * time.Minute

	store := NewSessionStore(settings, WithClock(func() time.Time { return current }))
	ctx := context.Background()

	stale, err := store.Create(ctx)
	require.NoError(t, err)

	current = now.Add(20 * time.Minute)
	fresh, err := store.Create(ctx)
	require.NoError(t, err)

	current = now.Add(45 * time.Minute)
	removed := store.Sweep()
	assert.Equal(t, 1, removed)

	_, err = store.Resolve(ctx, stale)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = store.Resolve(ctx, fresh)
	assert.NoError(t, err)
}

func TestSessionStore_ActivityResetsExpiry(t *testing.T) {
	now := time.Now()
	current := now

	settings := testSettings()
	settings.SessionTimeout = 30 * time.Minute

	store := NewSessionStore(settings, WithClock(func() time.Time { return current }))
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)

	// Activity at minute 25 pushes the expiry out.
	current = now.Add(25 * time.Minute)
	_, err = store.Resolve(ctx, id)
	require.NoError(t, err)

	current = now.Add(45 * time.Minute)
	assert.Equal(t, 0, store.Sweep())

	_, err = store.Resolve(ctx, id)
	assert.NoError(t, err)
}

func TestSessionStore_TouchExtendsExpiry(t *testing.T) {
	now := time.Now()
	current := now

	settings := testSettings()
	settings.SessionTimeout = 30 * time.Minute

	store := NewSessionStore(settings, WithClock(func() time.Time { return current }))
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)

	current = now.Add(25 * time.Minute)
	require.NoError(t, store.Touch(ctx, id))

	current = now.Add(45 * time.Minute)
	assert.Equal(t, 0, store.Sweep())

	err = store.Touch(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_HistoryDoesNotExtendExpiry(t *testing.T) {
	now := time.Now()
	current := now

	settings := testSettings()
	settings.SessionTimeout = 30 * time.Minute

	store := NewSessionStore(settings, WithClock(func() time.Time { return current }))
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)

	// A history read at minute 25 is not conversational activity.
	current = now.Add(25 * time.Minute)
	_, err = store.History(ctx, id)
	require.NoError(t, err)

	current = now.Add(45 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
}

func TestSessionStore_DeleteUnknownFails(t *testing.T) {
	store := NewSessionStore(testSettings())
	err := store.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_List(t *testing.T) {
	store := NewSessionStore(testSettings())
	ctx := context.Background()

	a, err := store.Create(ctx)
	require.NoError(t, err)
	_, err = store.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Append(ctx, a, domain.Exchange{Question: "q", Answer: "a"}))

	infos, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	byID := make(map[string]int)
	for _, info := range infos {
		byID[info.ID] = info.Exchanges
	}
	assert.Equal(t, 1, byID[a])
}

func TestSessionStore_ConfigureAffectsWindow(t *testing.T) {
	store := NewSessionStore(testSettings())
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, id, domain.Exchange{Question: "q", Answer: "a"}))
	}

	require.NoError(t, store.Configure(ctx, id, 5))
	window, err := store.Window(ctx, id)
	require.NoError(t, err)
	assert.Len(t, window, 5)
}

func TestSessionStore_ConfigureInvalidWindow(t *testing.T) {
	store := NewSessionStore(testSettings())
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)

	err = store.Configure(ctx, id, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSessionStore_Export(t *testing.T) {
	store := NewSessionStore(testSettings())
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, id, domain.Exchange{Question: "q1", Answer: "a1"}))

	export, err := store.Export(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, export.SessionID)
	assert.Equal(t, 1, export.Total)
	require.Len(t, export.History, 1)
	assert.Equal(t, "q1", export.History[0].Question)
}

func TestSessionStore_MirrorsHistoryToStore(t *testing.T) {
	persisted := storagememory.NewHistoryStore()
	store := NewSessionStore(testSettings(), WithHistoryStore(persisted))
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, id, domain.Exchange{Question: "q", Answer: "a"}))

	mirrored, err := persisted.LoadHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, mirrored, 1)
	assert.Equal(t, "q", mirrored[0].Question)

	require.NoError(t, store.Delete(ctx, id))
	mirrored, err = persisted.LoadHistory(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, mirrored)
}

func TestSessionStore_SweepPurgesPersistedHistory(t *testing.T) {
	now := time.Now()
	current := now

	settings := testSettings()
	settings.SessionTimeout = 30 * time.Minute

	persisted := storagememory.NewHistoryStore()
	store := NewSessionStore(settings,
		WithHistoryStore(persisted),
		WithClock(func() time.Time { return current }),
	)
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, id, domain.Exchange{Question: "q", Answer: "a"}))

	current = now.Add(time.Hour)
	require.Equal(t, 1, store.Sweep())

	mirrored, err := persisted.LoadHistory(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, mirrored)
}

func TestSessionStore_Restore(t *testing.T) {
	store := NewSessionStore(testSettings())
	ctx := context.Background()

	store.Restore("resumed", []domain.Exchange{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
	})

	resolved, err := store.Resolve(ctx, "resumed")
	require.NoError(t, err)
	assert.Equal(t, "resumed", resolved)

	history, err := store.History(ctx, "resumed")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "q1", history[0].Question)
}

func TestExpiredIDs(t *testing.T) {
	now := time.Now()
	activity := map[string]time.Time{
		"old-1": now.Add(-2 * time.Hour),
		"old-2": now.Add(-61 * time.Minute),
		"young": now.Add(-30 * time.Minute),
		"fresh": now,
	}

	ids := expiredIDs(activity, now, time.Hour)
	assert.Equal(t, []string{"old-1", "old-2"}, ids)
}

func TestExpiredIDs_ExactBoundaryNotExpired(t *testing.T) {
	now := time.Now()
	activity := map[string]time.Time{
		"boundary": now.Add(-time.Hour),
	}

	// Expiry requires strictly more than the timeout of idleness.
	assert.Empty(t, expiredIDs(activity, now, time.Hour))
}
