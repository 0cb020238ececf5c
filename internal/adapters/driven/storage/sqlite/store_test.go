package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkanlabs/docchat/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestNewStore_RunsMigrations(t *testing.T) {
	store := newTestStore(t)
	assert.NotEmpty(t, store.Path())

	// Migrations are idempotent: reopening the same directory succeeds.
	again, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestDocumentStore_SaveAndGetRecord(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	rec := &domain.DocumentRecord{
		Filename:   "manual.txt",
		Hash:       "deadbeef",
		Chunks:     7,
		IngestedAt: time.Now().UTC(),
	}
	require.NoError(t, docs.SaveRecord(ctx, rec))

	byHash, err := docs.GetRecordByHash(ctx, "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "manual.txt", byHash.Filename)
	assert.Equal(t, 7, byHash.Chunks)

	byName, err := docs.GetRecordByFilename(ctx, "manual.txt")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", byName.Hash)
}

func TestDocumentStore_GetMissing(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	_, err := docs.GetRecordByHash(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = docs.GetRecordByFilename(ctx, "nope.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_SaveRecord_Upsert(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveRecord(ctx, &domain.DocumentRecord{Filename: "doc.txt", Hash: "v1", Chunks: 1}))
	require.NoError(t, docs.SaveRecord(ctx, &domain.DocumentRecord{Filename: "doc.txt", Hash: "v2", Chunks: 2}))

	rec, err := docs.GetRecordByFilename(ctx, "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "v2", rec.Hash)
	assert.Equal(t, 2, rec.Chunks)
}

func TestDocumentStore_ListRecordsOrdered(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveRecord(ctx, &domain.DocumentRecord{Filename: "zeta.txt", Hash: "z"}))
	require.NoError(t, docs.SaveRecord(ctx, &domain.DocumentRecord{Filename: "alpha.txt", Hash: "a"}))

	records, err := docs.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "alpha.txt", records[0].Filename)
}

func TestDocumentStore_FragmentsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveRecord(ctx, &domain.DocumentRecord{Filename: "doc.txt", Hash: "h"}))
	require.NoError(t, docs.SaveFragments(ctx, []domain.Fragment{
		{ID: "f2", Filename: "doc.txt", Position: 1, Content: "second", Embedding: []float32{0.5, -1.25}},
		{ID: "f1", Filename: "doc.txt", Position: 0, Content: "first", Embedding: []float32{1, 2}},
	}))

	fragments, err := docs.GetFragments(ctx, "doc.txt")
	require.NoError(t, err)
	require.Len(t, fragments, 2)
	assert.Equal(t, "first", fragments[0].Content)
	assert.Equal(t, []float32{1, 2}, fragments[0].Embedding)
	assert.Equal(t, []float32{0.5, -1.25}, fragments[1].Embedding)
}

func TestDocumentStore_DeleteCascadesFragments(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveRecord(ctx, &domain.DocumentRecord{Filename: "doc.txt", Hash: "h"}))
	require.NoError(t, docs.SaveFragments(ctx, []domain.Fragment{
		{ID: "f1", Filename: "doc.txt", Position: 0, Content: "body"},
	}))

	require.NoError(t, docs.DeleteRecord(ctx, "doc.txt"))

	fragments, err := docs.GetFragments(ctx, "doc.txt")
	require.NoError(t, err)
	assert.Empty(t, fragments)
}

func TestDocumentStore_DeleteMissing(t *testing.T) {
	store := newTestStore(t)
	err := store.DocumentStore().DeleteRecord(context.Background(), "missing.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistoryStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	history := store.HistoryStore()
	ctx := context.Background()

	require.NoError(t, history.AppendExchange(ctx, "s1", domain.Exchange{
		Question: "q1",
		Answer:   "a1",
		Sources:  []string{"doc.txt"},
	}))
	require.NoError(t, history.AppendExchange(ctx, "s1", domain.Exchange{Question: "q2", Answer: "a2"}))
	require.NoError(t, history.AppendExchange(ctx, "other", domain.Exchange{Question: "qx", Answer: "ax"}))

	loaded, err := history.LoadHistory(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "q1", loaded[0].Question)
	assert.Equal(t, []string{"doc.txt"}, loaded[0].Sources)
	assert.Equal(t, "q2", loaded[1].Question)
}

func TestHistoryStore_Clear(t *testing.T) {
	store := newTestStore(t)
	history := store.HistoryStore()
	ctx := context.Background()

	require.NoError(t, history.AppendExchange(ctx, "s1", domain.Exchange{Question: "q", Answer: "a"}))
	require.NoError(t, history.ClearHistory(ctx, "s1"))

	loaded, err := history.LoadHistory(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestHistoryStore_SessionIDs(t *testing.T) {
	store := newTestStore(t)
	history := store.HistoryStore()
	ctx := context.Background()

	ids, err := history.SessionIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, history.AppendExchange(ctx, "beta", domain.Exchange{Question: "q", Answer: "a"}))
	require.NoError(t, history.AppendExchange(ctx, "alpha", domain.Exchange{Question: "q", Answer: "a"}))
	require.NoError(t, history.AppendExchange(ctx, "alpha", domain.Exchange{Question: "q2", Answer: "a2"}))

	ids, err = history.SessionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, ids)
}

func TestEncodeDecodeEmbedding(t *testing.T) {
	original := []float32{0, 1.5, -2.25, 3e7}

	decoded, err := decodeEmbedding(encodeEmbedding(original))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)

	empty, err := decodeEmbedding(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = decodeEmbedding([]byte{1, 2, 3})
	assert.Error(t, err)
}
