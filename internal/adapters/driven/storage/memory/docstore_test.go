package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkanlabs/docchat/internal/core/domain"
)

func TestDocStore_SaveAndGetRecord(t *testing.T) {
	store := NewDocStore()
	ctx := context.Background()

	rec := &domain.DocumentRecord{
		Filename:   "guide.txt",
		Hash:       "abc123",
		Chunks:     4,
		IngestedAt: time.Now(),
	}
	require.NoError(t, store.SaveRecord(ctx, rec))

	byName, err := store.GetRecordByFilename(ctx, "guide.txt")
	require.NoError(t, err)
	assert.Equal(t, "abc123", byName.Hash)
	assert.Equal(t, 4, byName.Chunks)

	byHash, err := store.GetRecordByHash(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "guide.txt", byHash.Filename)
}

func TestDocStore_GetMissing(t *testing.T) {
	store := NewDocStore()
	ctx := context.Background()

	_, err := store.GetRecordByFilename(ctx, "missing.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.GetRecordByHash(ctx, "nohash")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocStore_SaveRecord_Update(t *testing.T) {
	store := NewDocStore()
	ctx := context.Background()

	require.NoError(t, store.SaveRecord(ctx, &domain.DocumentRecord{Filename: "doc.txt", Hash: "v1", Chunks: 2}))
	require.NoError(t, store.SaveRecord(ctx, &domain.DocumentRecord{Filename: "doc.txt", Hash: "v2", Chunks: 3}))

	rec, err := store.GetRecordByFilename(ctx, "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "v2", rec.Hash)
	assert.Equal(t, 3, rec.Chunks)
}

func TestDocStore_ListRecordsOrdered(t *testing.T) {
	store := NewDocStore()
	ctx := context.Background()

	require.NoError(t, store.SaveRecord(ctx, &domain.DocumentRecord{Filename: "zeta.txt", Hash: "z"}))
	require.NoError(t, store.SaveRecord(ctx, &domain.DocumentRecord{Filename: "alpha.txt", Hash: "a"}))

	records, err := store.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "alpha.txt", records[0].Filename)
	assert.Equal(t, "zeta.txt", records[1].Filename)
}

func TestDocStore_DeleteRecordRemovesFragments(t *testing.T) {
	store := NewDocStore()
	ctx := context.Background()

	require.NoError(t, store.SaveRecord(ctx, &domain.DocumentRecord{Filename: "doc.txt", Hash: "h"}))
	require.NoError(t, store.SaveFragments(ctx, []domain.Fragment{
		{ID: "f1", Filename: "doc.txt", Position: 0, Content: "part one"},
	}))

	require.NoError(t, store.DeleteRecord(ctx, "doc.txt"))

	_, err := store.GetRecordByFilename(ctx, "doc.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	fragments, err := store.GetFragments(ctx, "doc.txt")
	require.NoError(t, err)
	assert.Empty(t, fragments)
}

func TestDocStore_DeleteMissing(t *testing.T) {
	store := NewDocStore()
	err := store.DeleteRecord(context.Background(), "missing.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocStore_FragmentsOrderedByPosition(t *testing.T) {
	store := NewDocStore()
	ctx := context.Background()

	require.NoError(t, store.SaveFragments(ctx, []domain.Fragment{
		{ID: "f2", Filename: "doc.txt", Position: 1, Content: "second"},
		{ID: "f1", Filename: "doc.txt", Position: 0, Content: "first"},
	}))

	fragments, err := store.GetFragments(ctx, "doc.txt")
	require.NoError(t, err)
	require.Len(t, fragments, 2)
	assert.Equal(t, "first", fragments[0].Content)
	assert.Equal(t, "second", fragments[1].Content)
}

func TestDocStore_SaveFragments_ReplaceByID(t *testing.T) {
	store := NewDocStore()
	ctx := context.Background()

	require.NoError(t, store.SaveFragments(ctx, []domain.Fragment{
		{ID: "f1", Filename: "doc.txt", Position: 0, Content: "old"},
	}))
	require.NoError(t, store.SaveFragments(ctx, []domain.Fragment{
		{ID: "f1", Filename: "doc.txt", Position: 0, Content: "new"},
	}))

	fragments, err := store.GetFragments(ctx, "doc.txt")
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	assert.Equal(t, "new", fragments[0].Content)
}
