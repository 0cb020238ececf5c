package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkanlabs/docchat/internal/core/domain"
)

func frag(id, filename string, embedding ...float32) domain.Fragment {
	return domain.Fragment{
		ID:        id,
		Filename:  filename,
		Content:   "content of " + id,
		Embedding: embedding,
	}
}

func TestIndex_UpsertAndCount(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()

	err := index.Upsert(ctx, []domain.Fragment{
		frag("f1", "a.txt", 1, 0, 0),
		frag("f2", "a.txt", 0, 1, 0),
	})
	require.NoError(t, err)

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestIndex_UpsertReplacesByID(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, []domain.Fragment{frag("f1", "a.txt", 1, 0, 0)}))
	require.NoError(t, index.Upsert(ctx, []domain.Fragment{frag("f1", "a.txt", 0, 1, 0)}))

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIndex_UpsertValidation(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()

	err := index.Upsert(ctx, []domain.Fragment{frag("", "a.txt", 1)})
	assert.Error(t, err)

	err = index.Upsert(ctx, []domain.Fragment{{ID: "f1", Filename: "a.txt"}})
	assert.Error(t, err)
}

func TestIndex_SearchOrdersByScore(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, []domain.Fragment{
		frag("exact", "a.txt", 1, 0, 0),
		frag("close", "a.txt", 1, 0.2, 0),
		frag("far", "a.txt", 0, 1, 0),
	}))

	results, err := index.Search(ctx, []float32{1, 0, 0}, 3, "")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "exact", results[0].ID)
	assert.Equal(t, "close", results[1].ID)
	assert.Equal(t, "far", results[2].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestIndex_SearchTiesBreakByInsertionOrder(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()

	// Identical vectors score identically; insertion order decides.
	require.NoError(t, index.Upsert(ctx, []domain.Fragment{
		frag("first", "a.txt", 1, 0, 0),
		frag("second", "a.txt", 1, 0, 0),
		frag("third", "a.txt", 1, 0, 0),
	}))

	results, err := index.Search(ctx, []float32{1, 0, 0}, 3, "")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].ID)
	assert.Equal(t, "second", results[1].ID)
	assert.Equal(t, "third", results[2].ID)
}

func TestIndex_SearchFilenameFilter(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, []domain.Fragment{
		frag("a1", "a.txt", 1, 0, 0),
		frag("b1", "b.txt", 1, 0, 0),
	}))

	results, err := index.Search(ctx, []float32{1, 0, 0}, 5, "b.txt")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b1", results[0].ID)
}

func TestIndex_SearchKLargerThanIndex(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, []domain.Fragment{frag("f1", "a.txt", 1, 0, 0)}))

	results, err := index.Search(ctx, []float32{1, 0, 0}, 10, "")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestIndex_SearchValidation(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()

	_, err := index.Search(ctx, nil, 3, "")
	assert.Error(t, err)

	_, err = index.Search(ctx, []float32{1}, 0, "")
	assert.Error(t, err)
}

func TestIndex_SearchDimensionMismatch(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, []domain.Fragment{frag("f1", "a.txt", 1, 0, 0)}))

	_, err := index.Search(ctx, []float32{1, 0}, 1, "")
	assert.Error(t, err)
}

func TestIndex_DeleteByFilename(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, []domain.Fragment{
		frag("a1", "a.txt", 1, 0, 0),
		frag("a2", "a.txt", 0, 1, 0),
		frag("b1", "b.txt", 0, 0, 1),
	}))

	require.NoError(t, index.DeleteByFilename(ctx, "a.txt"))

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}), 1e-9)
}
