package memory

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runehall/lorebook/internal/core/domain"
)

func TestStoreCreateAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	defer store.Close()

	t.Run("create rejects bad arguments", func(t *testing.T) {
		_, err := store.Create(ctx, "", 3, domain.DistanceCosine)
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument))

		_, err = store.Create(ctx, "rules", 0, domain.DistanceCosine)
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument))

		_, err = store.Create(ctx, "rules", 3, domain.Distance("manhattan"))
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	})

	t.Run("load missing collection", func(t *testing.T) {
		_, err := store.Load(ctx, "ghost")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("create then load round-trips", func(t *testing.T) {
		created, err := store.Create(ctx, "rules", 3, domain.DistanceCosine)
		require.NoError(t, err)

		require.NoError(t, created.Upsert(ctx, []domain.Chunk{
			{ID: "12_0", Position: 0, Content: "grapple rules", Embedding: []float32{1, 0, 0}},
		}))

		loaded, err := store.Load(ctx, "rules")
		require.NoError(t, err)
		n, err := loaded.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("create replaces existing collection", func(t *testing.T) {
		fresh, err := store.Create(ctx, "rules", 3, domain.DistanceCosine)
		require.NoError(t, err)
		n, err := fresh.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("drop is idempotent", func(t *testing.T) {
		require.NoError(t, store.Drop(ctx, "rules"))
		require.NoError(t, store.Drop(ctx, "rules"))
		_, err := store.Load(ctx, "rules")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	defer store.Close()

	_, err := store.Create(ctx, "monsters", 4, domain.DistanceCosine)
	require.NoError(t, err)
	_, err = store.Create(ctx, "core", 4, domain.DistanceDot)
	require.NoError(t, err)

	infos, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "core", infos[0].Name)
	assert.Equal(t, domain.DistanceDot, infos[0].Distance)
	assert.Equal(t, "monsters", infos[1].Name)
	assert.Equal(t, 4, infos[1].Dimension)
}

func TestIndexSearch(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	defer store.Close()

	idx, err := store.Create(ctx, "rules", 3, domain.DistanceCosine)
	require.NoError(t, err)

	chunks := []domain.Chunk{
		{ID: "10_0", Page: "10", Position: 0, Content: "initiative order", Embedding: []float32{1, 0, 0}},
		{ID: "10_1", Page: "10", Position: 1, Content: "surprise rounds", Embedding: []float32{0.9, 0.1, 0}},
		{ID: "42_0", Page: "42", Position: 2, Content: "spell slots", Embedding: []float32{0, 1, 0}},
	}
	require.NoError(t, idx.Upsert(ctx, chunks))

	t.Run("ranks by similarity", func(t *testing.T) {
		results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "10_0", results[0].Chunk.ID)
		assert.Equal(t, 1, results[0].Rank)
		assert.InDelta(t, 1.0, results[0].Score, 1e-9)
		assert.Equal(t, "10_1", results[1].Chunk.ID)
		assert.Equal(t, 2, results[1].Rank)
	})

	t.Run("k larger than corpus returns all", func(t *testing.T) {
		results, err := idx.Search(ctx, []float32{0, 1, 0}, 50)
		require.NoError(t, err)
		assert.Len(t, results, 3)
		assert.Equal(t, "42_0", results[0].Chunk.ID)
	})

	t.Run("equal scores break ties by position", func(t *testing.T) {
		tied, err := store.Create(ctx, "tied", 2, domain.DistanceCosine)
		require.NoError(t, err)
		require.NoError(t, tied.Upsert(ctx, []domain.Chunk{
			{ID: "b", Position: 5, Embedding: []float32{2, 0}},
			{ID: "a", Position: 1, Embedding: []float32{1, 0}},
		}))
		results, err := tied.Search(ctx, []float32{1, 0}, 2)
		require.NoError(t, err)
		assert.Equal(t, "a", results[0].Chunk.ID)
		assert.Equal(t, "b", results[1].Chunk.ID)
	})

	t.Run("rejects non-positive k", func(t *testing.T) {
		_, err := idx.Search(ctx, []float32{1, 0, 0}, 0)
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	})

	t.Run("rejects dimension mismatch", func(t *testing.T) {
		_, err := idx.Search(ctx, []float32{1, 0}, 3)
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	})

	t.Run("empty collection returns empty slice", func(t *testing.T) {
		empty, err := store.Create(ctx, "empty", 3, domain.DistanceCosine)
		require.NoError(t, err)
		results, err := empty.Search(ctx, []float32{1, 0, 0}, 5)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestIndexUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	defer store.Close()

	idx, err := store.Create(ctx, "rules", 2, domain.DistanceCosine)
	require.NoError(t, err)

	t.Run("replaces by ID", func(t *testing.T) {
		require.NoError(t, idx.Upsert(ctx, []domain.Chunk{
			{ID: "1_0", Content: "old", Embedding: []float32{1, 0}},
		}))
		require.NoError(t, idx.Upsert(ctx, []domain.Chunk{
			{ID: "1_0", Content: "new", Embedding: []float32{0, 1}},
		}))
		n, err := idx.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		results, err := idx.Search(ctx, []float32{0, 1}, 1)
		require.NoError(t, err)
		assert.Equal(t, "new", results[0].Chunk.Content)
	})

	t.Run("rejects wrong dimension", func(t *testing.T) {
		err := idx.Upsert(ctx, []domain.Chunk{
			{ID: "bad", Embedding: []float32{1, 2, 3}},
		})
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	})
}

func TestSimilarity(t *testing.T) {
	t.Run("cosine of identical vectors is one", func(t *testing.T) {
		v := []float32{0.3, 0.4, 0.5}
		assert.InDelta(t, 1.0, Similarity(domain.DistanceCosine, v, v), 1e-9)
	})

	t.Run("cosine of orthogonal vectors is zero", func(t *testing.T) {
		assert.InDelta(t, 0.0,
			Similarity(domain.DistanceCosine, []float32{1, 0}, []float32{0, 1}), 1e-9)
	})

	t.Run("cosine of zero vector is zero", func(t *testing.T) {
		assert.Equal(t, 0.0,
			Similarity(domain.DistanceCosine, []float32{0, 0}, []float32{1, 1}))
	})

	t.Run("dot product", func(t *testing.T) {
		got := Similarity(domain.DistanceDot, []float32{1, 2}, []float32{3, 4})
		assert.InDelta(t, 11.0, got, 1e-9)
	})

	t.Run("cosine is scale invariant", func(t *testing.T) {
		a := []float32{1, 2, 3}
		b := []float32{2, 4, 6}
		got := Similarity(domain.DistanceCosine, a, b)
		assert.True(t, math.Abs(got-1.0) < 1e-6)
	})
}
