package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runehall/lorebook/internal/adapters/driven/vector/memory"
	"github.com/runehall/lorebook/internal/core/domain"
	"github.com/runehall/lorebook/internal/core/ports/driven"
)

func seedIndex(t *testing.T) driven.VectorIndex {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	idx, err := store.Create(ctx, "rules", 2, domain.DistanceCosine)
	require.NoError(t, err)

	require.NoError(t, idx.Upsert(ctx, []domain.Chunk{
		{ID: "10_0", Page: "10", Position: 0, Content: "initiative order", Embedding: []float32{1, 0}},
		{ID: "42_0", Page: "42", Position: 1, Content: "spell slots", Embedding: []float32{0, 1}},
	}))
	return idx
}

func TestRetrieverRetrieve(t *testing.T) {
	ctx := context.Background()
	idx := seedIndex(t)

	embedder := newMockEmbedder(2)
	embedder.vectors["how does initiative work"] = []float32{1, 0}

	retriever := NewRetrieverService(embedder, idx)

	t.Run("ranks against the index", func(t *testing.T) {
		results, err := retriever.Retrieve(ctx, "how does initiative work", 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "10_0", results[0].Chunk.ID)
	})

	t.Run("memoises query embeddings", func(t *testing.T) {
		before := embedder.callCount()
		_, err := retriever.Retrieve(ctx, "how does initiative work", 2)
		require.NoError(t, err)
		assert.Equal(t, before, embedder.callCount())
	})

	t.Run("rejects empty query", func(t *testing.T) {
		_, err := retriever.Retrieve(ctx, "   ", 5)
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	})

	t.Run("rejects non-positive k", func(t *testing.T) {
		_, err := retriever.Retrieve(ctx, "anything", 0)
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	})

	t.Run("propagates embedding failure", func(t *testing.T) {
		failing := newMockEmbedder(2)
		failing.embedErr = domain.ErrProvider
		r := NewRetrieverService(failing, idx)

		_, err := r.Retrieve(ctx, "anything", 3)
		assert.True(t, errors.Is(err, domain.ErrProvider))
	})
}
