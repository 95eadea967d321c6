package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runehall/lorebook/internal/adapters/driven/vector/memory"
	"github.com/runehall/lorebook/internal/chunker"
	"github.com/runehall/lorebook/internal/core/domain"
)

func pagesOf(n, charsPerPage int) []domain.Page {
	pages := make([]domain.Page, n)
	for i := range pages {
		pages[i] = domain.Page{
			Ref:  fmt.Sprintf("%d", i+1),
			Text: strings.Repeat("The quick grey owlbear strikes first. ", charsPerPage/38+1),
		}
	}
	return pages
}

func TestIndexerIndexDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("builds a searchable collection", func(t *testing.T) {
		store := memory.NewStore()
		indexer := NewIndexerService(domain.DefaultChunkingSettings(), newMockEmbedder(3), store)

		doc := domain.Document{
			ID:    "core",
			Title: "core",
			Pages: pagesOf(4, 1200),
		}

		stats, err := indexer.IndexDocument(ctx, doc, "rules")
		require.NoError(t, err)
		assert.Equal(t, "rules", stats.Collection)
		assert.Equal(t, 4, stats.Pages)
		assert.Equal(t, 3, stats.Dimension)
		assert.Greater(t, stats.Chunks, 4)

		idx, err := store.Load(ctx, "rules")
		require.NoError(t, err)
		n, err := idx.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, stats.Chunks, n)
	})

	t.Run("reindex replaces previous contents", func(t *testing.T) {
		store := memory.NewStore()
		indexer := NewIndexerService(domain.DefaultChunkingSettings(), newMockEmbedder(3), store)

		big := domain.Document{ID: "core", Title: "core", Pages: pagesOf(6, 1200)}
		small := domain.Document{ID: "core", Title: "core", Pages: pagesOf(1, 600)}

		bigStats, err := indexer.IndexDocument(ctx, big, "rules")
		require.NoError(t, err)
		smallStats, err := indexer.IndexDocument(ctx, small, "rules")
		require.NoError(t, err)
		assert.Less(t, smallStats.Chunks, bigStats.Chunks)

		idx, err := store.Load(ctx, "rules")
		require.NoError(t, err)
		n, err := idx.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, smallStats.Chunks, n)
	})

	t.Run("indexed chunk is retrievable by its own text", func(t *testing.T) {
		store := memory.NewStore()
		settings := domain.DefaultChunkingSettings()

		// Distinct prose per page so every chunk's content is unique.
		pages := make([]domain.Page, 3)
		for i := range pages {
			var b strings.Builder
			for s := 0; b.Len() < 1200; s++ {
				fmt.Fprintf(&b, "Rule %d on page %d covers a distinct situation in play. ", s, i+1)
			}
			pages[i] = domain.Page{Ref: fmt.Sprintf("%d", i+1), Text: b.String()}
		}
		doc := domain.Document{ID: "core", Title: "core", Pages: pages}

		// Chunking is deterministic, so the same settings reproduce
		// the chunks the indexer will store. Give each chunk its own
		// basis vector so an exact-text query lands on it alone.
		split, err := chunker.New(settings)
		require.NoError(t, err)
		chunks := split.Split(doc)
		require.NotEmpty(t, chunks)

		embedder := newMockEmbedder(len(chunks))
		for i, c := range chunks {
			v := make([]float32, len(chunks))
			v[i] = 1
			embedder.vectors[c.Content] = v
		}

		indexer := NewIndexerService(settings, embedder, store)
		_, err = indexer.IndexDocument(ctx, doc, "rules")
		require.NoError(t, err)

		idx, err := store.Load(ctx, "rules")
		require.NoError(t, err)

		results, err := NewRetrieverService(embedder, idx).Retrieve(ctx, chunks[0].Content, 3)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, 1, results[0].Rank)
		assert.Equal(t, chunks[0].ID, results[0].Chunk.ID)
		assert.Equal(t, chunks[0].Content, results[0].Chunk.Content)
	})

	t.Run("document with no usable pages fails", func(t *testing.T) {
		store := memory.NewStore()
		indexer := NewIndexerService(domain.DefaultChunkingSettings(), newMockEmbedder(3), store)

		doc := domain.Document{
			ID:    "empty",
			Title: "empty",
			Pages: []domain.Page{{Ref: "1", Text: "[Error: extraction failed]"}},
		}

		_, err := indexer.IndexDocument(ctx, doc, "rules")
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	})

	t.Run("embedding failure aborts with no partial collection", func(t *testing.T) {
		store := memory.NewStore()
		embedder := newMockEmbedder(3)
		embedder.embedErr = domain.ErrProvider
		indexer := NewIndexerService(domain.DefaultChunkingSettings(), embedder, store)

		doc := domain.Document{ID: "core", Title: "core", Pages: pagesOf(2, 1200)}

		_, err := indexer.IndexDocument(ctx, doc, "rules")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrProvider))

		_, err = store.Load(ctx, "rules")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("invalid chunking settings fail before any work", func(t *testing.T) {
		store := memory.NewStore()
		indexer := NewIndexerService(domain.ChunkingSettings{ChunkSize: 10, Overlap: 20, Boundary: domain.BoundaryFixed},
			newMockEmbedder(3), store)

		doc := domain.Document{ID: "core", Title: "core", Pages: pagesOf(1, 600)}

		_, err := indexer.IndexDocument(ctx, doc, "rules")
		assert.True(t, errors.Is(err, domain.ErrConfiguration))
	})
}
