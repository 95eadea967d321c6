package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runehall/lorebook/internal/adapters/driven/vector/memory"
	"github.com/runehall/lorebook/internal/core/domain"
)

func newTestToolbox(t *testing.T, budget int) (*Toolbox, *mockEmbedder) {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	idx, err := store.Create(ctx, "rules", 2, domain.DistanceCosine)
	require.NoError(t, err)

	require.NoError(t, idx.Upsert(ctx, []domain.Chunk{
		{ID: "10_0", Page: "10", Position: 0, Content: "Initiative is rolled with a d20.", Embedding: []float32{1, 0}},
		{ID: "11_0", Page: "11", Position: 1, Content: "Surprised creatures act last.", Embedding: []float32{0.8, 0.2}},
		{ID: "42_0", Page: "42", Position: 2, Content: "Spell slots recover on a long rest.", Embedding: []float32{0, 1}},
	}))

	embedder := newMockEmbedder(2)
	embedder.vectors["initiative"] = []float32{1, 0}
	embedder.vectors["magic"] = []float32{0, 1}

	retriever := NewRetrieverService(embedder, idx)
	return NewToolbox(retriever, 2, 3, budget), embedder
}

func TestToolboxSearch(t *testing.T) {
	ctx := context.Background()
	tools, _ := newTestToolbox(t, 4000)

	t.Run("renders page, text and score per line", func(t *testing.T) {
		out, err := tools.Search(ctx, "initiative")
		require.NoError(t, err)

		lines := strings.Split(out, "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], "[10] Initiative is rolled with a d20.")
		assert.Contains(t, lines[0], "(1.000)")
		assert.Contains(t, lines[1], "[11]")
	})

	t.Run("empty index yields sentinel, not an error", func(t *testing.T) {
		store := memory.NewStore()
		idx, err := store.Create(ctx, "empty", 2, domain.DistanceCosine)
		require.NoError(t, err)

		empty := NewToolbox(NewRetrieverService(newMockEmbedder(2), idx), 2, 3, 4000)
		out, err := empty.Search(ctx, "anything")
		require.NoError(t, err)
		assert.Equal(t, NoRelevantContent, out)
	})
}

func TestToolboxSummarize(t *testing.T) {
	ctx := context.Background()

	t.Run("concatenates chunk texts in rank order", func(t *testing.T) {
		tools, _ := newTestToolbox(t, 4000)
		out, err := tools.Summarize(ctx, "magic")
		require.NoError(t, err)

		first := strings.Index(out, "Spell slots")
		second := strings.Index(out, "Surprised creatures")
		require.GreaterOrEqual(t, first, 0)
		require.Greater(t, second, first)
	})

	t.Run("truncates at the character budget", func(t *testing.T) {
		tools, _ := newTestToolbox(t, 20)
		out, err := tools.Summarize(ctx, "magic")
		require.NoError(t, err)
		assert.LessOrEqual(t, len([]rune(out)), 20)
	})
}

func TestToolboxDispatch(t *testing.T) {
	ctx := context.Background()
	tools, _ := newTestToolbox(t, 4000)

	t.Run("declared names", func(t *testing.T) {
		assert.Equal(t, []string{ToolSearch, ToolSummarize}, tools.Names())
		assert.True(t, tools.Has(ToolSearch))
		assert.True(t, tools.Has(ToolSummarize))
		assert.False(t, tools.Has("delete_collection"))
	})

	t.Run("routes by name", func(t *testing.T) {
		out, err := tools.Dispatch(ctx, ToolSearch, "initiative")
		require.NoError(t, err)
		assert.Contains(t, out, "[10]")
	})

	t.Run("unknown tool is an error", func(t *testing.T) {
		_, err := tools.Dispatch(ctx, "lookup", "anything")
		assert.Error(t, err)
	})
}
