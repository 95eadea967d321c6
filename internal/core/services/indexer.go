package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/runehall/lorebook/internal/chunker"
	"github.com/runehall/lorebook/internal/core/domain"
	"github.com/runehall/lorebook/internal/core/ports/driven"
	"github.com/runehall/lorebook/internal/core/ports/driving"
	"github.com/runehall/lorebook/internal/logger"
)

// Ensure IndexerService implements the interface.
var _ driving.IndexService = (*IndexerService)(nil)

const (
	// embedGroupSize is how many chunks go into one embedding request.
	embedGroupSize = 32

	// embedWorkers bounds concurrent embedding requests.
	embedWorkers = 4

	// upsertBatchSize is how many chunks are written per transaction.
	upsertBatchSize = 100
)

// IndexerService builds a searchable collection from a parsed document:
// split into chunks, embed, store. A build fully replaces the previous
// collection contents; a failed build leaves no partial corpus behind.
type IndexerService struct {
	chunking domain.ChunkingSettings
	embedder driven.EmbeddingService
	store    driven.CollectionStore
}

// NewIndexerService creates a new indexer.
func NewIndexerService(
	chunking domain.ChunkingSettings,
	embedder driven.EmbeddingService,
	store driven.CollectionStore,
) *IndexerService {
	return &IndexerService{
		chunking: chunking,
		embedder: embedder,
		store:    store,
	}
}

// IndexDocument chunks, embeds and stores a document under the named
// collection.
func (s *IndexerService) IndexDocument(ctx context.Context, doc domain.Document, collection string) (driving.IndexStats, error) {
	logger.Section("Indexing")
	logger.Debug("Document %q, collection %q", doc.Title, collection)

	split, err := chunker.New(s.chunking)
	if err != nil {
		return driving.IndexStats{}, err
	}

	chunks := split.Split(doc)
	if len(chunks) == 0 {
		return driving.IndexStats{}, fmt.Errorf("%w: document %q produced no chunks", domain.ErrInvalidArgument, doc.Title)
	}
	logger.Debug("Split into %d chunks", len(chunks))

	if err := s.embedChunks(ctx, chunks); err != nil {
		return driving.IndexStats{}, err
	}

	// Create replaces any previous collection of the same name, so the
	// corpus is rebuilt from scratch on every index run.
	index, err := s.store.Create(ctx, collection, s.embedder.Dimensions(), domain.DistanceCosine)
	if err != nil {
		return driving.IndexStats{}, fmt.Errorf("creating collection: %w", err)
	}
	defer index.Close()

	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := index.Upsert(ctx, chunks[start:end]); err != nil {
			return driving.IndexStats{}, fmt.Errorf("storing chunks: %w", err)
		}
		logger.Debug("Stored chunks %d-%d", start, end-1)
	}

	pages := make(map[string]struct{})
	for _, c := range chunks {
		pages[c.Page] = struct{}{}
	}

	return driving.IndexStats{
		Collection: collection,
		Chunks:     len(chunks),
		Pages:      len(pages),
		Dimension:  s.embedder.Dimensions(),
	}, nil
}

// embedChunks fills in chunk embeddings in place, embedding groups of
// chunks concurrently through a bounded worker pool. Output order is
// preserved because each worker writes only its own group.
func (s *IndexerService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		sem      = make(chan struct{}, embedWorkers)
		errOnce  sync.Once
		firstErr error
	)

	for start := 0; start < len(chunks); start += embedGroupSize {
		end := start + embedGroupSize
		if end > len(chunks) {
			end = len(chunks)
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return fmt.Errorf("%w: %v", domain.ErrTimeout, ctx.Err())
		}

		wg.Add(1)
		go func(group []domain.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()

			texts := make([]string, len(group))
			for i, c := range group {
				texts[i] = c.Content
			}

			vectors, err := s.embedder.EmbedBatch(ctx, texts)
			if err != nil {
				errOnce.Do(func() {
					firstErr = fmt.Errorf("embedding chunks: %w", err)
					cancel()
				})
				return
			}

			for i := range group {
				group[i].Embedding = vectors[i]
			}
		}(chunks[start:end])
	}

	wg.Wait()
	return firstErr
}
