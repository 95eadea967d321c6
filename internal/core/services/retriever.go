package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/runehall/lorebook/internal/core/domain"
	"github.com/runehall/lorebook/internal/core/ports/driven"
	"github.com/runehall/lorebook/internal/logger"
)

// RetrieverService turns a text query into ranked chunks. Query
// embeddings are memoised so the agent asking the same thing twice in
// one session costs one provider call. A query's embedding depends
// only on the embedding model, which is fixed for the life of the
// process, so entries never need invalidating.
type RetrieverService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex

	mu    sync.RWMutex
	cache map[string][]float32
}

// NewRetrieverService creates a retriever over one collection.
func NewRetrieverService(embedder driven.EmbeddingService, index driven.VectorIndex) *RetrieverService {
	return &RetrieverService{
		embedder: embedder,
		index:    index,
		cache:    make(map[string][]float32),
	}
}

// Retrieve embeds the query and returns the k most similar chunks.
func (s *RetrieverService) Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidArgument)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}

	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := s.index.Search(ctx, vector, k)
	if err != nil {
		return nil, err
	}

	logger.Debug("Retrieved %d chunks for query %q", len(results), query)
	return results, nil
}

func (s *RetrieverService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	s.mu.RLock()
	cached, ok := s.cache[query]
	s.mu.RUnlock()
	if ok {
		logger.Debug("Query embedding cache hit")
		return cached, nil
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	s.mu.Lock()
	s.cache[query] = vector
	s.mu.Unlock()
	return vector, nil
}
