// Package memory provides an in-memory vector store. Collections live
// for the lifetime of the process; useful for tests and one-shot runs
// where durability is not wanted.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/runehall/lorebook/internal/core/domain"
	"github.com/runehall/lorebook/internal/core/ports/driven"
)

// Store holds named collections in process memory.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*Index
}

var _ driven.CollectionStore = (*Store)(nil)

// NewStore creates an empty in-memory collection store.
func NewStore() *Store {
	return &Store{collections: make(map[string]*Index)}
}

// Create makes a new collection, replacing any existing one of the same name.
func (s *Store) Create(ctx context.Context, name string, dimension int, distance domain.Distance) (driven.VectorIndex, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is empty", domain.ErrInvalidArgument)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidArgument, dimension)
	}
	if !distance.IsValid() {
		return nil, fmt.Errorf("%w: unknown distance %q", domain.ErrInvalidArgument, distance)
	}

	idx := &Index{
		name:      name,
		dimension: dimension,
		distance:  distance,
		createdAt: time.Now().UTC(),
		chunks:    make(map[string]domain.Chunk),
	}

	s.mu.Lock()
	s.collections[name] = idx
	s.mu.Unlock()

	return idx, nil
}

// Load returns an existing collection or domain.ErrNotFound.
func (s *Store) Load(ctx context.Context, name string) (driven.VectorIndex, error) {
	s.mu.RLock()
	idx, ok := s.collections[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: collection %q", domain.ErrNotFound, name)
	}
	return idx, nil
}

// Drop removes a collection. Dropping a missing collection is not an error.
func (s *Store) Drop(ctx context.Context, name string) error {
	s.mu.Lock()
	delete(s.collections, name)
	s.mu.Unlock()
	return nil
}

// List returns info for all collections, sorted by name.
func (s *Store) List(ctx context.Context) ([]domain.CollectionInfo, error) {
	s.mu.RLock()
	infos := make([]domain.CollectionInfo, 0, len(s.collections))
	for _, idx := range s.collections {
		infos = append(infos, idx.info())
	}
	s.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Close releases all collections.
func (s *Store) Close() error {
	s.mu.Lock()
	s.collections = make(map[string]*Index)
	s.mu.Unlock()
	return nil
}

// Index is a single in-memory collection searched by brute force.
type Index struct {
	name      string
	dimension int
	distance  domain.Distance
	createdAt time.Time

	mu     sync.RWMutex
	chunks map[string]domain.Chunk
}

var _ driven.VectorIndex = (*Index)(nil)

// Upsert inserts or replaces chunks by ID.
func (ix *Index) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	for _, c := range chunks {
		if len(c.Embedding) != ix.dimension {
			return fmt.Errorf("%w: chunk %s has dimension %d, collection expects %d",
				domain.ErrInvalidArgument, c.ID, len(c.Embedding), ix.dimension)
		}
	}

	ix.mu.Lock()
	for _, c := range chunks {
		ix.chunks[c.ID] = c
	}
	ix.mu.Unlock()
	return nil
}

// Search scores every stored chunk against the query and returns the
// top k. Ties are broken by lower chunk position.
func (ix *Index) Search(ctx context.Context, query []float32, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	if len(query) != ix.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, collection expects %d",
			domain.ErrInvalidArgument, len(query), ix.dimension)
	}

	ix.mu.RLock()
	results := make([]domain.SearchResult, 0, len(ix.chunks))
	for _, c := range ix.chunks {
		results = append(results, domain.SearchResult{
			Chunk: c,
			Score: Similarity(ix.distance, query, c.Embedding),
		})
	}
	ix.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Position < results[j].Chunk.Position
	})

	if len(results) > k {
		results = results[:k]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}

// Count reports the number of stored chunks.
func (ix *Index) Count(ctx context.Context) (int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks), nil
}

// Close is a no-op for in-memory collections.
func (ix *Index) Close() error { return nil }

func (ix *Index) info() domain.CollectionInfo {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return domain.CollectionInfo{
		Name:      ix.name,
		Dimension: ix.dimension,
		Distance:  ix.distance,
		Chunks:    len(ix.chunks),
		CreatedAt: ix.createdAt,
	}
}

// Similarity scores two vectors of equal length under the given
// distance. Cosine degenerates to zero when either vector has no
// magnitude.
func Similarity(distance domain.Distance, a, b []float32) float64 {
	switch distance {
	case domain.DistanceDot:
		return dot(a, b)
	default:
		return cosine(a, b)
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func cosine(a, b []float32) float64 {
	var dotSum, normA, normB float64
	for i := range a {
		dotSum += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotSum / (math.Sqrt(normA) * math.Sqrt(normB))
}
