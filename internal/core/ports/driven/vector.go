package driven

import (
	"context"

	"github.com/runehall/lorebook/internal/core/domain"
)

// VectorIndex stores (chunk, vector) entries for one collection and
// supports nearest-neighbour similarity search.
//
// Implementations guarantee deterministic ordering: results are sorted
// by descending score, ties broken by lower chunk position. Search on
// an empty collection returns an empty slice, not an error.
type VectorIndex interface {
	// Upsert adds or replaces entries keyed by chunk ID. Chunks carry
	// their embeddings. Writers hold exclusive access per collection.
	Upsert(ctx context.Context, chunks []domain.Chunk) error

	// Search returns the k entries most similar to the query vector.
	// k must be positive; fails with domain.ErrInvalidArgument otherwise.
	// Never returns more results than stored entries.
	Search(ctx context.Context, query []float32, k int) ([]domain.SearchResult, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Close releases resources for this handle.
	Close() error
}

// CollectionStore manages named collections, one durable corpus per
// book. Dropping or reindexing one collection never affects others.
type CollectionStore interface {
	// Create makes a new collection with a fixed dimensionality and
	// distance measure, replacing any existing collection of that name.
	Create(ctx context.Context, name string, dimension int, distance domain.Distance) (VectorIndex, error)

	// Load opens an existing collection.
	// Returns domain.ErrNotFound if the collection is absent.
	Load(ctx context.Context, name string) (VectorIndex, error)

	// Drop removes a collection and all its entries.
	Drop(ctx context.Context, name string) error

	// List returns descriptions of all collections.
	List(ctx context.Context) ([]domain.CollectionInfo, error)

	// Close releases all resources.
	Close() error
}
