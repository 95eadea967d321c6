package driving

import (
	"context"

	"github.com/runehall/lorebook/internal/core/domain"
)

// IndexStats summarises one index build.
type IndexStats struct {
	// Collection is the collection that was built.
	Collection string

	// Chunks is the number of chunks indexed.
	Chunks int

	// Pages is the number of source pages covered.
	Pages int

	// Dimension is the vector dimensionality of the collection.
	Dimension int
}

// IndexService builds searchable collections from parsed documents.
type IndexService interface {
	// IndexDocument chunks, embeds and stores a document under the named
	// collection, fully replacing any previous contents. Build errors are
	// fatal to the build step; no partial corpus is left behind.
	IndexDocument(ctx context.Context, doc domain.Document, collection string) (IndexStats, error)
}
