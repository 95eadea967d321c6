// Package chunker splits parsed documents into overlapping,
// boundary-aware chunks suitable for embedding.
package chunker

import (
	"fmt"
	"strings"

	"github.com/runehall/lorebook/internal/core/domain"
)

// parserErrorMarker flags pages the upstream parser failed to extract.
// Such pages are excluded from chunking.
const parserErrorMarker = "[Error:"

// Chunker produces an ordered sequence of chunks covering a document
// with no gaps. Consecutive chunks share an overlap span to preserve
// context across cut points.
type Chunker struct {
	size     int
	overlap  int
	boundary domain.ChunkBoundary
}

// New creates a chunker from validated settings.
// Fails with domain.ErrConfiguration if the settings would not advance
// through the text (chunk size not greater than overlap).
func New(cfg domain.ChunkingSettings) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}
	return &Chunker{
		size:     cfg.ChunkSize,
		overlap:  cfg.Overlap,
		boundary: cfg.Boundary,
	}, nil
}

// Split chunks every page of the document in order. Chunk IDs are
// stable "<page>_<ordinal>" strings; positions are a global sequence
// across the whole document. A final chunk shorter than the configured
// size is retained, never dropped or padded.
func (c *Chunker) Split(doc domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	position := 0

	for _, page := range doc.Pages {
		if strings.Contains(page.Text, parserErrorMarker) {
			continue
		}
		if strings.TrimSpace(page.Text) == "" {
			continue
		}

		runes := []rune(page.Text)
		start := 0
		ordinal := 0

		for start < len(runes) {
			end := start + c.size
			if end >= len(runes) {
				end = len(runes)
			} else if c.boundary != domain.BoundaryFixed {
				end = c.snapToBoundary(runes, start, end)
			}

			chunks = append(chunks, domain.Chunk{
				ID:         fmt.Sprintf("%s_%d", page.Ref, ordinal),
				DocumentID: doc.ID,
				Page:       page.Ref,
				Content:    string(runes[start:end]),
				Position:   position,
			})
			position++
			ordinal++

			if end == len(runes) {
				break
			}
			start = end - c.overlap
		}
	}

	return chunks
}

// snapToBoundary moves the cut back to the last boundary inside the
// window, provided the chunk still advances past the overlap region.
// Falls back to the fixed-width cut when no boundary fits.
func (c *Chunker) snapToBoundary(runes []rune, start, end int) int {
	// A cut at or before start+overlap would make the next chunk start
	// at or before this one; refuse such boundaries.
	minCut := start + c.overlap + 1

	for i := end - 1; i >= minCut; i-- {
		if c.isBoundary(runes, i) {
			return i + 1
		}
	}
	return end
}

// isBoundary reports whether a cut immediately after runes[i] respects
// the configured boundary policy.
func (c *Chunker) isBoundary(runes []rune, i int) bool {
	switch c.boundary {
	case domain.BoundarySentence:
		switch runes[i] {
		case '.', '!', '?':
			return true
		}
		return false
	case domain.BoundaryParagraph:
		return runes[i] == '\n' && i > 0 && runes[i-1] == '\n'
	default:
		return false
	}
}
