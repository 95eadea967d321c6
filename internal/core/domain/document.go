package domain

import "time"

// Document is the ordered text of one source book after parsing.
// It is immutable once parsed; chunking happens at index-build time.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable book title.
	Title string

	// Path is the original location of the parsed text.
	Path string

	// Pages holds the ordered text units extracted from the book.
	// A plain text source is represented as a single page.
	Pages []Page
}

// Page is one raw text unit of a Document, keyed by its source reference.
type Page struct {
	// Ref is the page or section label from the source book ("12", "A-3").
	Ref string

	// Text is the raw extracted text for this page.
	Text string
}

// Chunk is the atomic retrievable unit: a contiguous span of document
// text with a stable identity. Chunks are created once at index-build
// time and never mutated; changing chunking parameters requires a full
// reindex of the collection.
type Chunk struct {
	// ID is the stable chunk identifier, "<page>_<ordinal>".
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Page is the source page/section reference.
	Page string

	// Content is the text span of this chunk.
	Content string

	// Position is the global sequence index across the whole document.
	// It is the deterministic tie-breaker for equal-score search results.
	Position int

	// Embedding is the vector representation. Populated during indexing;
	// every indexed chunk carries exactly one vector of the collection's
	// configured dimensionality.
	Embedding []float32
}

// CollectionInfo describes one named corpus of indexed chunks.
type CollectionInfo struct {
	// Name identifies the collection; one collection per book.
	Name string

	// Dimension is the configured vector size for all entries.
	Dimension int

	// Distance is the similarity measure fixed at creation.
	Distance Distance

	// Chunks is the number of stored entries.
	Chunks int

	// CreatedAt is when the collection was created.
	CreatedAt time.Time
}

// Distance selects the similarity measure for a collection.
// It is fixed when the collection is created.
type Distance string

// Available distance measures.
const (
	// DistanceCosine is cosine similarity, the default.
	DistanceCosine Distance = "cosine"

	// DistanceDot is inner-product similarity.
	DistanceDot Distance = "dot"
)

// IsValid returns true if the distance measure is recognised.
func (d Distance) IsValid() bool {
	switch d {
	case DistanceCosine, DistanceDot:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (d Distance) String() string {
	return string(d)
}
