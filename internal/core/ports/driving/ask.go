// Package driving provides interfaces for external actors (primary/inbound ports).
package driving

import (
	"context"

	"github.com/runehall/lorebook/internal/core/domain"
)

// AskService answers natural-language questions over an indexed book.
type AskService interface {
	// Ask answers a question. Mode basic always takes the retrieval-only
	// path; mode llm uses the agent loop when available and degrades to
	// retrieval-only on failure. Every call yields either an answer or a
	// clearly labelled degraded answer.
	Ask(ctx context.Context, question string, mode domain.AskMode) (domain.Answer, error)
}

// ToolService exposes the agent's read-only retrieval capabilities.
// Also served over MCP for external assistants.
type ToolService interface {
	// Search retrieves chunks relevant to the query and renders them as
	// "[page] text (score)" lines. Empty results produce a sentinel
	// string, never an error.
	Search(ctx context.Context, query string) (string, error)

	// Summarize aggregates a larger retrieval into a budgeted overview,
	// preserving rank order.
	Summarize(ctx context.Context, topic string) (string, error)
}
