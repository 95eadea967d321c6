package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/runehall/lorebook/internal/core/ports/driving"
	"github.com/runehall/lorebook/internal/logger"
)

// Ensure Toolbox implements the interface.
var _ driving.ToolService = (*Toolbox)(nil)

// Tool names exposed to the agent and the MCP server.
const (
	ToolSearch    = "search"
	ToolSummarize = "summarize"
)

// NoRelevantContent is returned by the search tool when retrieval
// yields nothing. An observation, not an error: the agent should see
// it and decide what to do next.
const NoRelevantContent = "no relevant content found"

// Toolbox is the closed set of read-only retrieval capabilities shared
// by the agent loop and the MCP server.
type Toolbox struct {
	retriever *RetrieverService
	k         int
	summaryK  int
	budget    int
}

// NewToolbox creates the tool set over a retriever.
func NewToolbox(retriever *RetrieverService, k, summaryK, budget int) *Toolbox {
	return &Toolbox{
		retriever: retriever,
		k:         k,
		summaryK:  summaryK,
		budget:    budget,
	}
}

// Names returns the declared tool names.
func (t *Toolbox) Names() []string {
	return []string{ToolSearch, ToolSummarize}
}

// Has reports whether a tool name is declared.
func (t *Toolbox) Has(name string) bool {
	return name == ToolSearch || name == ToolSummarize
}

// Dispatch invokes a tool by name.
func (t *Toolbox) Dispatch(ctx context.Context, name, input string) (string, error) {
	switch name {
	case ToolSearch:
		return t.Search(ctx, input)
	case ToolSummarize:
		return t.Summarize(ctx, input)
	default:
		return "", fmt.Errorf("unknown tool %q", name)
	}
}

// Search retrieves chunks relevant to the query and renders them one
// per line as "[page] text (score)".
func (t *Toolbox) Search(ctx context.Context, query string) (string, error) {
	results, err := t.retriever.Retrieve(ctx, query, t.k)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		logger.Debug("Search tool found nothing for %q", query)
		return NoRelevantContent, nil
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s] %s (%.3f)", r.Chunk.Page, strings.TrimSpace(r.Chunk.Content), r.Score)
	}
	return b.String(), nil
}

// Summarize aggregates a wider retrieval into one overview, keeping
// rank order and truncating at the character budget.
func (t *Toolbox) Summarize(ctx context.Context, topic string) (string, error) {
	results, err := t.retriever.Retrieve(ctx, topic, t.summaryK)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return NoRelevantContent, nil
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.TrimSpace(r.Chunk.Content))
	}

	summary := b.String()
	if runes := []rune(summary); len(runes) > t.budget {
		summary = string(runes[:t.budget])
	}
	return summary, nil
}
