package mcp

import (
	"github.com/runehall/lorebook/internal/core/ports/driven"
	"github.com/runehall/lorebook/internal/core/ports/driving"
)

// Ports aggregates the port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Tools provides the search and summarize capabilities.
	Tools driving.ToolService

	// Ask answers full questions through the agent loop. Optional.
	Ask driving.AskService

	// Collections lists available collections. Optional.
	Collections driven.CollectionStore
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Tools == nil {
		return ErrMissingToolService
	}
	// Ask and Collections are optional
	return nil
}
