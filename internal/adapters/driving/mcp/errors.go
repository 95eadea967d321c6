// Package mcp provides an MCP (Model Context Protocol) server adapter for
// Lorebook. It exposes the rulebook retrieval tools to external AI
// assistants such as Claude.
package mcp

import "errors"

// ErrMissingToolService is returned when the tool service is not provided.
var ErrMissingToolService = errors.New("mcp: tool service is required")
