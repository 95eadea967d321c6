package mcp

import (
	"context"

	"github.com/runehall/lorebook/internal/core/domain"
)

// mockToolService is a mock implementation of driving.ToolService.
type mockToolService struct {
	searchOut    string
	summarizeOut string
	err          error
}

func (m *mockToolService) Search(_ context.Context, _ string) (string, error) {
	return m.searchOut, m.err
}

func (m *mockToolService) Summarize(_ context.Context, _ string) (string, error) {
	return m.summarizeOut, m.err
}

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	answer domain.Answer
	err    error
}

func (m *mockAskService) Ask(_ context.Context, _ string, _ domain.AskMode) (domain.Answer, error) {
	return m.answer, m.err
}
