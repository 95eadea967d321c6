package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/runehall/lorebook/internal/core/ports/driven"
)

// mockEmbedder is a scripted embedding service for service tests.
type mockEmbedder struct {
	mu        sync.Mutex
	dims      int
	vectors   map[string][]float32
	fallback  []float32
	embedErr  error
	calls     int
	batchSize []int
}

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{
		dims:     dims,
		vectors:  make(map[string][]float32),
		fallback: make([]float32, dims),
	}
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return m.fallback, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.batchSize = append(m.batchSize, len(texts))
	err := m.embedErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		m.mu.Lock()
		v, ok := m.vectors[text]
		m.mu.Unlock()
		if !ok {
			v = m.fallback
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }

func (m *mockEmbedder) ModelName() string { return "mock-embed" }

func (m *mockEmbedder) Ping(ctx context.Context) error { return nil }

func (m *mockEmbedder) Close() error { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockLLM replays scripted chat replies in order.
type mockLLM struct {
	mu            sync.Mutex
	replies       []string
	replyIdx      int
	chatErr       error
	generateOut   string
	generateErr   error
	chatCalls     int
	generateCalls int
	lastMessages  []driven.ChatMessage
}

var _ driven.LLMService = (*mockLLM)(nil)

func (m *mockLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatCalls++
	m.lastMessages = messages
	if m.chatErr != nil {
		return "", m.chatErr
	}
	if m.replyIdx >= len(m.replies) {
		return "", fmt.Errorf("mock llm: no scripted reply for call %d", m.chatCalls)
	}
	reply := m.replies[m.replyIdx]
	m.replyIdx++
	return reply, nil
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateCalls++
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return m.generateOut, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

func (m *mockLLM) Ping(ctx context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }
