package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runehall/lorebook/internal/core/domain"
	"github.com/runehall/lorebook/internal/core/ports/driven"
)

// mapConfigStore is an in-memory driven.ConfigStore for tests.
type mapConfigStore struct {
	data map[string]any
}

var _ driven.ConfigStore = (*mapConfigStore)(nil)

func newMapConfigStore() *mapConfigStore {
	return &mapConfigStore{data: make(map[string]any)}
}

func (m *mapConfigStore) Get(key string) (any, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mapConfigStore) GetString(key string) string {
	if v, ok := m.data[key].(string); ok {
		return v
	}
	return ""
}

func (m *mapConfigStore) GetInt(key string) int {
	switch v := m.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (m *mapConfigStore) GetFloat(key string) float64 {
	switch v := m.data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (m *mapConfigStore) GetBool(key string) bool {
	v, _ := m.data[key].(bool)
	return v
}

func (m *mapConfigStore) Set(key string, value any) error {
	m.data[key] = value
	return nil
}

func (m *mapConfigStore) Save() error { return nil }
func (m *mapConfigStore) Load() error { return nil }
func (m *mapConfigStore) Path() string { return "(memory)" }

func TestSettingsServiceGet(t *testing.T) {
	t.Run("empty store yields defaults", func(t *testing.T) {
		svc := NewSettingsService(newMapConfigStore())

		settings, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
		assert.Equal(t, domain.AIProviderOllama, settings.LLM.Provider)
		assert.Equal(t, domain.DefaultChunkSize, settings.Chunking.ChunkSize)
		assert.Equal(t, domain.DefaultChunkOverlap, settings.Chunking.Overlap)
		assert.Equal(t, domain.DefaultK, settings.Ask.DefaultK)
		assert.Equal(t, domain.DefaultCollection, settings.Collection)
	})

	t.Run("stored values override defaults", func(t *testing.T) {
		store := newMapConfigStore()
		require.NoError(t, store.Set("llm.provider", "anthropic"))
		require.NoError(t, store.Set("llm.model", "claude-sonnet-4-5"))
		require.NoError(t, store.Set("llm.temperature", 0.3))
		require.NoError(t, store.Set("chunking.overlap", 0))

		svc := NewSettingsService(store)
		settings, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
		assert.Equal(t, "claude-sonnet-4-5", settings.LLM.Model)
		assert.InDelta(t, 0.3, settings.LLM.Temperature, 1e-9)
		// Explicit zero overlap is respected, not replaced by the default.
		assert.Equal(t, 0, settings.Chunking.Overlap)
	})

	t.Run("unrecognised provider falls back to default", func(t *testing.T) {
		store := newMapConfigStore()
		require.NoError(t, store.Set("embedding.provider", "skynet"))

		svc := NewSettingsService(store)
		settings, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	})

	t.Run("environment supplies missing API key", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-from-env")

		store := newMapConfigStore()
		require.NoError(t, store.Set("llm.provider", "openai"))

		svc := NewSettingsService(store)
		settings, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, "sk-from-env", settings.LLM.APIKey)
	})
}

func TestSettingsServiceSave(t *testing.T) {
	t.Run("round-trips through the store", func(t *testing.T) {
		store := newMapConfigStore()
		svc := NewSettingsService(store)

		settings, err := svc.Get()
		require.NoError(t, err)
		settings.LLM.Model = "llama3.3"
		settings.Ask.MaxRounds = 6
		require.NoError(t, svc.Save(settings))

		reloaded, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, "llama3.3", reloaded.LLM.Model)
		assert.Equal(t, 6, reloaded.Ask.MaxRounds)
	})

	t.Run("environment keys are not written to the store", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")

		store := newMapConfigStore()
		svc := NewSettingsService(store)
		require.NoError(t, svc.SetLLMProvider(domain.AIProviderAnthropic, "claude-sonnet-4-5", ""))

		_, stored := store.Get("llm.api_key")
		assert.False(t, stored)

		settings, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, "sk-ant-env", settings.LLM.APIKey)
	})
}

func TestSettingsServiceSetProviders(t *testing.T) {
	t.Run("embedding rejects anthropic", func(t *testing.T) {
		svc := NewSettingsService(newMapConfigStore())
		err := svc.SetEmbeddingProvider(domain.AIProviderAnthropic, "", "sk-ant")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrConfiguration))
	})

	t.Run("cloud provider without key anywhere fails", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		svc := NewSettingsService(newMapConfigStore())
		err := svc.SetLLMProvider(domain.AIProviderOpenAI, "gpt-4o-mini", "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrConfiguration))
	})

	t.Run("ollama gets a local base URL", func(t *testing.T) {
		svc := NewSettingsService(newMapConfigStore())
		require.NoError(t, svc.SetLLMProvider(domain.AIProviderOllama, "llama3.2", ""))

		settings, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:11434", settings.LLM.BaseURL)
	})

	t.Run("moving to cloud clears custom base URL", func(t *testing.T) {
		store := newMapConfigStore()
		svc := NewSettingsService(store)
		require.NoError(t, svc.SetLLMProvider(domain.AIProviderOllama, "llama3.2", ""))
		require.NoError(t, svc.SetLLMProvider(domain.AIProviderOpenAI, "gpt-4o-mini", "sk-test"))

		settings, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, "", settings.LLM.BaseURL)
	})
}

func TestSettingsServiceValidate(t *testing.T) {
	t.Run("defaults validate", func(t *testing.T) {
		svc := NewSettingsService(newMapConfigStore())
		assert.NoError(t, svc.Validate())
	})

	t.Run("cloud provider without key fails validation", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		store := newMapConfigStore()
		require.NoError(t, store.Set("llm.provider", "openai"))

		svc := NewSettingsService(store)
		err := svc.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrConfiguration))
	})
}
