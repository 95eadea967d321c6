package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestConfigStoreSetGet(t *testing.T) {
	store := newTestStore(t)

	t.Run("string round-trip", func(t *testing.T) {
		require.NoError(t, store.Set("llm.provider", "ollama"))
		assert.Equal(t, "ollama", store.GetString("llm.provider"))
	})

	t.Run("int round-trip", func(t *testing.T) {
		require.NoError(t, store.Set("ask.k", 7))
		assert.Equal(t, 7, store.GetInt("ask.k"))
	})

	t.Run("float round-trip", func(t *testing.T) {
		require.NoError(t, store.Set("llm.temperature", 0.2))
		assert.InDelta(t, 0.2, store.GetFloat("llm.temperature"), 1e-9)
	})

	t.Run("bool round-trip", func(t *testing.T) {
		require.NoError(t, store.Set("verbose", true))
		assert.True(t, store.GetBool("verbose"))
	})

	t.Run("missing keys yield zero values", func(t *testing.T) {
		assert.Equal(t, "", store.GetString("nope"))
		assert.Equal(t, 0, store.GetInt("nope"))
		assert.Equal(t, 0.0, store.GetFloat("nope"))
		assert.False(t, store.GetBool("nope"))
		_, ok := store.Get("nope")
		assert.False(t, ok)
	})

	t.Run("wrong type yields zero value", func(t *testing.T) {
		require.NoError(t, store.Set("llm.model", "llama3.2"))
		assert.Equal(t, 0, store.GetInt("llm.model"))
		assert.False(t, store.GetBool("llm.model"))
	})
}

func TestConfigStorePersistence(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("embedding.provider", "openai"))
	require.NoError(t, store.Set("ask.max_rounds", 6))
	require.NoError(t, store.Set("llm.temperature", 0.5))

	// A fresh store reads what the first one wrote.
	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "openai", reloaded.GetString("embedding.provider"))
	assert.Equal(t, 6, reloaded.GetInt("ask.max_rounds"))
	assert.InDelta(t, 0.5, reloaded.GetFloat("llm.temperature"), 1e-9)
}

func TestConfigStoreFlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[llm]
provider = "anthropic"
model = "claude-sonnet-4-5"

[chunking]
size = 500
overlap = 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", store.GetString("llm.provider"))
	assert.Equal(t, "claude-sonnet-4-5", store.GetString("llm.model"))
	assert.Equal(t, 500, store.GetInt("chunking.size"))
	assert.Equal(t, 50, store.GetInt("chunking.overlap"))
}

func TestConfigStoreFilePermissions(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("llm.api_key", "sk-secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
