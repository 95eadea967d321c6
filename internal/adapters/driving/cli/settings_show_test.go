package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsCmd_Use(t *testing.T) {
	assert.Equal(t, "settings", settingsCmd.Use)
}

func TestSettingsCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0, 3)
	for _, c := range settingsCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "show")
	assert.Contains(t, names, "embedding")
	assert.Contains(t, names, "llm")
}

func TestSettingsShow_DisplaysDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings", "show"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "Ollama (local)")
	assert.Contains(t, out, "nomic-embed-text")
	assert.Contains(t, out, "[LLM]")
	assert.Contains(t, out, "[Chunking]")
	assert.Contains(t, out, "Default: rulebook")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk-1...wxyz", maskAPIKey("sk-1234567890wxyz"))
}

func TestParseChoice(t *testing.T) {
	assert.Equal(t, 1, parseChoice("", 3, 1))
	assert.Equal(t, 2, parseChoice("2", 3, 1))
	assert.Equal(t, 1, parseChoice("9", 3, 1))
	assert.Equal(t, 1, parseChoice("abc", 3, 1))
}
