package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
}

func TestAskCmd_RequiresExactlyOneArg(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestAskCmd_Flags(t *testing.T) {
	mode := askCmd.Flags().Lookup("mode")
	require.NotNil(t, mode)
	assert.Equal(t, "m", mode.Shorthand)
	assert.Equal(t, "llm", mode.DefValue)

	k := askCmd.Flags().Lookup("k")
	require.NotNil(t, k)
	assert.Equal(t, "k", k.Shorthand)

	timeout := askCmd.Flags().Lookup("timeout")
	require.NotNil(t, timeout)
	assert.Equal(t, "2m0s", timeout.DefValue)
}

func TestAskCmd_RejectsUnknownMode(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask", "--mode", "bogus", "how do I attack?"})
	defer func() {
		rootCmd.SetArgs(nil)
		askMode = "llm"
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
