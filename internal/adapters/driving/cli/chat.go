package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/runehall/lorebook/internal/adapters/driving/tui"
	"github.com/runehall/lorebook/internal/core/domain"
)

var (
	chatMode       string
	chatCollection string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Launch the interactive chat interface",
	Long: `Launch an interactive chat session over an indexed book.

Each question is answered independently against the indexed collection;
there is no conversation memory between questions.

Controls:
  enter        Ask the typed question
  pgup/pgdn    Scroll the transcript
  esc, ctrl+c  Quit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatMode, "mode", "m", string(domain.AskModeLLM),
		"answer mode: llm or basic")
	chatCmd.Flags().StringVarP(&chatCollection, "collection", "c", "",
		"collection to chat with (default from settings)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	mode := domain.AskMode(chatMode)
	if !mode.IsValid() {
		return fmt.Errorf("%w: unknown mode %q (use llm or basic)", domain.ErrInvalidArgument, chatMode)
	}

	collection := chatCollection
	if collection == "" {
		collection = appSettings.Collection
	}

	askService, cleanup, err := buildAskService(collection, appSettings.Ask.DefaultK, mode)
	if err != nil {
		return err
	}
	defer cleanup()

	app, err := tui.NewApp(&tui.Ports{Ask: askService}, collection, mode)
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat error: %w", err)
	}

	return nil
}
