package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/runehall/lorebook/internal/core/domain"
	"github.com/runehall/lorebook/internal/core/services"
)

var (
	askMode       string
	askCollection string
	askK          int
	askTimeout    time.Duration
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about an indexed rulebook",
	Long: `Answers a natural-language question over an indexed collection.

In llm mode (the default) a tool-using agent searches the rulebook and
composes an answer citing page numbers. In basic mode, or whenever the
LLM is unreachable, the most relevant passages are shown directly.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askMode, "mode", "m", string(domain.AskModeLLM), "answer mode: llm or basic")
	askCmd.Flags().StringVarP(&askCollection, "collection", "c", "", "collection name (default from settings)")
	askCmd.Flags().IntVarP(&askK, "k", "k", 0, "number of passages to retrieve (default from settings)")
	askCmd.Flags().DurationVarP(&askTimeout, "timeout", "t", 2*time.Minute, "overall time budget for the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	mode := domain.AskMode(askMode)
	if !mode.IsValid() {
		return fmt.Errorf("%w: unknown mode %q (llm or basic)", domain.ErrInvalidArgument, askMode)
	}

	collection := askCollection
	if collection == "" {
		collection = appSettings.Collection
	}
	k := askK
	if k <= 0 {
		k = appSettings.Ask.DefaultK
	}

	svc, cleanup, err := buildAskService(collection, k, mode)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := timeoutContext(askTimeout)
	defer cancel()

	answer, err := svc.Ask(ctx, question, mode)
	if err != nil {
		return err
	}

	if answer.Degraded {
		cmd.Println("(LLM unavailable - showing the most relevant passages)")
		cmd.Println()
	}
	cmd.Println(answer.Text)

	if verbose && answer.Turn != nil {
		cmd.Println()
		cmd.Printf("Agent: %d round(s), %d tool call(s)\n", answer.Turn.Rounds, len(answer.Turn.Invocations))
		for _, inv := range answer.Turn.Invocations {
			cmd.Printf("  %s(%q)\n", inv.Tool, inv.Input)
		}
	}
	return nil
}

// buildAskService wires retriever, toolbox and (in llm mode) the agent
// over the named collection. The cleanup function closes the AI services.
func buildAskService(collection string, k int, mode domain.AskMode) (*services.AskService, func(), error) {
	embedder, err := newEmbeddingService()
	if err != nil {
		return nil, nil, err
	}

	retriever, err := newRetriever(collection, embedder)
	if err != nil {
		embedder.Close()
		return nil, nil, err
	}

	var agent *services.Agent
	cleanup := func() { embedder.Close() }

	if mode == domain.AskModeLLM {
		if llm := newLLMService(); llm != nil {
			tools := services.NewToolbox(retriever, k,
				appSettings.Ask.SummaryK, appSettings.Ask.SummaryBudget)
			agent = services.NewAgent(llm, tools,
				appSettings.Ask.MaxRounds, appSettings.LLM.Temperature)
			cleanup = func() {
				llm.Close()
				embedder.Close()
			}
		}
	}

	return services.NewAskService(agent, retriever, k), cleanup, nil
}
