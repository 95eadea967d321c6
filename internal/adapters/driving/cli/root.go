// Package cli implements the lorebook command line interface.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/runehall/lorebook/internal/adapters/driven/ai"
	"github.com/runehall/lorebook/internal/adapters/driven/config/file"
	"github.com/runehall/lorebook/internal/adapters/driven/vector/sqlite"
	"github.com/runehall/lorebook/internal/core/domain"
	"github.com/runehall/lorebook/internal/core/ports/driven"
	"github.com/runehall/lorebook/internal/core/services"
	"github.com/runehall/lorebook/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Shared services, wired once in initServices.
var (
	configStore     driven.ConfigStore
	settingsService *services.SettingsService
	collectionStore driven.CollectionStore
	appSettings     *domain.AppSettings
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "lorebook",
	Short: "Ask questions about your tabletop RPG rulebooks",
	Long: `Lorebook indexes a rulebook into a local vector collection and answers
natural-language questions about it, citing page numbers.

Answers come from a tool-using agent backed by your configured LLM
provider; when no LLM is reachable, lorebook falls back to showing the
most relevant rulebook passages directly.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if collectionStore != nil {
			collectionStore.Close() //nolint:errcheck
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initServices wires storage, config and settings before any command runs.
func initServices(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	var err error
	configStore, err = file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	settingsService = services.NewSettingsService(configStore)
	appSettings, err = settingsService.Get()
	if err != nil {
		return err
	}

	collectionStore, err = sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}

	return nil
}

// newEmbeddingService creates and pings the configured embedding
// provider. Indexing and retrieval cannot proceed without it.
func newEmbeddingService() (driven.EmbeddingService, error) {
	svc, err := ai.CreateAndValidateEmbeddingService(appSettings.Embedding)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured, run 'lorebook settings embedding'",
			domain.ErrConfiguration)
	}
	return svc, nil
}

// newLLMService creates the configured LLM provider. Best effort: an
// unreachable or unconfigured LLM returns nil so callers degrade to
// retrieval-only answering.
func newLLMService() driven.LLMService {
	svc, err := ai.CreateAndValidateLLMService(appSettings.LLM)
	if err != nil {
		logger.Warn("LLM unavailable, retrieval-only answers: %v", err)
		return nil
	}
	return svc
}

// newRetriever loads the named collection and builds a retriever over it.
func newRetriever(collection string, embedder driven.EmbeddingService) (*services.RetrieverService, error) {
	ctx, cancel := timeoutContext(10 * time.Second)
	defer cancel()

	index, err := collectionStore.Load(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("loading collection %q (run 'lorebook index' first): %w", collection, err)
	}
	return services.NewRetrieverService(embedder, index), nil
}

func timeoutContext(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d)
}
