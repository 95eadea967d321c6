package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/runehall/lorebook/internal/core/services"
	"github.com/runehall/lorebook/internal/logger"
	"github.com/runehall/lorebook/internal/parse"
)

var (
	indexCollection string
	indexWatch      bool
)

var indexCmd = &cobra.Command{
	Use:   "index [file]",
	Short: "Index a rulebook into a collection",
	Long: `Splits a rulebook into chunks, embeds them and stores them in a named
collection. Reindexing fully replaces the collection's previous contents.

Accepts plain text files (optionally form-feed paginated) or JSON page
maps produced by PDF extraction, keyed by page number.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexCollection, "collection", "c", "", "collection name (default from settings)")
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "reindex whenever the file changes")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := args[0]

	collection := indexCollection
	if collection == "" {
		collection = appSettings.Collection
	}

	embedder, err := newEmbeddingService()
	if err != nil {
		return err
	}
	defer embedder.Close()

	indexer := services.NewIndexerService(appSettings.Chunking, embedder, collectionStore)

	if err := indexOnce(cmd, indexer, path, collection); err != nil {
		return err
	}

	if !indexWatch {
		return nil
	}
	return watchAndReindex(cmd, indexer, path, collection)
}

func indexOnce(cmd *cobra.Command, indexer *services.IndexerService, path, collection string) error {
	doc, err := parse.LoadDocument(path)
	if err != nil {
		return err
	}

	ctx, cancel := timeoutContext(10 * time.Minute)
	defer cancel()

	start := time.Now()
	stats, err := indexer.IndexDocument(ctx, *doc, collection)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	cmd.Printf("Indexed %q into collection %q\n", doc.Title, stats.Collection)
	cmd.Printf("  %d chunks from %d pages (%d dimensions) in %s\n",
		stats.Chunks, stats.Pages, stats.Dimension, time.Since(start).Round(time.Millisecond))
	return nil
}

// watchAndReindex blocks, rebuilding the collection whenever the source
// file is written. Editors often replace files on save, so the parent
// directory is watched and events are filtered by name.
func watchAndReindex(cmd *cobra.Command, indexer *services.IndexerService, path, collection string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	cmd.Printf("Watching %s for changes (Ctrl-C to stop)\n", abs)

	// Debounce: editors fire several events per save.
	var timer *time.Timer
	rebuild := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("Change detected: %s", event)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(500*time.Millisecond, func() {
				select {
				case rebuild <- struct{}{}:
				default:
				}
			})

		case <-rebuild:
			if err := indexOnce(cmd, indexer, path, collection); err != nil {
				logger.Warn("Reindex failed: %v", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-cmd.Context().Done():
			return nil
		}
	}
}
