package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/runehall/lorebook/internal/core/domain"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Manage indexed collections",
	RunE:  runCollectionsList,
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all collections",
	RunE:  runCollectionsList,
}

var collectionsInfoCmd = &cobra.Command{
	Use:   "info [name]",
	Short: "Show details for one collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionsInfo,
}

var collectionsDropCmd = &cobra.Command{
	Use:   "drop [name]",
	Short: "Delete a collection and all its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionsDrop,
}

func init() {
	collectionsCmd.AddCommand(collectionsListCmd)
	collectionsCmd.AddCommand(collectionsInfoCmd)
	collectionsCmd.AddCommand(collectionsDropCmd)
	rootCmd.AddCommand(collectionsCmd)
}

func runCollectionsList(cmd *cobra.Command, _ []string) error {
	ctx, cancel := timeoutContext(10 * time.Second)
	defer cancel()

	infos, err := collectionStore.List(ctx)
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}

	if len(infos) == 0 {
		cmd.Println("No collections. Run 'lorebook index <file>' to create one.")
		return nil
	}

	cmd.Println("Collections:")
	for _, info := range infos {
		marker := " "
		if info.Name == appSettings.Collection {
			marker = "*"
		}
		cmd.Printf("  %s %-20s %6d chunks  %4d dims  %s\n",
			marker, info.Name, info.Chunks, info.Dimension, info.Distance)
	}
	return nil
}

func runCollectionsInfo(cmd *cobra.Command, args []string) error {
	name := args[0]

	ctx, cancel := timeoutContext(10 * time.Second)
	defer cancel()

	infos, err := collectionStore.List(ctx)
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}

	for _, info := range infos {
		if info.Name != name {
			continue
		}
		cmd.Printf("Collection: %s\n", info.Name)
		cmd.Printf("  Chunks: %d\n", info.Chunks)
		cmd.Printf("  Dimension: %d\n", info.Dimension)
		cmd.Printf("  Distance: %s\n", info.Distance)
		cmd.Printf("  Created: %s\n", info.CreatedAt.Format(time.RFC3339))
		return nil
	}

	return fmt.Errorf("%w: collection %q", domain.ErrNotFound, name)
}

func runCollectionsDrop(cmd *cobra.Command, args []string) error {
	name := args[0]

	ctx, cancel := timeoutContext(10 * time.Second)
	defer cancel()

	if err := collectionStore.Drop(ctx, name); err != nil {
		return fmt.Errorf("dropping collection: %w", err)
	}

	cmd.Printf("Dropped collection %q\n", name)
	return nil
}
