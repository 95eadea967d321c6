package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runehall/lorebook/internal/adapters/driving/mcp"
	"github.com/runehall/lorebook/internal/core/services"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Examples:
  # Stdio mode (default, for Claude Desktop)
  lorebook mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  lorebook mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().StringP("collection", "c", "", "collection to serve (default from settings)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	collection, err := cmd.Flags().GetString("collection")
	if err != nil {
		return fmt.Errorf("getting collection flag: %w", err)
	}
	if collection == "" {
		collection = appSettings.Collection
	}

	embedder, err := newEmbeddingService()
	if err != nil {
		return err
	}
	defer embedder.Close()

	retriever, err := newRetriever(collection, embedder)
	if err != nil {
		return err
	}

	tools := services.NewToolbox(retriever, appSettings.Ask.DefaultK,
		appSettings.Ask.SummaryK, appSettings.Ask.SummaryBudget)

	// The ask tool degrades to retrieval-only answers when no LLM is
	// reachable, so it is wired unconditionally.
	var agent *services.Agent
	if llm := newLLMService(); llm != nil {
		agent = services.NewAgent(llm, tools,
			appSettings.Ask.MaxRounds, appSettings.LLM.Temperature)
		defer llm.Close()
	}
	askService := services.NewAskService(agent, retriever, appSettings.Ask.DefaultK)

	ports := &mcp.Ports{
		Tools:       tools,
		Ask:         askService,
		Collections: collectionStore,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
