package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/siteassist/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so an AI agent can answer
visitor questions and drive caller verification.

By default the server speaks JSON-RPC over stdio. Use --http to serve the
streamable HTTP transport instead; prometheus metrics are then served at
/metrics on the same address.

Examples:
  # Stdio mode
  siteassist mcp serve

  # HTTP mode
  siteassist mcp serve --http :8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

var mcpHTTPAddr string

func init() {
	mcpServeCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "HTTP listen address (empty uses stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	ports := &mcp.Ports{
		Knowledge:    knowledgeService,
		Verification: verificationService,
	}

	var opts []mcp.Option
	if metricsHandler != nil {
		opts = append(opts, mcp.WithMetricsHandler(metricsHandler))
	}

	server, err := mcp.NewServer(ports, opts...)
	if err != nil {
		return err
	}

	stop := startIntentWatch(cmd.Context())
	defer stop()

	if mcpHTTPAddr != "" {
		cmd.PrintErrf("MCP server listening on %s\n", mcpHTTPAddr)
		return server.RunHTTP(cmd.Context(), mcpHTTPAddr)
	}
	return server.Run(cmd.Context())
}
