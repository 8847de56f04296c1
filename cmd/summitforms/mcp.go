package main

import (
	"github.com/felixgeelhaar/mcp-go"
	mcptools "github.com/felixgeelhaar/summitforms/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI agent integration",
	Long: `Start a Model Context Protocol (MCP) server exposing the form tools.

Available tools:
  - summitforms_validate_email     Check an email against the accepted providers
  - summitforms_normalize_phone    Normalize and check a phone number
  - summitforms_score_password     Score a password
  - summitforms_generate_password  Generate a strong password
  - summitforms_steps              List the steps and fields of a form
  - summitforms_lookup             Load a lookup list
  - summitforms_submit             Fill and submit a form (requires confirm=true)

Examples:
  summitforms mcp                   # Start stdio MCP server
  summitforms mcp --http :8080      # Start HTTP MCP server`,
	RunE: runMCP,
}

var mcpHTTP string

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().StringVar(&mcpHTTP, "http", "", "Start HTTP server on address (e.g., :8080)")
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	application, err := loadApp(cmd)
	if err != nil {
		return err
	}

	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "summitforms",
		Version: version,
	})
	mcptools.RegisterAll(srv, application)

	if mcpHTTP != "" {
		return mcp.ServeHTTP(ctx, srv, mcpHTTP)
	}
	return mcp.ServeStdio(ctx, srv)
}
