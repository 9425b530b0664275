package main

import (
	"fmt"

	"github.com/hyperjump/kbase/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol server exposing the list_knowledge_bases
and retrieve_knowledge tools.

By default the server communicates over stdio and can be used with Claude
Desktop and other MCP-compatible assistants. Use --http to serve the
streamable HTTP transport instead.

Examples:
  # Stdio mode (default)
  kbase mcp

  # HTTP mode (for MCP Inspector, remote access)
  kbase mcp --http localhost:8081

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "knowledge-base": {
        "command": "/path/to/kbase",
        "args": ["mcp"],
        "env": {"KNOWLEDGE_BASES_ROOT_DIR": "/path/to/knowledge_bases"}
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			server, err := mcp.NewServer(a.service, version, mcp.WithLogger(a.logger))
			if err != nil {
				return err
			}
			if addr != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", addr)
				return server.RunHTTP(cmd.Context(), addr)
			}
			return server.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "http", "", "serve streamable HTTP on this address instead of stdio")
	return cmd
}
