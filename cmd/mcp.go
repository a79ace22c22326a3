package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xvierd/studyflow/internal/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol (MCP) server for integration with AI assistants.
The server talks JSON-RPC over stdio and offers tools to start sessions, add
notes, count pomodoros and read stats and rewards. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := setupSignalHandler()

		// stdout carries the protocol; nothing else may be printed there.
		server := mcp.NewServer(app.state)
		server.SetLogger(app.logger.Named("mcp"))
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	},
}
