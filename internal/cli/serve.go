package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/brag/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdin/stdout",
	Long: `Runs a Model Context Protocol server over stdin/stdout so agents can
maintain brag documents. Every tool takes full_name and year; workspace_root
defaults to the configured workspace.

Logs go to stderr. Use --verbose to log each request.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := getService()
		var ce *codedError
		if errors.As(err, &ce) && ce.code == codeWorkspaceNotSet {
			logger.Warn("no default workspace; tools must pass workspace_root")
			svc, err = newService("")
		}
		if err != nil {
			return err
		}
		return mcp.NewServer(svc, logger).Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
