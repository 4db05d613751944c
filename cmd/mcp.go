package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/sells-group/ideaflow/internal/config"
	"github.com/sells-group/ideaflow/internal/mcptools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the idea tools over MCP stdio",
	Long:  "Starts an MCP server on stdin/stdout. Logs go to stderr so they do not interfere with the protocol.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initEnv(cmd.Context(), config.ModeExtract)
		if err != nil {
			return err
		}
		defer env.Close()

		s := mcptools.NewServer(mcptools.Deps{
			Intake:    env.Intake,
			Extractor: env.Extractor,
			Chain:     env.Chain,
			Lifecycle: env.Lifecycle,
			Matcher:   env.Matcher,
		})
		return server.ServeStdio(s)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
