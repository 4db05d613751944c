package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ideaflow/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ideaflow",
	Short: "Idea intake, clarification, scoring and mentor matching",
	Long: "Extracts structured ideas from free-form submissions, asks follow-up questions when extraction " +
		"is unsure, scores ideas against a fixed rubric, drives their lifecycle and proposes mentor matches.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
