package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ideaflow/internal/config"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Re-run stalled analyses and abandon stale clarification chains",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, config.ModeStore)
		if err != nil {
			return err
		}
		defer env.Close()

		ideas, chains, err := sweepOnce(ctx, env)
		if err != nil {
			return err
		}
		fmt.Printf("Re-analyzed %d stalled ideas, abandoned %d stale chains.\n", ideas, chains)
		return nil
	},
}

func sweepOnce(ctx context.Context, env *appEnv) (int, int, error) {
	ideas, err := env.Lifecycle.SweepStalled(ctx, cfg.Lifecycle.StallAfter)
	if err != nil {
		return 0, 0, err
	}
	chains, err := env.Chain.AbandonStale(ctx, cfg.Clarify.AbandonAfter)
	if err != nil {
		return ideas, 0, err
	}
	return ideas, chains, nil
}

// runSweeps calls sweepOnce every interval until ctx is done.
func runSweeps(ctx context.Context, env *appEnv, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ideas, chains, err := sweepOnce(ctx, env)
			if err != nil {
				zap.L().Warn("sweep failed", zap.Error(err))
				continue
			}
			if ideas > 0 || chains > 0 {
				zap.L().Info("sweep complete", zap.Int("ideas", ideas), zap.Int("chains", chains))
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
