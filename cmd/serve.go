package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ideaflow/internal/api"
	"github.com/sells-group/ideaflow/internal/config"
	"github.com/sells-group/ideaflow/internal/mentors"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and inbound message webhook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, config.ModeServe)
		if err != nil {
			return err
		}
		defer env.Close()

		deps := api.Deps{
			Intake:    env.Intake,
			Extractor: env.Extractor,
			Chain:     env.Chain,
			Lifecycle: env.Lifecycle,
			Matcher:   env.Matcher,
			Reader:    env.Store,
		}
		if cfg.Notion.Token != "" && cfg.Notion.MentorDB != "" {
			deps.ImportMentors = func(ctx context.Context) (*mentors.Result, error) {
				return mentors.Import(ctx, env.Store, notionSource())
			}
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.New(deps).Handler(cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go runSweeps(ctx, env, sweepInterval)

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

var sweepInterval time.Duration

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().DurationVar(&sweepInterval, "sweep-interval", time.Minute, "how often to re-dispatch stalled analyses and abandon stale chains (0 disables)")
	rootCmd.AddCommand(serveCmd)
}
