package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/sells-group/ideaflow/internal/clarify"
	"github.com/sells-group/ideaflow/internal/config"
	"github.com/sells-group/ideaflow/internal/extract"
	"github.com/sells-group/ideaflow/internal/intake"
	"github.com/sells-group/ideaflow/internal/lifecycle"
	"github.com/sells-group/ideaflow/internal/matching"
	"github.com/sells-group/ideaflow/internal/messaging"
	"github.com/sells-group/ideaflow/internal/registry"
	"github.com/sells-group/ideaflow/internal/resilience"
	"github.com/sells-group/ideaflow/internal/store"
	"github.com/sells-group/ideaflow/internal/workflow"
	"github.com/sells-group/ideaflow/pkg/anthropic"
)

// appEnv holds the store and every service built on it.
type appEnv struct {
	Store     store.Store
	Registry  *registry.Registry
	Transport messaging.Transport
	LLM       anthropic.Client // nil without an API key
	Extractor *extract.Service
	Lifecycle *lifecycle.Controller
	Chain     *clarify.Chain
	Intake    *intake.Service
	Matcher   *matching.Service

	temporal client.Client
}

// Close drains in-process analyses and releases connections.
func (e *appEnv) Close() {
	if e.Lifecycle != nil {
		e.Lifecycle.Wait()
	}
	if e.temporal != nil {
		e.temporal.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens the configured store without migrating it.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.SQLitePath)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{MaxConns: cfg.Store.MaxConns})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore opens and migrates the configured store.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func retryConfig() resilience.RetryConfig {
	rc := resilience.DefaultRetryConfig()
	rc.MaxAttempts = cfg.Extract.MaxAttempts
	rc.InitialBackoff = cfg.Extract.InitialBackoff
	rc.MaxBackoff = cfg.Extract.MaxBackoff
	rc.AttemptTimeout = cfg.Extract.Timeout
	return rc
}

func dialTemporal() (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return nil, eris.Wrap(err, "dial temporal")
	}
	return c, nil
}

// initEnv validates the config for mode and wires every service. Callers
// should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	env := &appEnv{Store: st}

	if env.Registry, err = registry.LoadFile(cfg.Clarify.QuestionsFile); err != nil {
		env.Close()
		return nil, eris.Wrap(err, "load questions")
	}
	if env.Transport, err = messaging.New(cfg.Messaging); err != nil {
		env.Close()
		return nil, err
	}
	if cfg.Anthropic.Key != "" {
		env.LLM = anthropic.NewClient(cfg.Anthropic.Key)
	}

	env.Extractor = extract.New(env.LLM, st, env.Registry, extract.Config{
		Model:               cfg.Anthropic.Model,
		MaxTokens:           cfg.Anthropic.MaxTokens,
		ConfidenceThreshold: cfg.Extract.ConfidenceThreshold,
		FieldThreshold:      cfg.Extract.FieldThreshold,
		Retry:               retryConfig(),
	})

	opts := []lifecycle.Option{
		lifecycle.WithAnalyzeTimeout(cfg.Lifecycle.AnalyzeTimeout),
		lifecycle.WithConcurrency(cfg.Lifecycle.Concurrency),
	}
	if cfg.Lifecycle.Assess && env.LLM != nil {
		opts = append(opts, lifecycle.WithAssessor(extract.NewAssessor(env.LLM, cfg.Anthropic.AssessModel, retryConfig())))
	}
	if cfg.Lifecycle.Dispatcher == "temporal" && mode != config.ModeTemporal {
		if env.temporal, err = dialTemporal(); err != nil {
			env.Close()
			return nil, err
		}
		opts = append(opts, lifecycle.WithDispatcher(workflow.NewDispatcher(env.temporal, cfg.Temporal.TaskQueue)))
		zap.L().Info("analysis dispatched to temporal", zap.String("task_queue", cfg.Temporal.TaskQueue))
	}
	env.Lifecycle = lifecycle.New(st, opts...)

	env.Chain = clarify.NewChain(st, env.Registry, env.Transport, env.Lifecycle, clarify.Config{
		MaxQuestions:   cfg.Clarify.MaxQuestions,
		FieldThreshold: cfg.Extract.FieldThreshold,
		Language:       cfg.Clarify.Language,
	})
	env.Intake = intake.New(env.Extractor, env.Lifecycle, env.Chain, st, env.Transport, env.Registry)
	env.Matcher = matching.NewService(st, env.Lifecycle, cfg.Matching.Limit)
	return env, nil
}
