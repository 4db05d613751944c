// Package workflow runs idea analysis durably on Temporal. It is the
// alternative to the in-process lifecycle dispatcher.
package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/sells-group/ideaflow/internal/lifecycle"
	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/score"
	"github.com/sells-group/ideaflow/internal/store"
)

// Analyzer is the lifecycle operation the activity runs.
type Analyzer interface {
	Analyze(ctx context.Context, ideaID string) (*model.Idea, error)
}

// AnalyzeResult is the workflow result.
type AnalyzeResult struct {
	IdeaID     string `json:"idea_id"`
	Status     string `json:"status"`
	TotalScore int    `json:"total_score"`
	Tier       string `json:"tier"`
}

// Activities holds activity dependencies.
type Activities struct {
	Analyzer Analyzer
}

// AnalyzeIdea runs one analysis. Missing ideas and illegal transitions are
// not retried.
func (a *Activities) AnalyzeIdea(ctx context.Context, ideaID string) (*AnalyzeResult, error) {
	idea, err := a.Analyzer.Analyze(ctx, ideaID)
	if err != nil {
		var invalid *lifecycle.InvalidTransitionError
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), "NotFound", err)
		case errors.As(err, &invalid):
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidTransition", err)
		}
		return nil, err
	}
	return &AnalyzeResult{
		IdeaID:     idea.ID,
		Status:     string(idea.Status),
		TotalScore: idea.Scores.TotalScore,
		Tier:       string(score.Qualify(idea.Scores.TotalScore)),
	}, nil
}

// AnalyzeIdeaWorkflow analyzes one idea with retries.
func AnalyzeIdeaWorkflow(ctx workflow.Context, ideaID string) (*AnalyzeResult, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    5,
		},
	})

	var a *Activities
	var res AnalyzeResult
	if err := workflow.ExecuteActivity(ctx, a.AnalyzeIdea, ideaID).Get(ctx, &res); err != nil {
		return nil, err
	}
	workflow.GetLogger(ctx).Info("idea analyzed", "idea_id", res.IdeaID, "tier", res.Tier)
	return &res, nil
}

// Starter is the part of client.Client used to start workflows.
type Starter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Dispatcher starts AnalyzeIdeaWorkflow for each idea. It satisfies
// lifecycle.Dispatcher.
type Dispatcher struct {
	starter   Starter
	taskQueue string
}

// NewDispatcher creates a Dispatcher on taskQueue.
func NewDispatcher(starter Starter, taskQueue string) *Dispatcher {
	return &Dispatcher{starter: starter, taskQueue: taskQueue}
}

// WorkflowID is the workflow id used for an idea. A running analysis of the
// same idea is joined rather than duplicated.
func WorkflowID(ideaID string) string { return "analyze-idea-" + ideaID }

// Dispatch starts the workflow.
func (d *Dispatcher) Dispatch(ctx context.Context, ideaID string) error {
	run, err := d.starter.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        WorkflowID(ideaID),
		TaskQueue: d.taskQueue,
	}, AnalyzeIdeaWorkflow, ideaID)
	if err != nil {
		return eris.Wrapf(err, "workflow: start analysis of %s", ideaID)
	}
	zap.L().Info("workflow: analysis started",
		zap.String("idea_id", ideaID),
		zap.String("workflow_id", run.GetID()),
		zap.String("run_id", run.GetRunID()),
	)
	return nil
}

// NewWorker registers the analysis workflow and activities on taskQueue.
func NewWorker(c client.Client, taskQueue string, acts *Activities) worker.Worker {
	w := worker.New(c, taskQueue, worker.Options{})
	w.RegisterWorkflow(AnalyzeIdeaWorkflow)
	w.RegisterActivity(acts)
	return w
}
