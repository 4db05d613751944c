package lifecycle

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/ideaflow/internal/model"
)

// Dispatcher starts analysis of an idea without blocking the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, ideaID string) error
}

// AnalyzeFunc runs one analysis.
type AnalyzeFunc func(ctx context.Context, ideaID string) (*model.Idea, error)

// LocalDispatcher runs analyses in-process with bounded concurrency. When
// every slot is busy the idea stays submitted and the stall sweep picks it up.
type LocalDispatcher struct {
	analyze AnalyzeFunc
	timeout time.Duration
	g       errgroup.Group
}

// NewLocalDispatcher creates a runner with at most concurrency analyses in flight.
func NewLocalDispatcher(analyze AnalyzeFunc, concurrency int, timeout time.Duration) *LocalDispatcher {
	if concurrency <= 0 {
		concurrency = 4
	}
	d := &LocalDispatcher{analyze: analyze, timeout: timeout}
	d.g.SetLimit(concurrency)
	return d
}

// Dispatch schedules ideaID. The request context is not used by the
// analysis so it survives the caller returning.
func (d *LocalDispatcher) Dispatch(_ context.Context, ideaID string) error {
	started := d.g.TryGo(func() error {
		ctx := context.Background()
		if d.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}
		if _, err := d.analyze(ctx, ideaID); err != nil {
			zap.L().Warn("lifecycle: background analysis failed",
				zap.String("idea_id", ideaID), zap.Error(err))
		}
		return nil
	})
	if !started {
		zap.L().Info("lifecycle: analysis deferred, runner busy", zap.String("idea_id", ideaID))
	}
	return nil
}

// Wait blocks until every running analysis has finished.
func (d *LocalDispatcher) Wait() {
	_ = d.g.Wait()
}
