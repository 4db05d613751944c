package lifecycle

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/store"
)

// SweepStalled re-runs Analyze for ideas left submitted or analyzing for
// longer than olderThan. It returns how many reached analyzed.
func (c *Controller) SweepStalled(ctx context.Context, olderThan time.Duration) (int, error) {
	stalled, err := c.store.ListIdeas(ctx, store.IdeaFilter{
		Statuses:      []model.IdeaStatus{model.IdeaStatusSubmitted, model.IdeaStatusAnalyzing},
		UpdatedBefore: time.Now().UTC().Add(-olderThan),
		Limit:         500,
	})
	if err != nil {
		return 0, eris.Wrap(err, "lifecycle: list stalled")
	}
	if len(stalled) == 0 {
		return 0, nil
	}

	var recovered atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.concurrency, 1))
	for _, idea := range stalled {
		g.Go(func() error {
			actx, cancel := context.WithTimeout(gctx, c.analyzeTimeout)
			defer cancel()
			if _, err := c.Analyze(actx, idea.ID); err != nil {
				zap.L().Warn("lifecycle: sweep analyze failed", zap.String("idea_id", idea.ID), zap.Error(err))
				return nil
			}
			recovered.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("lifecycle: stall sweep done",
		zap.Int("stalled", len(stalled)),
		zap.Int32("recovered", recovered.Load()),
	)
	return int(recovered.Load()), nil
}
