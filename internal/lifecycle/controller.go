// Package lifecycle owns the idea status machine: promotion of candidates,
// analysis and scoring, guarded transitions and their audit trail.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ideaflow/internal/extract"
	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/score"
	"github.com/sells-group/ideaflow/internal/store"
)

var (
	// ErrAnalysisUnavailable is a recoverable analysis failure. The idea is
	// left in analyzing and Analyze can be called again.
	ErrAnalysisUnavailable = eris.New("lifecycle: analysis unavailable, retry later")
	// ErrConflict means the idea kept changing under a transition.
	ErrConflict = eris.New("lifecycle: idea changed concurrently")
	// ErrInvalidAssessment means no known criterion was supplied.
	ErrInvalidAssessment = eris.New("lifecycle: assessment has no known criteria")
)

// Assessor produces stage-2 sub-scores for an idea.
type Assessor interface {
	Assess(ctx context.Context, fields model.IdeaFields) (map[string]int, error)
}

// Controller drives ideas through their lifecycle.
type Controller struct {
	store          store.Store
	assessor       Assessor
	dispatcher     Dispatcher
	local          *LocalDispatcher
	analyzeTimeout time.Duration
	concurrency    int
}

// Option configures a Controller.
type Option func(*Controller)

// WithAssessor enables LLM stage-2 assessment during analysis.
func WithAssessor(a Assessor) Option {
	return func(c *Controller) { c.assessor = a }
}

// WithDispatcher replaces the in-process analysis runner.
func WithDispatcher(d Dispatcher) Option {
	return func(c *Controller) { c.dispatcher = d }
}

// WithAnalyzeTimeout bounds a single analysis.
func WithAnalyzeTimeout(d time.Duration) Option {
	return func(c *Controller) { c.analyzeTimeout = d }
}

// WithConcurrency bounds in-process analyses and sweep fan-out.
func WithConcurrency(n int) Option {
	return func(c *Controller) { c.concurrency = n }
}

// New creates a Controller. Without WithDispatcher, analyses run in-process.
func New(st store.Store, opts ...Option) *Controller {
	c := &Controller{store: st, analyzeTimeout: 60 * time.Second, concurrency: 4}
	for _, o := range opts {
		o(c)
	}
	if c.dispatcher == nil {
		c.local = NewLocalDispatcher(c.Analyze, c.concurrency, c.analyzeTimeout)
		c.dispatcher = c.local
	}
	return c
}

// Wait drains the in-process runner. It is a no-op for other dispatchers.
func (c *Controller) Wait() {
	if c.local != nil {
		c.local.Wait()
	}
}

// Get returns an idea by id.
func (c *Controller) Get(ctx context.Context, ideaID string) (*model.Idea, error) {
	idea, err := c.store.GetIdea(ctx, ideaID)
	if err != nil {
		return nil, eris.Wrap(err, "lifecycle: get idea")
	}
	return idea, nil
}

// History returns the audited transitions of an idea, oldest first.
func (c *Controller) History(ctx context.Context, ideaID string) ([]model.Transition, error) {
	if _, err := c.Get(ctx, ideaID); err != nil {
		return nil, err
	}
	ts, err := c.store.ListTransitions(ctx, ideaID)
	if err != nil {
		return nil, eris.Wrap(err, "lifecycle: history")
	}
	return ts, nil
}

// Promote turns a candidate into a canonical idea exactly once. Concurrent
// and repeated calls all return the same idea.
func (c *Controller) Promote(ctx context.Context, cand *model.CandidateIdea) (*model.Idea, error) {
	if cand.Promoted() {
		return c.Get(ctx, cand.PromotedIdeaID)
	}

	idea := &model.Idea{
		ID:          uuid.NewString(),
		CandidateID: cand.ID,
		Contact:     cand.Raw.Contact,
		Fields:      cand.Fields,
		Status:      model.IdeaStatusSubmitted,
	}
	id, created, err := c.store.PromoteCandidate(ctx, cand.ID, idea)
	if err != nil {
		return nil, eris.Wrap(err, "lifecycle: promote")
	}
	if !created {
		zap.L().Info("lifecycle: candidate already promoted",
			zap.String("candidate_id", cand.ID), zap.String("idea_id", id))
		return c.Get(ctx, id)
	}

	cand.PromotedIdeaID = id
	cand.Status = model.CandidateStatusPromoted
	zap.L().Info("idea transition",
		zap.String("idea_id", id),
		zap.String("from", ""),
		zap.String("to", string(model.IdeaStatusSubmitted)),
		zap.String("reason", "promoted from candidate "+cand.ID),
	)
	c.dispatch(ctx, id)
	return idea, nil
}

// Submit creates an idea directly from complete fields.
func (c *Controller) Submit(ctx context.Context, fields model.IdeaFields, contact string) (*model.Idea, error) {
	if missing := fields.Missing(model.RequiredFields); len(missing) > 0 {
		return nil, &extract.ValidationError{Missing: missing, Language: "en"}
	}
	if !model.IsKnownCategory(fields.Category) {
		fields.Category = "other"
	}

	idea := &model.Idea{ID: uuid.NewString(), Contact: contact, Fields: fields, Status: model.IdeaStatusSubmitted}
	if err := c.store.CreateIdea(ctx, idea); err != nil {
		return nil, eris.Wrap(err, "lifecycle: submit")
	}
	zap.L().Info("idea transition",
		zap.String("idea_id", idea.ID),
		zap.String("from", ""),
		zap.String("to", string(model.IdeaStatusSubmitted)),
		zap.String("reason", "submitted"),
	)
	c.dispatch(ctx, idea.ID)
	return idea, nil
}

func (c *Controller) dispatch(ctx context.Context, ideaID string) {
	if err := c.dispatcher.Dispatch(ctx, ideaID); err != nil {
		// The idea stays submitted; SweepStalled retries it.
		zap.L().Warn("lifecycle: dispatch analysis failed", zap.String("idea_id", ideaID), zap.Error(err))
	}
}

// Analyze scores an idea and moves it to analyzed. It is safe to repeat:
// later statuses only get their scores rewritten.
func (c *Controller) Analyze(ctx context.Context, ideaID string) (*model.Idea, error) {
	idea, err := c.Get(ctx, ideaID)
	if err != nil {
		return nil, err
	}

	if idea.Status == model.IdeaStatusSubmitted {
		if _, err := c.transition(ctx, idea, model.IdeaStatusAnalyzing, "analysis started"); err != nil {
			return nil, err
		}
		if idea, err = c.Get(ctx, ideaID); err != nil {
			return nil, err
		}
	}

	assessment := idea.Assessment
	if c.assessor != nil && len(assessment) == 0 {
		actx, cancel := context.WithTimeout(ctx, c.analyzeTimeout)
		assessment, err = c.assessor.Assess(actx, idea.Fields)
		cancel()
		if err != nil {
			zap.L().Warn("lifecycle: assessment failed", zap.String("idea_id", ideaID), zap.Error(err))
			return nil, eris.Wrap(ErrAnalysisUnavailable, err.Error())
		}
		if err := c.store.SetAssessment(ctx, ideaID, assessment); err != nil {
			return nil, eris.Wrap(err, "lifecycle: save assessment")
		}
	}

	scores := score.Score(idea.Fields, assessment)
	if err := c.store.UpdateIdeaScores(ctx, ideaID, scores); err != nil {
		return nil, eris.Wrap(err, "lifecycle: save scores")
	}

	if idea.Status == model.IdeaStatusAnalyzing {
		reason := fmt.Sprintf("scored %d (%s)", scores.TotalScore, score.Qualify(scores.TotalScore))
		if _, err := c.transition(ctx, idea, model.IdeaStatusAnalyzed, reason); err != nil {
			return nil, err
		}
	}
	return c.Get(ctx, ideaID)
}

// Advance moves an idea to target. A lost race is re-read and re-validated once.
func (c *Controller) Advance(ctx context.Context, ideaID string, target model.IdeaStatus, reason string) (*model.Idea, error) {
	for attempt := 0; attempt < 2; attempt++ {
		idea, err := c.Get(ctx, ideaID)
		if err != nil {
			return nil, err
		}
		if err := CheckTransition(idea.Status, target); err != nil {
			return nil, err
		}
		won, err := c.transition(ctx, idea, target, reason)
		if err != nil {
			return nil, err
		}
		if won {
			return c.Get(ctx, ideaID)
		}
	}
	return nil, eris.Wrapf(ErrConflict, "lifecycle: advance %s to %s", ideaID, target)
}

// AdvanceFrom applies from -> to only if the idea is currently in from.
// It reports whether the transition happened; a mismatch is not an error.
func (c *Controller) AdvanceFrom(ctx context.Context, ideaID string, from, to model.IdeaStatus, reason string) (*model.Idea, bool, error) {
	if err := CheckTransition(from, to); err != nil {
		return nil, false, err
	}
	idea, err := c.Get(ctx, ideaID)
	if err != nil {
		return nil, false, err
	}
	if idea.Status != from {
		return idea, false, nil
	}
	won, err := c.transition(ctx, idea, to, reason)
	if err != nil {
		return nil, false, err
	}
	idea, err = c.Get(ctx, ideaID)
	return idea, won, err
}

// RecordAssessment stores stage-2 sub-scores and rescores the idea. Unknown
// criteria are dropped.
func (c *Controller) RecordAssessment(ctx context.Context, ideaID string, sub map[string]int) (*model.Idea, error) {
	known := make(map[string]int, len(sub))
	for k, v := range sub {
		if score.IsAssessmentKey(k) {
			known[k] = score.Clamp(v)
		}
	}
	if len(known) == 0 {
		return nil, ErrInvalidAssessment
	}

	idea, err := c.Get(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	if err := c.store.SetAssessment(ctx, ideaID, known); err != nil {
		return nil, eris.Wrap(err, "lifecycle: save assessment")
	}
	if err := c.store.UpdateIdeaScores(ctx, ideaID, score.Score(idea.Fields, known)); err != nil {
		return nil, eris.Wrap(err, "lifecycle: save scores")
	}
	return c.Get(ctx, ideaID)
}

// transition CASes idea.Status -> to and logs the change when it wins.
func (c *Controller) transition(ctx context.Context, idea *model.Idea, to model.IdeaStatus, reason string) (bool, error) {
	if err := CheckTransition(idea.Status, to); err != nil {
		return false, err
	}
	won, err := c.store.TransitionIdea(ctx, idea.ID, idea.Status, to, reason)
	if err != nil {
		return false, eris.Wrap(err, "lifecycle: transition")
	}
	if won {
		zap.L().Info("idea transition",
			zap.String("idea_id", idea.ID),
			zap.String("from", string(idea.Status)),
			zap.String("to", string(to)),
			zap.String("reason", reason),
		)
	}
	return won, nil
}

// IsRecoverable reports whether err is a temporary analysis failure.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrAnalysisUnavailable) || errors.Is(err, context.DeadlineExceeded)
}
