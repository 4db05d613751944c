// Package clarify runs the self-ask clarification chain: a short, strictly
// sequential series of questions that fills in what extraction missed.
package clarify

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ideaflow/internal/messaging"
	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/registry"
	"github.com/sells-group/ideaflow/internal/store"
)

var (
	// ErrNoActiveQuestion is returned when there is nothing to answer, or a
	// concurrent answer already took the active question.
	ErrNoActiveQuestion = eris.New("clarify: no active question")
	// ErrChainComplete is returned when starting a chain that already finished.
	ErrChainComplete = eris.New("clarify: chain already complete")
)

// State is the chain state of a candidate.
type State string

const (
	StateNoChain  State = "no_chain"
	StateActive   State = "chain_active"
	StateComplete State = "chain_complete"
)

// Promoter turns a validated candidate into an idea.
type Promoter interface {
	Promote(ctx context.Context, cand *model.CandidateIdea) (*model.Idea, error)
}

// Config tunes chain planning.
type Config struct {
	MaxQuestions   int
	FieldThreshold float64
	Language       string
}

// Progress describes how far a chain has come.
type Progress struct {
	CandidateID string                       `json:"candidate_id"`
	Answered    int                          `json:"answered"`
	Total       int                          `json:"total"`
	Ratio       float64                      `json:"ratio"`
	Next        *model.ClarificationQuestion `json:"next,omitempty"`
	Complete    bool                         `json:"complete"`
	IdeaID      string                       `json:"idea_id,omitempty"`
}

// Chain coordinates clarification chains. It holds no per-candidate state;
// every step is a conditional write in the store.
type Chain struct {
	store     store.Store
	registry  *registry.Registry
	transport messaging.Transport
	promoter  Promoter
	cfg       Config
	sendTTL   time.Duration
}

// NewChain creates a Chain. A nil registry uses the built-in prompts.
func NewChain(st store.Store, reg *registry.Registry, transport messaging.Transport, promoter Promoter, cfg Config) *Chain {
	if reg == nil {
		reg = registry.Default()
	}
	if cfg.MaxQuestions <= 0 {
		cfg.MaxQuestions = 5
	}
	if cfg.FieldThreshold <= 0 {
		cfg.FieldThreshold = 0.60
	}
	return &Chain{store: st, registry: reg, transport: transport, promoter: promoter, cfg: cfg, sendTTL: 15 * time.Second}
}

// StartChain plans and persists the chain for a candidate and sends the
// first question. If a chain exists its active question is returned instead.
func (c *Chain) StartChain(ctx context.Context, candidateID, contact string) (*model.ClarificationQuestion, error) {
	cand, err := c.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, eris.Wrap(err, "clarify: start chain")
	}
	if cand.Promoted() {
		return nil, ErrChainComplete
	}
	if contact == "" {
		contact = cand.Raw.Contact
	}

	existing, err := c.store.ListQuestions(ctx, candidateID)
	if err != nil {
		return nil, eris.Wrap(err, "clarify: list questions")
	}
	if len(existing) > 0 {
		return c.resume(ctx, contact, existing)
	}

	lang := registry.Language(cand.Raw.Text, c.cfg.Language)
	fields := planFields(cand, c.registry, c.cfg.FieldThreshold, c.cfg.MaxQuestions)
	qs := buildChain(cand, fields, c.registry, lang)

	created, err := c.store.CreateChain(ctx, qs)
	if err != nil {
		return nil, eris.Wrap(err, "clarify: create chain")
	}
	if !created {
		// Lost the race to another StartChain for the same candidate.
		existing, err := c.store.ListQuestions(ctx, candidateID)
		if err != nil {
			return nil, eris.Wrap(err, "clarify: list questions")
		}
		return c.resume(ctx, contact, existing)
	}

	first := qs[0]
	zap.L().Info("clarify: chain started",
		zap.String("candidate_id", candidateID),
		zap.Strings("fields", fields),
		zap.String("language", lang),
	)
	c.send(ctx, contact, first.Text)
	return &first, nil
}

// ProcessResponse records text as the answer to the active question and
// asks the next one, or completes the chain and promotes the candidate.
func (c *Chain) ProcessResponse(ctx context.Context, candidateID, text string) (*Progress, error) {
	cand, err := c.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, eris.Wrap(err, "clarify: process response")
	}
	qs, err := c.store.ListQuestions(ctx, candidateID)
	if err != nil {
		return nil, eris.Wrap(err, "clarify: list questions")
	}
	active := findActive(qs)
	if active == nil {
		if chainState(qs) != StateActive {
			return nil, ErrNoActiveQuestion
		}
		// Only pending questions left: ask the next one again instead of
		// recording text against a question the speaker never saw.
		if _, err := c.resume(ctx, cand.Raw.Contact, qs); err != nil {
			return nil, err
		}
		return c.Progress(ctx, candidateID)
	}

	status := model.QuestionStatusAnswered
	if isSkip(text) {
		status = model.QuestionStatusSkipped
	}
	next := nextPending(qs, active.Ordinal)
	nextID := ""
	if next != nil {
		nextID = next.ID
	}
	won, err := c.store.AdvanceChain(ctx, active.ID, status, text, nextID)
	if err != nil {
		return nil, eris.Wrap(err, "clarify: record answer")
	}
	if !won {
		return nil, ErrNoActiveQuestion
	}
	zap.L().Info("clarify: question answered",
		zap.String("candidate_id", candidateID),
		zap.Int("ordinal", active.Ordinal),
		zap.String("field", active.FieldKey),
		zap.String("status", string(status)),
	)

	if next != nil {
		c.send(ctx, cand.Raw.Contact, next.Text)
		return c.Progress(ctx, candidateID)
	}

	if _, err := c.Finish(ctx, candidateID); err != nil {
		return nil, err
	}
	return c.Progress(ctx, candidateID)
}

// Finish projects the answers of a completed chain onto the candidate,
// validates it and promotes it. Repeated calls are harmless.
func (c *Chain) Finish(ctx context.Context, candidateID string) (*model.Idea, error) {
	cand, err := c.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, eris.Wrap(err, "clarify: finish")
	}
	qs, err := c.store.ListQuestions(ctx, candidateID)
	if err != nil {
		return nil, eris.Wrap(err, "clarify: list questions")
	}
	if chainState(qs) != StateComplete {
		return nil, eris.Wrapf(ErrNoActiveQuestion, "clarify: chain for %s is not complete", candidateID)
	}

	if cand.Status == model.CandidateStatusExtracted {
		merged := project(cand.Fields, qs)
		if _, err := c.store.ValidateCandidate(ctx, candidateID, merged); err != nil {
			return nil, eris.Wrap(err, "clarify: validate candidate")
		}
		if cand, err = c.store.GetCandidate(ctx, candidateID); err != nil {
			return nil, eris.Wrap(err, "clarify: reload candidate")
		}
	}

	idea, err := c.promoter.Promote(ctx, cand)
	if err != nil {
		return nil, eris.Wrap(err, "clarify: promote")
	}
	zap.L().Info("clarify: chain complete",
		zap.String("candidate_id", candidateID),
		zap.String("idea_id", idea.ID),
	)
	return idea, nil
}

// Progress is a read-only view of a chain.
func (c *Chain) Progress(ctx context.Context, candidateID string) (*Progress, error) {
	cand, err := c.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, eris.Wrap(err, "clarify: progress")
	}
	qs, err := c.store.ListQuestions(ctx, candidateID)
	if err != nil {
		return nil, eris.Wrap(err, "clarify: list questions")
	}

	p := &Progress{CandidateID: candidateID, Total: len(qs), IdeaID: cand.PromotedIdeaID}
	for _, q := range qs {
		if q.Status.Done() {
			p.Answered++
		}
	}
	if p.Total > 0 {
		p.Ratio = float64(p.Answered) / float64(p.Total)
	}
	if a := findActive(qs); a != nil {
		cp := *a
		p.Next = &cp
	}
	p.Complete = chainState(qs) == StateComplete
	return p, nil
}

// State reports where a candidate's chain stands.
func (c *Chain) State(ctx context.Context, candidateID string) (State, error) {
	if _, err := c.store.GetCandidate(ctx, candidateID); err != nil {
		return "", eris.Wrap(err, "clarify: state")
	}
	qs, err := c.store.ListQuestions(ctx, candidateID)
	if err != nil {
		return "", eris.Wrap(err, "clarify: list questions")
	}
	return chainState(qs), nil
}

// AbandonStale skips every open question of chains whose active question
// was asked more than olderThan ago. Candidates stay unpromoted.
func (c *Chain) AbandonStale(ctx context.Context, olderThan time.Duration) (int, error) {
	ids, err := c.store.StaleChains(ctx, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, eris.Wrap(err, "clarify: stale chains")
	}
	abandoned := 0
	for _, id := range ids {
		n, err := c.store.AbandonChain(ctx, id)
		if err != nil {
			return abandoned, eris.Wrapf(err, "clarify: abandon %s", id)
		}
		if n > 0 {
			abandoned++
			zap.L().Info("clarify: chain abandoned", zap.String("candidate_id", id), zap.Int("questions", n))
		}
	}
	return abandoned, nil
}

// send delivers a question. Failures are logged; the chain stays as is and
// the question can be re-read through Progress.
func (c *Chain) send(ctx context.Context, contact, text string) {
	if c.transport == nil || contact == "" {
		return
	}
	sctx, cancel := context.WithTimeout(ctx, c.sendTTL)
	defer cancel()
	if _, err := c.transport.Send(sctx, contact, text); err != nil {
		zap.L().Warn("clarify: send question failed", zap.String("contact", contact), zap.Error(err))
	}
}

func findActive(qs []model.ClarificationQuestion) *model.ClarificationQuestion {
	for i := range qs {
		if qs[i].Status == model.QuestionStatusAsked {
			return &qs[i]
		}
	}
	return nil
}

func nextPending(qs []model.ClarificationQuestion, after int) *model.ClarificationQuestion {
	for i := range qs {
		if qs[i].Ordinal > after && qs[i].Status == model.QuestionStatusPending {
			return &qs[i]
		}
	}
	return nil
}

func chainState(qs []model.ClarificationQuestion) State {
	if len(qs) == 0 {
		return StateNoChain
	}
	for _, q := range qs {
		if !q.Status.Done() {
			return StateActive
		}
	}
	return StateComplete
}

// resume returns the active question of an existing chain. A chain left
// with only pending questions gets its lowest one asked and sent again.
func (c *Chain) resume(ctx context.Context, contact string, qs []model.ClarificationQuestion) (*model.ClarificationQuestion, error) {
	if a := findActive(qs); a != nil {
		cp := *a
		return &cp, nil
	}
	if chainState(qs) == StateComplete {
		return nil, ErrChainComplete
	}
	next := nextPending(qs, 0)
	if next == nil {
		return nil, ErrNoActiveQuestion
	}
	asked, err := c.store.AskQuestion(ctx, next.ID)
	if err != nil {
		return nil, eris.Wrap(err, "clarify: resume chain")
	}
	if !asked {
		// A concurrent resume or answer got there first.
		qs, err := c.store.ListQuestions(ctx, next.CandidateID)
		if err != nil {
			return nil, eris.Wrap(err, "clarify: list questions")
		}
		if a := findActive(qs); a != nil {
			cp := *a
			return &cp, nil
		}
		return nil, ErrNoActiveQuestion
	}

	zap.L().Info("clarify: chain resumed",
		zap.String("candidate_id", next.CandidateID),
		zap.Int("ordinal", next.Ordinal),
	)
	c.send(ctx, contact, next.Text)
	cp := *next
	now := time.Now().UTC()
	cp.Status = model.QuestionStatusAsked
	cp.AskedAt = &now
	return &cp, nil
}
