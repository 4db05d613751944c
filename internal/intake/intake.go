// Package intake routes a submission through extraction and then either
// promotes it straight away or starts a clarification chain. It also routes
// inbound messages to an active chain.
package intake

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ideaflow/internal/clarify"
	"github.com/sells-group/ideaflow/internal/extract"
	"github.com/sells-group/ideaflow/internal/messaging"
	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/registry"
	"github.com/sells-group/ideaflow/internal/store"
)

// Kind classifies what happened to a submission or message.
type Kind string

const (
	KindPromoted   Kind = "promoted"
	KindClarifying Kind = "clarifying"
	KindAnswered   Kind = "answered"
	KindNeedsInfo  Kind = "needs_info"
	KindFailed     Kind = "could_not_extract"
)

// Outcome is the result of handling a submission or inbound message.
type Outcome struct {
	Kind      Kind                         `json:"kind"`
	Candidate *model.CandidateIdea         `json:"candidate,omitempty"`
	Idea      *model.Idea                  `json:"idea,omitempty"`
	Question  *model.ClarificationQuestion `json:"question,omitempty"`
	Progress  *clarify.Progress            `json:"progress,omitempty"`
	Missing   []string                     `json:"missing,omitempty"`
	Reply     string                       `json:"reply,omitempty"`
}

// Extractor turns raw text into a stored candidate.
type Extractor interface {
	Extract(ctx context.Context, raw model.RawSubmission) (*model.CandidateIdea, error)
}

// Promoter promotes a candidate to an idea.
type Promoter interface {
	Promote(ctx context.Context, cand *model.CandidateIdea) (*model.Idea, error)
}

// Chain is the part of clarify.Chain intake needs.
type Chain interface {
	StartChain(ctx context.Context, candidateID, contact string) (*model.ClarificationQuestion, error)
	ProcessResponse(ctx context.Context, candidateID, text string) (*clarify.Progress, error)
	State(ctx context.Context, candidateID string) (clarify.State, error)
	Finish(ctx context.Context, candidateID string) (*model.Idea, error)
}

// CandidateFinder reads candidates.
type CandidateFinder interface {
	GetCandidate(ctx context.Context, id string) (*model.CandidateIdea, error)
	LatestOpenCandidate(ctx context.Context, contact string) (*model.CandidateIdea, error)
}

// Service wires the intake steps together.
type Service struct {
	extractor Extractor
	promoter  Promoter
	chain     Chain
	finder    CandidateFinder
	transport messaging.Transport
	registry  *registry.Registry
}

// New creates a Service.
func New(ex Extractor, promoter Promoter, chain Chain, finder CandidateFinder, transport messaging.Transport, reg *registry.Registry) *Service {
	if reg == nil {
		reg = registry.Default()
	}
	return &Service{extractor: ex, promoter: promoter, chain: chain, finder: finder, transport: transport, registry: reg}
}

// Submit extracts raw and continues with promotion or clarification.
// Extraction failures are returned as errors: *extract.ValidationError or
// extract.ErrCouldNotExtract.
func (s *Service) Submit(ctx context.Context, raw model.RawSubmission) (*Outcome, error) {
	cand, err := s.extractor.Extract(ctx, raw)
	if err != nil {
		return nil, err
	}

	if !cand.NeedsClarification {
		idea, err := s.promoter.Promote(ctx, cand)
		if err != nil {
			return nil, eris.Wrap(err, "intake: promote")
		}
		return &Outcome{Kind: KindPromoted, Candidate: cand, Idea: idea}, nil
	}

	q, err := s.chain.StartChain(ctx, cand.ID, raw.Contact)
	if err != nil {
		return nil, eris.Wrap(err, "intake: start chain")
	}
	return &Outcome{Kind: KindClarifying, Candidate: cand, Question: q}, nil
}

// Promote promotes a candidate by id. A candidate that needed clarification
// goes through its chain, which must be complete; others are promoted as
// extracted. Repeated calls return the same idea.
func (s *Service) Promote(ctx context.Context, candidateID string) (*model.Idea, error) {
	cand, err := s.finder.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, eris.Wrap(err, "intake: promote")
	}
	if cand.Promoted() || !cand.NeedsClarification {
		idea, err := s.promoter.Promote(ctx, cand)
		return idea, eris.Wrap(err, "intake: promote")
	}
	idea, err := s.chain.Finish(ctx, candidateID)
	return idea, eris.Wrap(err, "intake: promote")
}

// HandleInbound routes a message from contact. With an active chain the text
// answers its question; otherwise it is a new submission. Extraction
// failures become a reply to the sender rather than an error.
func (s *Service) HandleInbound(ctx context.Context, contact, text string) (*Outcome, error) {
	log := zap.L().With(zap.String("contact", contact))

	if contact != "" {
		cand, err := s.finder.LatestOpenCandidate(ctx, contact)
		switch {
		case err == nil:
			out, handled, err := s.answer(ctx, cand, text)
			if err != nil || handled {
				return out, err
			}
		case !errors.Is(err, store.ErrNotFound):
			return nil, eris.Wrap(err, "intake: find candidate")
		}
	}

	out, err := s.Submit(ctx, model.RawSubmission{Text: text, Contact: contact})
	if err == nil {
		return out, nil
	}

	var verr *extract.ValidationError
	switch {
	case errors.As(err, &verr):
		out = &Outcome{Kind: KindNeedsInfo, Missing: verr.Missing}
		if len(verr.Missing) > 0 {
			out.Reply = s.registry.Question(verr.Missing[0], verr.Language)
		}
	case errors.Is(err, extract.ErrCouldNotExtract):
		out = &Outcome{Kind: KindFailed, Reply: rephrase(text)}
	default:
		return nil, err
	}
	log.Info("intake: extraction needs the speaker", zap.String("kind", string(out.Kind)))
	s.reply(ctx, contact, out.Reply)
	return out, nil
}

// answer feeds text to cand's chain when one is active.
func (s *Service) answer(ctx context.Context, cand *model.CandidateIdea, text string) (*Outcome, bool, error) {
	state, err := s.chain.State(ctx, cand.ID)
	if err != nil {
		return nil, false, eris.Wrap(err, "intake: chain state")
	}
	if state != clarify.StateActive {
		return nil, false, nil
	}
	p, err := s.chain.ProcessResponse(ctx, cand.ID, text)
	if errors.Is(err, clarify.ErrNoActiveQuestion) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "intake: process response")
	}
	return &Outcome{Kind: KindAnswered, Candidate: cand, Progress: p}, true, nil
}

func (s *Service) reply(ctx context.Context, contact, text string) {
	if s.transport == nil || contact == "" || text == "" {
		return
	}
	sctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if _, err := s.transport.Send(sctx, contact, text); err != nil {
		zap.L().Warn("intake: reply failed", zap.String("contact", contact), zap.Error(err))
	}
}

var rephraseText = map[string]string{
	"en": "Sorry, we could not understand your idea. Please rephrase it or fill in the form manually.",
	"ar": "عذراً، لم نتمكن من فهم فكرتك. يرجى إعادة صياغتها أو ملء النموذج يدوياً.",
	"fr": "Désolé, nous n'avons pas compris votre idée. Merci de la reformuler ou de remplir le formulaire manuellement.",
}

func rephrase(text string) string {
	return rephraseText[registry.Language(text, registry.DefaultLanguage)]
}
