// Package extract turns a raw submission into a validated candidate idea by
// asking the language model for structured fields and a confidence score.
package extract

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/registry"
	"github.com/sells-group/ideaflow/internal/resilience"
	"github.com/sells-group/ideaflow/pkg/anthropic"
)

// CandidateWriter persists a successful extraction.
type CandidateWriter interface {
	CreateCandidate(ctx context.Context, c *model.CandidateIdea) error
}

// Config tunes extraction.
type Config struct {
	Model     string
	MaxTokens int64
	// ConfidenceThreshold is the overall score at or above which no
	// clarification is needed.
	ConfidenceThreshold float64
	// FieldThreshold marks individual fields as worth asking about.
	FieldThreshold float64
	Retry          resilience.RetryConfig
}

// Service runs extractions.
type Service struct {
	llm      anthropic.Client
	store    CandidateWriter
	registry *registry.Registry
	cfg      Config
	now      func() time.Time
}

// New creates a Service. A nil registry uses the built-in prompts.
func New(llm anthropic.Client, store CandidateWriter, reg *registry.Registry, cfg Config) *Service {
	if reg == nil {
		reg = registry.Default()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = 0.70
	}
	if cfg.FieldThreshold <= 0 {
		cfg.FieldThreshold = 0.60
	}
	return &Service{llm: llm, store: store, registry: reg, cfg: cfg, now: time.Now}
}

// FieldThreshold is the per-field confidence below which a field is asked about.
func (s *Service) FieldThreshold() float64 { return s.cfg.FieldThreshold }

// Extract calls the model, validates the result and writes one candidate.
// Model failures surface as ErrCouldNotExtract; missing required fields as
// *ValidationError. Nothing is written on failure.
func (s *Service) Extract(ctx context.Context, raw model.RawSubmission) (*model.CandidateIdea, error) {
	log := zap.L().With(zap.String("contact", raw.Contact))

	if strings.TrimSpace(raw.Text) == "" {
		return nil, &ValidationError{Missing: append([]string(nil), model.RequiredFields...), Language: "en"}
	}

	p, err := s.call(ctx, raw)
	if err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "extract: cancelled")
		}
		log.Warn("extract: giving up", zap.Error(err))
		return nil, eris.Wrap(ErrCouldNotExtract, err.Error())
	}

	fields := p.fields()
	lang := normalizeLanguage(p.Language)
	if missing := fields.Missing(model.RequiredFields); len(missing) > 0 {
		log.Info("extract: required fields missing", zap.Strings("missing", missing))
		return nil, &ValidationError{Missing: missing, Language: lang}
	}

	now := s.now().UTC()
	c := &model.CandidateIdea{
		ID:              uuid.NewString(),
		Raw:             raw,
		Fields:          fields,
		FieldConfidence: knownConfidence(p.FieldConfidence),
		ConfidenceScore: *p.ConfidenceScore,
		Status:          model.CandidateStatusExtracted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if c.ConfidenceScore < s.cfg.ConfidenceThreshold {
		c.NeedsClarification = true
		c.ClarificationField = s.ambiguousField(p, fields)
		c.ClarificationQuestion = strings.TrimSpace(p.ClarificationQuestion)
		if c.ClarificationQuestion == "" || p.AmbiguousField != c.ClarificationField {
			c.ClarificationQuestion = s.registry.Question(c.ClarificationField, lang)
		}
	}

	if err := s.store.CreateCandidate(ctx, c); err != nil {
		return nil, eris.Wrap(err, "extract: save candidate")
	}

	log.Info("extract: candidate created",
		zap.String("candidate_id", c.ID),
		zap.Float64("confidence", c.ConfidenceScore),
		zap.Bool("needs_clarification", c.NeedsClarification),
		zap.String("clarification_field", c.ClarificationField),
	)
	return c, nil
}

// call asks the model, retrying transient errors and malformed payloads.
func (s *Service) call(ctx context.Context, raw model.RawSubmission) (*payload, error) {
	retry := s.cfg.Retry
	retry.ShouldRetry = func(err error) bool {
		return errors.Is(err, errMalformed) || resilience.IsTransient(err)
	}
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("anthropic", "extract")
	}

	return resilience.DoVal(ctx, retry, func(ctx context.Context) (*payload, error) {
		resp, err := s.llm.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     s.cfg.Model,
			MaxTokens: s.cfg.MaxTokens,
			System:    anthropic.CachedSystem(systemPrompt),
			Messages:  []anthropic.Message{{Role: "user", Content: userPrompt(raw)}},
		})
		if err != nil {
			return nil, err
		}
		resp.Usage.LogCost(s.cfg.Model, "extract")
		return parsePayload(resp.Text())
	})
}

// ambiguousField picks the single field most worth asking about.
func (s *Service) ambiguousField(p *payload, fields model.IdeaFields) string {
	if isFieldKey(p.AmbiguousField) {
		return p.AmbiguousField
	}

	lowest, best := "", 2.0
	for _, k := range model.FieldKeys {
		c, ok := p.FieldConfidence[k]
		if ok && c < best {
			lowest, best = k, c
		}
	}
	if lowest != "" {
		return lowest
	}

	if missing := s.registry.Ordered(fields.Missing(model.FieldKeys)); len(missing) > 0 {
		return missing[0]
	}
	return model.FieldProposedSolution
}

func knownConfidence(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if isFieldKey(k) {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func isFieldKey(k string) bool {
	for _, f := range model.FieldKeys {
		if f == k {
			return true
		}
	}
	return false
}
