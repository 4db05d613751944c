package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/resilience"
	"github.com/sells-group/ideaflow/internal/score"
	"github.com/sells-group/ideaflow/pkg/anthropic"
)

// Assessor asks the model for stage-2 sub-scores of an idea.
type Assessor struct {
	llm   anthropic.Client
	model string
	retry resilience.RetryConfig
}

// NewAssessor creates an Assessor using model.
func NewAssessor(llm anthropic.Client, model string, retry resilience.RetryConfig) *Assessor {
	return &Assessor{llm: llm, model: model, retry: retry}
}

func assessPrompt() string {
	var b strings.Builder
	b.WriteString("You assess early-stage ideas. Score each criterion from 0 (absent) to 5 (excellent).\n\nCriteria:\n")
	for _, c := range score.Criteria() {
		if c.Stage == 2 {
			fmt.Fprintf(&b, "- %s: %s\n", c.Key, c.Description)
		}
	}
	b.WriteString("\nReturn ONLY a JSON object mapping each criterion key to an integer, no prose.")
	return b.String()
}

// Assess returns sub-scores keyed by stage-2 criterion. Unknown keys are
// dropped; values are clamped by the score engine.
func (a *Assessor) Assess(ctx context.Context, fields model.IdeaFields) (map[string]int, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, eris.Wrap(err, "extract: marshal fields")
	}

	retry := a.retry
	retry.ShouldRetry = func(err error) bool {
		return errors.Is(err, errMalformed) || resilience.IsTransient(err)
	}
	out, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (map[string]int, error) {
		resp, err := a.llm.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     a.model,
			MaxTokens: 512,
			System:    anthropic.CachedSystem(assessPrompt()),
			Messages:  []anthropic.Message{{Role: "user", Content: string(body)}},
		})
		if err != nil {
			return nil, err
		}
		resp.Usage.LogCost(a.model, "assess")
		return parseAssessment(resp.Text())
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: assess")
	}
	return out, nil
}

func parseAssessment(text string) (map[string]int, error) {
	var raw map[string]float64
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return nil, eris.Wrapf(errMalformed, "decode assessment: %v", err)
	}
	out := make(map[string]int, len(raw))
	for k, v := range raw {
		if score.IsAssessmentKey(k) {
			out[k] = int(v + 0.5)
		}
	}
	if len(out) == 0 {
		return nil, eris.Wrap(errMalformed, "assessment has no known criteria")
	}
	return out, nil
}
