package clarify

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/registry"
)

// planFields picks the fields to ask about: the extractor's clarification
// field first, then missing and low-confidence fields by registry priority.
func planFields(c *model.CandidateIdea, reg *registry.Registry, threshold float64, limit int) []string {
	seen := map[string]bool{}
	var out []string
	add := func(k string) {
		if k != "" && !seen[k] && len(out) < limit {
			seen[k] = true
			out = append(out, k)
		}
	}

	add(c.ClarificationField)

	var weak []string
	for _, k := range model.FieldKeys {
		if strings.TrimSpace(c.Fields.Get(k)) == "" {
			weak = append(weak, k)
			continue
		}
		if conf, ok := c.FieldConfidence[k]; ok && conf < threshold {
			weak = append(weak, k)
		}
	}
	for _, k := range reg.Ordered(weak) {
		add(k)
	}

	if len(out) == 0 {
		add(model.FieldProposedSolution)
	}
	return out
}

// buildChain turns planned fields into questions. The first one is asked.
func buildChain(c *model.CandidateIdea, fields []string, reg *registry.Registry, lang string) []model.ClarificationQuestion {
	now := time.Now().UTC()
	qs := make([]model.ClarificationQuestion, len(fields))
	for i, f := range fields {
		text := reg.Question(f, lang)
		if f == c.ClarificationField && strings.TrimSpace(c.ClarificationQuestion) != "" {
			text = c.ClarificationQuestion
		}
		qs[i] = model.ClarificationQuestion{
			ID:          uuid.NewString(),
			CandidateID: c.ID,
			Ordinal:     i + 1,
			FieldKey:    f,
			Text:        text,
			Status:      model.QuestionStatusPending,
			CreatedAt:   now,
		}
	}
	if len(qs) > 0 {
		qs[0].Status = model.QuestionStatusAsked
		qs[0].AskedAt = &now
	}
	return qs
}

var skipWords = map[string]bool{
	"skip":    true,
	"pass":    true,
	"next":    true,
	"n/a":     true,
	"passer":  true,
	"suivant": true,
	"تخطي":    true,
	"تخطى":    true,
	"التالي":  true,
}

// isSkip reports whether an answer asks to skip the question.
func isSkip(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.TrimRightFunc(t, func(r rune) bool { return unicode.IsPunct(r) && r != '/' })
	return skipWords[t]
}

// project merges answers onto the candidate's fields.
func project(fields model.IdeaFields, qs []model.ClarificationQuestion) model.IdeaFields {
	for _, q := range qs {
		if q.Status != model.QuestionStatusAnswered {
			continue
		}
		answer := strings.TrimSpace(q.AnswerText)
		if answer == "" {
			continue
		}
		if q.FieldKey == model.FieldCategory {
			cat := strings.ToLower(answer)
			switch {
			case model.IsKnownCategory(cat):
				answer = cat
			case fields.Category != "":
				continue
			default:
				answer = "other"
			}
		}
		fields.Set(q.FieldKey, answer)
	}
	return fields
}
