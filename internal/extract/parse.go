package extract

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ideaflow/internal/model"
)

// payload is the JSON object the model returns.
type payload struct {
	Title                 string             `json:"title"`
	ProblemStatement      string             `json:"problem_statement"`
	ProposedSolution      string             `json:"proposed_solution"`
	Category              string             `json:"category"`
	Location              string             `json:"location"`
	TargetAudience        string             `json:"target_audience"`
	BusinessModel         string             `json:"business_model"`
	ConfidenceScore       *float64           `json:"confidence_score"`
	FieldConfidence       map[string]float64 `json:"field_confidence"`
	AmbiguousField        string             `json:"ambiguous_field"`
	ClarificationQuestion string             `json:"clarification_question"`
	Language              string             `json:"language"`
}

func (p payload) fields() model.IdeaFields {
	return model.IdeaFields{
		Title:            strings.TrimSpace(p.Title),
		ProblemStatement: strings.TrimSpace(p.ProblemStatement),
		ProposedSolution: strings.TrimSpace(p.ProposedSolution),
		Category:         normalizeCategory(p.Category),
		Location:         strings.TrimSpace(p.Location),
		TargetAudience:   strings.TrimSpace(p.TargetAudience),
		BusinessModel:    strings.TrimSpace(p.BusinessModel),
	}
}

// cleanJSON strips markdown code fences and surrounding prose.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

// parsePayload decodes the model output. Every failure wraps errMalformed.
func parsePayload(text string) (*payload, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" || cleaned[0] != '{' {
		return nil, eris.Wrap(errMalformed, "not a json object")
	}

	var p payload
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return nil, eris.Wrapf(errMalformed, "decode: %v", err)
	}
	if p.ConfidenceScore == nil {
		return nil, eris.Wrap(errMalformed, "confidence_score missing")
	}
	if c := *p.ConfidenceScore; c < 0 || c > 1 {
		return nil, eris.Wrapf(errMalformed, "confidence_score %.2f out of range", c)
	}
	for k, c := range p.FieldConfidence {
		if c < 0 || c > 1 {
			return nil, eris.Wrapf(errMalformed, "field_confidence[%s] %.2f out of range", k, c)
		}
	}
	return &p, nil
}

func normalizeCategory(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return ""
	}
	if model.IsKnownCategory(c) {
		return c
	}
	return "other"
}

func normalizeLanguage(lang string) string {
	switch l := strings.ToLower(strings.TrimSpace(lang)); l {
	case "ar", "fr", "en":
		return l
	default:
		return "en"
	}
}
