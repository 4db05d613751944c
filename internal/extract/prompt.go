package extract

import (
	"fmt"
	"strings"

	"github.com/sells-group/ideaflow/internal/model"
)

// systemPrompt is identical on every call so it is sent with cache control.
var systemPrompt = fmt.Sprintf(`You turn a person's free-text description of a business or social idea into structured fields.
The text may be in English, Arabic or French. Keep field values in the speaker's language.

Return ONLY a single JSON object, no prose, with these keys:
{
  "title": "short name of the idea",
  "problem_statement": "the problem being solved",
  "proposed_solution": "how the idea solves it",
  "category": "one of: %s",
  "location": "city or region, if stated",
  "target_audience": "who benefits or pays",
  "business_model": "how it earns or sustains itself",
  "confidence_score": 0.0,
  "field_confidence": {"title": 0.0, "problem_statement": 0.0, "proposed_solution": 0.0, "category": 0.0, "location": 0.0, "target_audience": 0.0, "business_model": 0.0},
  "ambiguous_field": "the single field you are least sure about",
  "clarification_question": "one short question that would resolve that field, in the speaker's language",
  "language": "en, ar or fr"
}

Rules:
- Use an empty string for anything the text does not state. Do not invent facts.
- confidence_score and every field_confidence value are between 0 and 1.
- confidence_score reflects how completely and unambiguously the text describes the idea.
- If no category fits, use "other".`, strings.Join(model.Categories, ", "))

func userPrompt(raw model.RawSubmission) string {
	return "Idea description:\n\n" + strings.TrimSpace(raw.Text)
}
