// Package score implements the fixed idea rubric and the qualification tiers.
// Everything here is pure: the same fields and assessment always produce the
// same scores.
package score

import (
	"strings"

	"github.com/sells-group/ideaflow/internal/model"
)

// MaxCriterion is the ceiling of every sub-score.
const MaxCriterion = 5

// Stage-2 assessment criteria.
const (
	Innovation           = "innovation"
	MarketNeed           = "market_need"
	Feasibility          = "feasibility"
	Impact               = "impact"
	Scalability          = "scalability"
	Team                 = "team"
	Sustainability       = "sustainability"
	CompetitiveAdvantage = "competitive_advantage"
)

// Criterion describes one rubric line.
type Criterion struct {
	Stage       int    `json:"stage"`
	Key         string `json:"key"`
	Description string `json:"description"`
	Max         int    `json:"max"`
}

var stage1Criteria = []Criterion{
	{1, "title", "a descriptive title is given", MaxCriterion},
	{1, "problem_clarity", "problem statement depth, by word count", MaxCriterion},
	{1, "solution_clarity", "proposed solution depth, by word count", MaxCriterion},
	{1, "category", "category is part of the known vocabulary", MaxCriterion},
	{1, "location", "a location is given", MaxCriterion},
	{1, "target_audience", "target audience depth, by word count", MaxCriterion},
	{1, "business_model", "business model depth, by word count", MaxCriterion},
	{1, "overall_detail", "total descriptive detail across fields", MaxCriterion},
}

var stage2Criteria = []Criterion{
	{2, Innovation, "novelty of the approach", MaxCriterion},
	{2, MarketNeed, "evidence of demand", MaxCriterion},
	{2, Feasibility, "can be built with realistic resources", MaxCriterion},
	{2, Impact, "social or economic effect if it works", MaxCriterion},
	{2, Scalability, "room to grow beyond the first market", MaxCriterion},
	{2, Team, "ability of the proposer to execute", MaxCriterion},
	{2, Sustainability, "long-term viability of the model", MaxCriterion},
	{2, CompetitiveAdvantage, "defensibility against alternatives", MaxCriterion},
}

// Criteria returns the full rubric, stage 1 first.
func Criteria() []Criterion {
	out := make([]Criterion, 0, len(stage1Criteria)+len(stage2Criteria))
	out = append(out, stage1Criteria...)
	return append(out, stage2Criteria...)
}

// AssessmentKeys returns the stage-2 criterion keys in rubric order.
func AssessmentKeys() []string {
	keys := make([]string, len(stage2Criteria))
	for i, c := range stage2Criteria {
		keys[i] = c.Key
	}
	return keys
}

// IsAssessmentKey reports whether k is a stage-2 criterion.
func IsAssessmentKey(k string) bool {
	for _, c := range stage2Criteria {
		if c.Key == k {
			return true
		}
	}
	return false
}

// Score computes both stages and the total. TotalScore is the stage-2 total
// when present, else the stage-1 total, else 0.
func Score(fields model.IdeaFields, assessment map[string]int) model.Scores {
	var s model.Scores
	if v, ok := Stage1(fields); ok {
		s.Stage1Total = &v
		s.TotalScore = v
	}
	if v, ok := Stage2(assessment); ok {
		s.Stage2Total = &v
		s.TotalScore = v
	}
	return s
}

// Stage1 scores completeness from the fields alone. ok is false until the
// idea has both a title and a problem statement.
func Stage1(f model.IdeaFields) (int, bool) {
	if blank(f.Title) || blank(f.ProblemStatement) {
		return 0, false
	}

	total := 0
	total += depth(f.Title, 1, 3, 6, 9, 12)
	total += depth(f.ProblemStatement, 3, 8, 15, 25, 40)
	total += depth(f.ProposedSolution, 3, 8, 15, 25, 40)
	switch c := strings.ToLower(strings.TrimSpace(f.Category)); {
	case c == "":
	case c == "other":
		total += 2
	case model.IsKnownCategory(c):
		total += MaxCriterion
	}
	if !blank(f.Location) {
		total += MaxCriterion
	}
	total += depth(f.TargetAudience, 1, 3, 6, 10, 15)
	total += depth(f.BusinessModel, 2, 5, 10, 18, 30)
	total += depth(f.Text(), 20, 40, 70, 100, 130)
	return total, true
}

// Stage2 sums the known assessment criteria, each clamped to [0, 5].
// Unknown keys are ignored; ok is false when no known key is present.
func Stage2(assessment map[string]int) (int, bool) {
	total, seen := 0, false
	for _, c := range stage2Criteria {
		v, ok := assessment[c.Key]
		if !ok {
			continue
		}
		seen = true
		total += Clamp(v)
	}
	return total, seen
}

// Clamp bounds a sub-score to [0, MaxCriterion].
func Clamp(v int) int {
	switch {
	case v < 0:
		return 0
	case v > MaxCriterion:
		return MaxCriterion
	}
	return v
}

// depth maps the word count of s onto 0..5 using ascending cut points.
func depth(s string, cuts ...int) int {
	n := len(strings.Fields(s))
	points := 0
	for _, c := range cuts {
		if n >= c {
			points++
		}
	}
	return points
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
