package score

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ideaflow/internal/model"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestQualify_Boundaries(t *testing.T) {
	tests := []struct {
		total int
		want  Tier
	}{
		{0, TierPending},
		{14, TierPending},
		{15, TierDeveloping},
		{24, TierDeveloping},
		{25, TierQualified},
		{29, TierQualified},
		{30, TierExceptional},
		{40, TierExceptional},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Qualify(tt.total), "total=%d", tt.total)
	}
}

func TestScore_Empty(t *testing.T) {
	s := Score(model.IdeaFields{}, nil)
	assert.Nil(t, s.Stage1Total)
	assert.Nil(t, s.Stage2Total)
	assert.Equal(t, 0, s.TotalScore)
	assert.Equal(t, TierPending, Qualify(s.TotalScore))
}

func TestScore_Stage1Only(t *testing.T) {
	f := model.IdeaFields{
		Title:            "Solar kiosks for rural clinics",
		ProblemStatement: words(30),
		ProposedSolution: words(30),
		Category:         "energy",
		Location:         "Agadir",
	}
	s := Score(f, nil)
	require.NotNil(t, s.Stage1Total)
	assert.Nil(t, s.Stage2Total)
	assert.Equal(t, *s.Stage1Total, s.TotalScore)
	assert.LessOrEqual(t, s.TotalScore, 8*MaxCriterion)
}

func TestStage1_MaxedOut(t *testing.T) {
	f := model.IdeaFields{
		Title:            words(12),
		ProblemStatement: words(40),
		ProposedSolution: words(40),
		Category:         "health",
		Location:         "Rabat",
		TargetAudience:   words(15),
		BusinessModel:    words(30),
	}
	v, ok := Stage1(f)
	require.True(t, ok)
	assert.Equal(t, 40, v)
}

func TestStage1_RequiresTitleAndProblem(t *testing.T) {
	_, ok := Stage1(model.IdeaFields{Title: "x"})
	assert.False(t, ok)
	_, ok = Stage1(model.IdeaFields{ProblemStatement: "x"})
	assert.False(t, ok)
}

func TestScore_Stage2Overrides(t *testing.T) {
	f := model.IdeaFields{Title: "t", ProblemStatement: "p"}
	s := Score(f, map[string]int{Innovation: 5, MarketNeed: 4})
	require.NotNil(t, s.Stage1Total)
	require.NotNil(t, s.Stage2Total)
	assert.Equal(t, 9, s.TotalScore)
}

func TestStage2_ClampsAndIgnoresUnknown(t *testing.T) {
	v, ok := Stage2(map[string]int{Innovation: 9, Team: -3, "charisma": 5})
	require.True(t, ok)
	assert.Equal(t, 5, v)

	_, ok = Stage2(map[string]int{"charisma": 5})
	assert.False(t, ok)
}

func TestScore_RescoreMovesTier(t *testing.T) {
	f := model.IdeaFields{Title: "t", ProblemStatement: "p"}

	first := Score(f, map[string]int{
		Innovation: 5, MarketNeed: 5, Feasibility: 4, Impact: 4,
		Scalability: 4, Team: 4, Sustainability: 3, CompetitiveAdvantage: 3,
	})
	assert.Equal(t, 32, first.TotalScore)
	assert.Equal(t, TierExceptional, Qualify(first.TotalScore))

	second := Score(f, map[string]int{
		Innovation: 3, MarketNeed: 3, Feasibility: 3, Impact: 3,
		Scalability: 3, Team: 3, Sustainability: 2, CompetitiveAdvantage: 2,
	})
	assert.Equal(t, 22, second.TotalScore)
	assert.Equal(t, TierDeveloping, Qualify(second.TotalScore))
}

func TestScore_Deterministic(t *testing.T) {
	f := model.IdeaFields{Title: "Water", ProblemStatement: words(12), Category: "environment"}
	a := map[string]int{Impact: 3}
	assert.Equal(t, Score(f, a), Score(f, a))
}

func TestCriteria(t *testing.T) {
	c := Criteria()
	assert.Len(t, c, 16)
	assert.Equal(t, 1, c[0].Stage)
	assert.Equal(t, 2, c[15].Stage)
	assert.True(t, IsAssessmentKey(Feasibility))
	assert.False(t, IsAssessmentKey("title"))
	assert.Len(t, AssessmentKeys(), 8)
}
