package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIdeaStatus(t *testing.T) {
	tests := []struct {
		in   string
		want IdeaStatus
		ok   bool
	}{
		{"submitted", IdeaStatusSubmitted, true},
		{" In_Progress ", IdeaStatusInProgress, true},
		{"REJECTED", IdeaStatusRejected, true},
		{"archived", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseIdeaStatus(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdeaStatus_Terminal(t *testing.T) {
	assert.True(t, IdeaStatusCompleted.Terminal())
	assert.True(t, IdeaStatusRejected.Terminal())
	assert.False(t, IdeaStatusFunded.Terminal())
}

func TestIdeaFields_SetGetMissing(t *testing.T) {
	var f IdeaFields
	for _, k := range FieldKeys {
		assert.True(t, f.Set(k, "v-"+k))
		assert.Equal(t, "v-"+k, f.Get(k))
	}
	assert.False(t, f.Set("budget", "1000"))
	assert.Empty(t, f.Get("budget"))

	f = IdeaFields{Title: "Solar pumps", ProblemStatement: "  "}
	assert.Equal(t, []string{FieldProblemStatement, FieldCategory}, f.Missing(RequiredFields))
}

func TestIdeaFields_Text(t *testing.T) {
	f := IdeaFields{Title: "Solar pumps", Category: "energy", Location: " "}
	assert.Equal(t, "Solar pumps energy", f.Text())
}

func TestIsKnownCategory(t *testing.T) {
	assert.True(t, IsKnownCategory(" Agriculture"))
	assert.False(t, IsKnownCategory("crypto"))
}

func TestCandidateAndQuestionHelpers(t *testing.T) {
	c := &CandidateIdea{}
	assert.False(t, c.Promoted())
	c.PromotedIdeaID = "idea-1"
	assert.True(t, c.Promoted())

	assert.True(t, QuestionStatusAnswered.Done())
	assert.True(t, QuestionStatusSkipped.Done())
	assert.False(t, QuestionStatusAsked.Done())
	assert.False(t, QuestionStatusPending.Done())
}
