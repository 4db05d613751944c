package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ideaflow/internal/model"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "مشر…", truncate("مشروع زراعي", 4))
}

func TestFormatIdeaList(t *testing.T) {
	var buf bytes.Buffer
	formatIdeaList(&buf, []model.Idea{
		{ID: "i1", Status: model.IdeaStatusAnalyzed, Fields: model.IdeaFields{Title: "Solar pumps"}, Scores: model.Scores{TotalScore: 26}},
		{ID: "i2", Status: model.IdeaStatusSubmitted, Fields: model.IdeaFields{Title: "Tutoring"}},
	})

	out := buf.String()
	assert.Contains(t, out, "TIER")
	assert.Contains(t, out, "qualified")
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "Solar pumps")
}

func TestFormatTransitions(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	formatTransitions(&buf, []model.Transition{
		{From: "", To: model.IdeaStatusSubmitted, At: at},
		{From: model.IdeaStatusSubmitted, To: model.IdeaStatusAnalyzing, Reason: "auto", At: at},
	})

	out := buf.String()
	assert.Contains(t, out, "2026-03-01 09:30:00")
	assert.Contains(t, out, "-  ")
	assert.Contains(t, out, "auto")
}

func TestFormatMatches_FallsBackToMentorID(t *testing.T) {
	var buf bytes.Buffer
	formatMatches(&buf, []model.MentorMatch{
		{ID: "m1", MentorID: "mentor-7", MatchScore: 0.5, Status: model.MatchStatusPending, Reasons: []string{"category", "location"}},
	})
	assert.Contains(t, buf.String(), "mentor-7")
	assert.Contains(t, buf.String(), "0.50")
	assert.Contains(t, buf.String(), "category; location")
}

func TestPrintIdea(t *testing.T) {
	s1 := 18
	idea := &model.Idea{ID: "i1", Fields: model.IdeaFields{Title: "Solar pumps", Category: "energy"},
		Status: model.IdeaStatusAnalyzed, Scores: model.Scores{Stage1Total: &s1, TotalScore: 18}}

	var buf bytes.Buffer
	require.NoError(t, printIdea(&buf, idea))
	assert.Contains(t, buf.String(), "Score:    18 (developing)")
	assert.Contains(t, buf.String(), "Stage 1:  18")
	assert.NotContains(t, buf.String(), "Stage 2")

	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })
	buf.Reset()
	require.NoError(t, printIdea(&buf, idea))
	assert.Contains(t, buf.String(), `"tier": "developing"`)
}
