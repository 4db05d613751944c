package extract

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/registry"
	"github.com/sells-group/ideaflow/internal/resilience"
	"github.com/sells-group/ideaflow/pkg/anthropic"
	"github.com/sells-group/ideaflow/pkg/anthropic/mocks"
)

type recordingWriter struct {
	mu    sync.Mutex
	saved []*model.CandidateIdea
	err   error
}

func (w *recordingWriter) CreateCandidate(_ context.Context, c *model.CandidateIdea) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.saved = append(w.saved, c)
	return nil
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		ID:      "msg_1",
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}
}

func fastConfig() Config {
	return Config{
		Model:               "claude-haiku-4-5-20251001",
		ConfidenceThreshold: 0.70,
		FieldThreshold:      0.60,
		Retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
			AttemptTimeout: time.Second,
		},
	}
}

const confidentJSON = "```json\n" + `{
  "title": "Solar water kiosks",
  "problem_statement": "Villages lack clean drinking water",
  "proposed_solution": "Solar powered purification kiosks",
  "category": "energy",
  "location": "Agadir",
  "target_audience": "rural families",
  "business_model": "pay per litre",
  "confidence_score": 0.86,
  "field_confidence": {"title": 0.9, "location": 0.8},
  "language": "en"
}` + "\n```"

func TestExtract_ConfidentCandidate(t *testing.T) {
	llm := mocks.NewMockClient(t)
	w := &recordingWriter{}
	svc := New(llm, w, nil, fastConfig())

	llm.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return len(req.System) == 1 && req.System[0].CacheControl != nil &&
			req.Messages[0].Content != ""
	})).Return(textResponse(confidentJSON), nil).Once()

	c, err := svc.Extract(context.Background(), model.RawSubmission{Text: "solar kiosks for villages", Contact: "+212600"})
	require.NoError(t, err)
	assert.False(t, c.NeedsClarification)
	assert.Empty(t, c.ClarificationQuestion)
	assert.Equal(t, "energy", c.Fields.Category)
	assert.Equal(t, model.CandidateStatusExtracted, c.Status)
	assert.Equal(t, "+212600", c.Raw.Contact)
	require.Len(t, w.saved, 1)
	assert.Equal(t, c.ID, w.saved[0].ID)
}

func TestExtract_LowConfidenceUsesModelQuestion(t *testing.T) {
	llm := mocks.NewMockClient(t)
	w := &recordingWriter{}
	svc := New(llm, w, nil, fastConfig())

	llm.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(`{
		"title": "Farm app", "problem_statement": "Farmers sell below market price", "category": "agriculture",
		"confidence_score": 0.45, "ambiguous_field": "business_model",
		"clarification_question": "Who pays for the app?", "language": "en"}`), nil).Once()

	c, err := svc.Extract(context.Background(), model.RawSubmission{Text: "an app for farmers"})
	require.NoError(t, err)
	assert.True(t, c.NeedsClarification)
	assert.Equal(t, model.FieldBusinessModel, c.ClarificationField)
	assert.Equal(t, "Who pays for the app?", c.ClarificationQuestion)
	assert.Len(t, w.saved, 1)
}

func TestExtract_LowConfidenceFallsBackToRegistry(t *testing.T) {
	llm := mocks.NewMockClient(t)
	svc := New(llm, &recordingWriter{}, nil, fastConfig())

	llm.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(`{
		"title": "منصة تعليمية", "problem_statement": "نقص المعلمين في القرى", "category": "education",
		"confidence_score": 0.5, "ambiguous_field": "budget",
		"field_confidence": {"title": 0.9, "location": 0.2, "junk": 0.0},
		"clarification_question": "كم الميزانية؟", "language": "ar"}`), nil).Once()

	c, err := svc.Extract(context.Background(), model.RawSubmission{Text: "منصة تعليمية"})
	require.NoError(t, err)
	assert.Equal(t, model.FieldLocation, c.ClarificationField)
	assert.Equal(t, registry.Default().Question(model.FieldLocation, "ar"), c.ClarificationQuestion)
	assert.NotContains(t, c.FieldConfidence, "junk")
}

func TestExtract_ArabicSubmission(t *testing.T) {
	llm := mocks.NewMockClient(t)
	w := &recordingWriter{}
	svc := New(llm, w, nil, fastConfig())

	llm.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(`{
		"title": "تطبيق توصيل للمدارس", "problem_statement": "صعوبة نقل التلاميذ إلى المدارس في الرباط",
		"category": "Logistics", "location": "الرباط",
		"confidence_score": 0.55, "field_confidence": {"business_model": 0.1}, "language": "ar"}`), nil).Once()

	c, err := svc.Extract(context.Background(), model.RawSubmission{Text: "فكرة تطبيق توصيل للمدارس بالرباط"})
	require.NoError(t, err)
	assert.Contains(t, []string{"logistics", "education", "technology"}, c.Fields.Category)
	assert.Equal(t, "الرباط", c.Fields.Location)
	require.Less(t, c.ConfidenceScore, 0.70)
	assert.True(t, c.NeedsClarification)
	assert.NotEmpty(t, c.ClarificationField)
	assert.NotEmpty(t, c.ClarificationQuestion)
	assert.Equal(t, registry.Default().Question(c.ClarificationField, "ar"), c.ClarificationQuestion)
	assert.Len(t, w.saved, 1)
}

func TestExtract_ThresholdIsInclusive(t *testing.T) {
	llm := mocks.NewMockClient(t)
	svc := New(llm, &recordingWriter{}, nil, fastConfig())

	llm.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(`{
		"title": "t", "problem_statement": "p", "category": "health", "confidence_score": 0.70}`), nil).Once()

	c, err := svc.Extract(context.Background(), model.RawSubmission{Text: "x"})
	require.NoError(t, err)
	assert.False(t, c.NeedsClarification)
}

func TestExtract_RetriesMalformedThenSucceeds(t *testing.T) {
	llm := mocks.NewMockClient(t)
	w := &recordingWriter{}
	svc := New(llm, w, nil, fastConfig())

	llm.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse("Sure! Here is the idea."), nil).Once()
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, resilience.NewTransientError(errors.New("overloaded"), 529)).Once()
	llm.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(confidentJSON), nil).Once()

	c, err := svc.Extract(context.Background(), model.RawSubmission{Text: "solar kiosks"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Len(t, w.saved, 1)
}

func TestExtract_GivesUpAfterBoundedRetries(t *testing.T) {
	llm := mocks.NewMockClient(t)
	w := &recordingWriter{}
	svc := New(llm, w, nil, fastConfig())

	llm.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(`{"title": "x", "confidence_score": 3}`), nil).Times(3)

	c, err := svc.Extract(context.Background(), model.RawSubmission{Text: "something"})
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrCouldNotExtract)
	assert.Empty(t, w.saved)
}

func TestExtract_PermanentErrorNotRetried(t *testing.T) {
	llm := mocks.NewMockClient(t)
	svc := New(llm, &recordingWriter{}, nil, fastConfig())

	llm.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("invalid api key")).Once()

	_, err := svc.Extract(context.Background(), model.RawSubmission{Text: "something"})
	assert.ErrorIs(t, err, ErrCouldNotExtract)
}

func TestExtract_MissingRequiredFields(t *testing.T) {
	llm := mocks.NewMockClient(t)
	w := &recordingWriter{}
	svc := New(llm, w, nil, fastConfig())

	llm.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(`{
		"title": "Idée", "problem_statement": "", "category": "", "confidence_score": 0.95, "language": "fr"}`), nil).Once()

	_, err := svc.Extract(context.Background(), model.RawSubmission{Text: "une idée"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{model.FieldProblemStatement, model.FieldCategory}, verr.Missing)
	assert.Equal(t, "fr", verr.Language)
	assert.ErrorIs(t, err, ErrCouldNotExtract)
	assert.Empty(t, w.saved)
}

func TestExtract_EmptyTextSkipsModel(t *testing.T) {
	llm := mocks.NewMockClient(t)
	svc := New(llm, &recordingWriter{}, nil, fastConfig())

	_, err := svc.Extract(context.Background(), model.RawSubmission{Text: "   "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, model.RequiredFields, verr.Missing)
	llm.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestExtract_StoreError(t *testing.T) {
	llm := mocks.NewMockClient(t)
	svc := New(llm, &recordingWriter{err: errors.New("disk full")}, nil, fastConfig())

	llm.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(confidentJSON), nil).Once()

	_, err := svc.Extract(context.Background(), model.RawSubmission{Text: "solar"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save candidate")
	assert.NotErrorIs(t, err, ErrCouldNotExtract)
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain object", `{"title":"a","confidence_score":0.5}`, false},
		{"fenced", "```json\n{\"confidence_score\":1}\n```", false},
		{"surrounded by prose", "Here you go: {\"confidence_score\":0} hope it helps", false},
		{"array", `[0.5, 0.7]`, true},
		{"not json", "I cannot help with that", true},
		{"empty", "", true},
		{"missing confidence", `{"title":"a"}`, true},
		{"confidence above one", `{"confidence_score":1.5}`, true},
		{"field confidence negative", `{"confidence_score":0.5,"field_confidence":{"title":-0.1}}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parsePayload(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, errMalformed)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "fintech", normalizeCategory(" FinTech "))
	assert.Equal(t, "other", normalizeCategory("agritech"))
	assert.Empty(t, normalizeCategory(""))
}

func TestAssessor(t *testing.T) {
	llm := mocks.NewMockClient(t)
	a := NewAssessor(llm, "claude-sonnet-4-5-20250929", resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond})

	llm.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse("not json"), nil).Once()
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`{"innovation": 4, "market_need": 3.6, "team": 9, "vibes": 5}`), nil).Once()

	got, err := a.Assess(context.Background(), model.IdeaFields{Title: "t", ProblemStatement: "p"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"innovation": 4, "market_need": 4, "team": 9}, got)
}

func TestParseAssessment_NoKnownKeys(t *testing.T) {
	_, err := parseAssessment(`{"vibes": 5}`)
	assert.ErrorIs(t, err, errMalformed)
}
