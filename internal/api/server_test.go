package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ideaflow/internal/clarify"
	"github.com/sells-group/ideaflow/internal/extract"
	"github.com/sells-group/ideaflow/internal/intake"
	"github.com/sells-group/ideaflow/internal/lifecycle"
	"github.com/sells-group/ideaflow/internal/matching"
	"github.com/sells-group/ideaflow/internal/mentors"
	"github.com/sells-group/ideaflow/internal/messaging"
	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/registry"
	"github.com/sells-group/ideaflow/internal/resilience"
	"github.com/sells-group/ideaflow/internal/store"
	"github.com/sells-group/ideaflow/pkg/anthropic"
	"github.com/sells-group/ideaflow/pkg/anthropic/mocks"
)

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(context.Context, string) error { return nil }

type testEnv struct {
	handler   http.Handler
	llm       *mocks.MockClient
	store     *store.SQLiteStore
	transport *messaging.MemoryTransport
}

func newTestEnv(t *testing.T, importer ImportFunc) *testEnv {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	llm := mocks.NewMockClient(t)
	tr := &messaging.MemoryTransport{}
	reg := registry.Default()
	ex := extract.New(llm, s, reg, extract.Config{
		Model: "claude-haiku-4-5-20251001",
		Retry: resilience.RetryConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond},
	})
	ctl := lifecycle.New(s, lifecycle.WithDispatcher(noopDispatcher{}))
	chain := clarify.NewChain(s, reg, tr, ctl, clarify.Config{MaxQuestions: 2})

	srv := New(Deps{
		Intake:        intake.New(ex, ctl, chain, s, tr, reg),
		Extractor:     ex,
		Chain:         chain,
		Lifecycle:     ctl,
		Matcher:       matching.NewService(s, ctl, 5),
		Reader:        s,
		ImportMentors: importer,
	})
	return &testEnv{handler: srv.Handler([]string{"*"}), llm: llm, store: s, transport: tr}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) llmReplies(text string) {
	e.llm.On("CreateMessage", mock.Anything, mock.Anything).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}, nil).Once()
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

var solarFields = model.IdeaFields{
	Title:            "Solar water kiosks",
	ProblemStatement: "Rural villages lack clean drinking water and walk hours to fetch it every day",
	ProposedSolution: "Solar powered purification kiosks run by local women cooperatives",
	Category:         "energy",
	Location:         "Agadir",
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestIdeaLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/v1/ideas", map[string]any{"fields": solarFields, "contact": "+1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[lifecycle.View](t, rec)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, model.IdeaStatusSubmitted, created.Status)

	rec = env.do(t, http.MethodPost, "/v1/ideas/"+created.ID+"/analyze", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	analyzed := decodeBody[lifecycle.View](t, rec)
	assert.Equal(t, model.IdeaStatusAnalyzed, analyzed.Status)
	require.NotNil(t, analyzed.Scores.Stage1Total)

	rec = env.do(t, http.MethodPost, "/v1/ideas/"+created.ID+"/advance", map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/ideas/"+created.ID+"/advance", map[string]string{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/v1/ideas/"+created.ID+"/assessment", map[string]int{"innovation": 5, "impact": 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assessed := decodeBody[lifecycle.View](t, rec)
	require.NotNil(t, assessed.Scores.Stage2Total)
	assert.Equal(t, 9, assessed.Scores.TotalScore, "stage 2 supersedes stage 1")

	rec = env.do(t, http.MethodPut, "/v1/ideas/"+created.ID+"/assessment", map[string]int{"charisma": 5})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/ideas/"+created.ID+"/transitions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	hist := decodeBody[struct {
		Transitions []model.Transition `json:"transitions"`
	}](t, rec)
	require.Len(t, hist.Transitions, 3)
	assert.Equal(t, model.IdeaStatusAnalyzed, hist.Transitions[2].To)

	rec = env.do(t, http.MethodGet, "/v1/ideas?status=analyzed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[struct {
		Ideas []lifecycle.View `json:"ideas"`
	}](t, rec)
	require.Len(t, list.Ideas, 1)
	assert.NotEmpty(t, list.Ideas[0].Tier)

	rec = env.do(t, http.MethodGet, "/v1/ideas?status=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorsCarryStatusAndBody(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/v1/ideas/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody[errorBody](t, rec)
	assert.False(t, body.Retriable)
	assert.NotEmpty(t, body.Error)

	rec = env.do(t, http.MethodPost, "/v1/ideas", map[string]any{"fields": model.IdeaFields{Title: "Only a title"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body = decodeBody[errorBody](t, rec)
	assert.Equal(t, []string{model.FieldProblemStatement, model.FieldCategory}, body.Missing)

	env.llmReplies("not json at all")
	rec = env.do(t, http.MethodPost, "/v1/submissions", map[string]string{"text": "my idea"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body = decodeBody[errorBody](t, rec)
	assert.True(t, body.Retriable)

	rec = env.do(t, http.MethodPost, "/v1/submissions", map[string]any{"unknown": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmissionAndChainOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)
	env.llmReplies(`{"title":"Farm app","problem_statement":"Farmers earn too little","category":"agriculture",
"confidence_score":0.4,"ambiguous_field":"business_model","clarification_question":"Who pays?","language":"en"}`)

	rec := env.do(t, http.MethodPost, "/v1/submissions", map[string]string{"text": "farm app", "contact": "+2"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decodeBody[intake.Outcome](t, rec)
	assert.Equal(t, intake.KindClarifying, out.Kind)
	candID := out.Candidate.ID

	rec = env.do(t, http.MethodPost, "/v1/candidates/"+candID+"/promote", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "chain still open")

	rec = env.do(t, http.MethodPost, "/v1/candidates/"+candID+"/answers", map[string]string{"text": "Cooperatives pay"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/v1/candidates/"+candID+"/answers", map[string]string{"text": "skip"})
	require.Equal(t, http.StatusOK, rec.Code)
	p := decodeBody[clarify.Progress](t, rec)
	assert.True(t, p.Complete)
	require.NotEmpty(t, p.IdeaID)

	rec = env.do(t, http.MethodPost, "/v1/candidates/"+candID+"/answers", map[string]string{"text": "late"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/candidates/"+candID+"/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, p.IdeaID, decodeBody[clarify.Progress](t, rec).IdeaID)

	rec = env.do(t, http.MethodPost, "/v1/candidates/"+candID+"/promote", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, p.IdeaID, decodeBody[lifecycle.View](t, rec).ID)

	rec = env.do(t, http.MethodGet, "/v1/candidates/"+candID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.CandidateStatusPromoted, decodeBody[model.CandidateIdea](t, rec).Status)
}

func TestInboundWebhook(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/webhooks/messages", map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.llmReplies(`{"title":"Idea","problem_statement":"","category":"","confidence_score":0.9,"language":"en"}`)
	rec = env.do(t, http.MethodPost, "/webhooks/messages", map[string]string{"contact": "+3", "text": "I have an idea"})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody[intake.Outcome](t, rec)
	assert.Equal(t, intake.KindNeedsInfo, out.Kind)

	last, ok := env.transport.Last()
	require.True(t, ok)
	assert.Equal(t, out.Reply, last.Text)
}

func TestMatchesOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, err := env.store.UpsertMentors(ctx, []model.Mentor{{
		ExternalID: "m1", Name: "Amina", Expertise: []string{"solar", "water"},
		Categories: []string{"energy"}, Location: "Agadir", Active: true, Capacity: 2,
	}})
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/v1/ideas", map[string]any{"fields": solarFields})
	id := decodeBody[lifecycle.View](t, rec).ID

	rec = env.do(t, http.MethodPost, "/v1/ideas/"+id+"/matches", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "idea not analyzed yet")

	env.do(t, http.MethodPost, "/v1/ideas/"+id+"/analyze", nil)
	rec = env.do(t, http.MethodPost, "/v1/ideas/"+id+"/matches?limit=3", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeBody[struct {
		Matches []model.MentorMatch `json:"matches"`
	}](t, rec)
	require.Len(t, got.Matches, 1)
	matchID := got.Matches[0].ID

	rec = env.do(t, http.MethodPost, "/v1/matches/"+matchID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.MatchStatusActive, decodeBody[model.MentorMatch](t, rec).Status)

	rec = env.do(t, http.MethodPost, "/v1/matches/"+matchID+"/reject", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/ideas/"+id, nil)
	assert.Equal(t, model.IdeaStatusMatched, decodeBody[lifecycle.View](t, rec).Status)

	rec = env.do(t, http.MethodGet, "/v1/ideas/"+id+"/matches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMentorImport(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/v1/mentors/import", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	env = newTestEnv(t, func(context.Context) (*mentors.Result, error) {
		return &mentors.Result{Loaded: 3, Written: 2, Skipped: 1}, nil
	})
	rec = env.do(t, http.MethodPost, "/v1/mentors/import", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"loaded":3,"skipped":1,"written":2}`, rec.Body.String())
}

func TestRubric(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/v1/rubric", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"exceptional"`)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		retriable bool
	}{
		{"not found", eris.Wrap(store.ErrNotFound, "get"), http.StatusNotFound, false},
		{"transition", &lifecycle.InvalidTransitionError{From: "submitted", To: "funded"}, http.StatusConflict, false},
		{"match", matching.ErrMatchNotPending, http.StatusConflict, false},
		{"chain", clarify.ErrNoActiveQuestion, http.StatusConflict, false},
		{"extract", eris.Wrap(extract.ErrCouldNotExtract, "timeout"), http.StatusServiceUnavailable, true},
		{"analysis", lifecycle.ErrAnalysisUnavailable, http.StatusServiceUnavailable, true},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable, true},
		{"transient", resilience.NewTransientError(eris.New("503"), 503), http.StatusServiceUnavailable, true},
		{"validation", &extract.ValidationError{Missing: []string{"title"}}, http.StatusUnprocessableEntity, false},
		{"other", eris.New("boom"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.retriable, body.Retriable)
		})
	}
}
