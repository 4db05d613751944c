package workflow

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/testsuite"

	"github.com/sells-group/ideaflow/internal/lifecycle"
	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/store"
)

type fakeAnalyzer struct {
	calls atomic.Int32
	errs  []error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, ideaID string) (*model.Idea, error) {
	n := int(f.calls.Add(1))
	if n <= len(f.errs) && f.errs[n-1] != nil {
		return nil, f.errs[n-1]
	}
	return &model.Idea{ID: ideaID, Status: model.IdeaStatusAnalyzed, Scores: model.Scores{TotalScore: 27}}, nil
}

type AnalyzeWorkflowSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *AnalyzeWorkflowSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
}

func (s *AnalyzeWorkflowSuite) AfterTest(_, _ string) {
	s.env.AssertExpectations(s.T())
}

func (s *AnalyzeWorkflowSuite) TestSuccess() {
	an := &fakeAnalyzer{}
	s.env.RegisterActivity(&Activities{Analyzer: an})

	s.env.ExecuteWorkflow(AnalyzeIdeaWorkflow, "idea-1")

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
	var res AnalyzeResult
	s.NoError(s.env.GetWorkflowResult(&res))
	s.Equal("idea-1", res.IdeaID)
	s.Equal("analyzed", res.Status)
	s.Equal("qualified", res.Tier)
}

func (s *AnalyzeWorkflowSuite) TestRetriesRecoverableFailure() {
	an := &fakeAnalyzer{errs: []error{lifecycle.ErrAnalysisUnavailable, lifecycle.ErrAnalysisUnavailable}}
	s.env.RegisterActivity(&Activities{Analyzer: an})

	s.env.ExecuteWorkflow(AnalyzeIdeaWorkflow, "idea-2")

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
	s.Equal(int32(3), an.calls.Load())
}

func (s *AnalyzeWorkflowSuite) TestMissingIdeaIsNotRetried() {
	an := &fakeAnalyzer{errs: []error{store.ErrNotFound}}
	s.env.RegisterActivity(&Activities{Analyzer: an})

	s.env.ExecuteWorkflow(AnalyzeIdeaWorkflow, "missing")

	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
	s.Equal(int32(1), an.calls.Load())
}

func TestAnalyzeWorkflowSuite(t *testing.T) {
	suite.Run(t, new(AnalyzeWorkflowSuite))
}

type fakeRun struct{ client.WorkflowRun }

func (fakeRun) GetID() string    { return "wf" }
func (fakeRun) GetRunID() string { return "run" }

type fakeStarter struct {
	opts []client.StartWorkflowOptions
	args [][]interface{}
	err  error
}

func (f *fakeStarter) ExecuteWorkflow(_ context.Context, o client.StartWorkflowOptions, _ interface{}, args ...interface{}) (client.WorkflowRun, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.opts = append(f.opts, o)
	f.args = append(f.args, args)
	return fakeRun{}, nil
}

func TestDispatcher(t *testing.T) {
	st := &fakeStarter{}
	var d lifecycle.Dispatcher = NewDispatcher(st, "ideaflow-analysis")

	require.NoError(t, d.Dispatch(context.Background(), "idea-9"))
	require.Len(t, st.opts, 1)
	assert.Equal(t, "analyze-idea-idea-9", st.opts[0].ID)
	assert.Equal(t, "ideaflow-analysis", st.opts[0].TaskQueue)
	assert.Equal(t, []interface{}{"idea-9"}, st.args[0])

	st.err = errors.New("frontend unavailable")
	assert.ErrorContains(t, d.Dispatch(context.Background(), "idea-9"), "start analysis")
}
