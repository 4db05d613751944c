package matching

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ideaflow/internal/lifecycle"
	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/store"
)

type noopDispatcher struct{}

// flakyAdvancer fails the first n AdvanceFrom calls.
type flakyAdvancer struct {
	inner Advancer
	n     int
}

func (f *flakyAdvancer) AdvanceFrom(ctx context.Context, ideaID string, from, to model.IdeaStatus, reason string) (*model.Idea, bool, error) {
	if f.n > 0 {
		f.n--
		return nil, false, errors.New("store unavailable")
	}
	return f.inner.AdvanceFrom(ctx, ideaID, from, to, reason)
}

func (noopDispatcher) Dispatch(context.Context, string) error { return nil }

func setupService(t *testing.T) (*Service, *lifecycle.Controller, *store.SQLiteStore, string) {
	t.Helper()
	ctx := context.Background()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "matching.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { s.Close() })

	mentors := mentorPool()
	for i := range mentors {
		mentors[i].ExternalID = "ext-" + mentors[i].ID
		mentors[i].ID = ""
	}
	_, err = s.UpsertMentors(ctx, mentors)
	require.NoError(t, err)

	ctl := lifecycle.New(s, lifecycle.WithDispatcher(noopDispatcher{}))
	idea, err := ctl.Submit(ctx, analyzedIdea().Fields, "+212600000003")
	require.NoError(t, err)
	return NewService(s, ctl, 5), ctl, s, idea.ID
}

func TestService_ProposeRequiresAnalysis(t *testing.T) {
	svc, _, _, ideaID := setupService(t)
	_, err := svc.Propose(context.Background(), ideaID, 0)
	assert.ErrorIs(t, err, ErrNotAnalyzed)

	_, err = svc.Propose(context.Background(), "missing", 0)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_ProposeApproveReject(t *testing.T) {
	svc, ctl, _, ideaID := setupService(t)
	ctx := context.Background()

	_, err := ctl.Analyze(ctx, ideaID)
	require.NoError(t, err)

	matches, err := svc.Propose(ctx, ideaID, 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Amina", matches[0].MentorName)

	// Proposing again leaves existing pairs alone.
	again, err := svc.Propose(ctx, ideaID, 0)
	require.NoError(t, err)
	assert.Equal(t, matches[0].ID, again[0].ID)

	approved, err := svc.Approve(ctx, matches[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.MatchStatusActive, approved.Status)

	idea, err := ctl.Get(ctx, ideaID)
	require.NoError(t, err)
	assert.Equal(t, model.IdeaStatusMatched, idea.Status)

	// Approving again is a harmless retry.
	reapproved, err := svc.Approve(ctx, matches[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.MatchStatusActive, reapproved.Status)

	rejected, err := svc.Reject(ctx, matches[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.MatchStatusRejected, rejected.Status)
	_, err = svc.Approve(ctx, matches[1].ID)
	assert.ErrorIs(t, err, ErrMatchNotPending)

	_, err = svc.Reject(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_ApproveDoesNotOverwriteLaterState(t *testing.T) {
	svc, ctl, _, ideaID := setupService(t)
	ctx := context.Background()

	_, err := ctl.Analyze(ctx, ideaID)
	require.NoError(t, err)
	matches, err := svc.Propose(ctx, ideaID, 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	_, err = svc.Approve(ctx, matches[0].ID)
	require.NoError(t, err)
	_, err = ctl.Advance(ctx, ideaID, model.IdeaStatusFunded, "grant awarded")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, matches[1].ID)
	require.NoError(t, err)
	idea, err := ctl.Get(ctx, ideaID)
	require.NoError(t, err)
	assert.Equal(t, model.IdeaStatusFunded, idea.Status)
}

func TestService_ApproveRetriesFailedAdvance(t *testing.T) {
	_, ctl, st, ideaID := setupService(t)
	ctx := context.Background()

	_, err := ctl.Analyze(ctx, ideaID)
	require.NoError(t, err)
	svc := NewService(st, &flakyAdvancer{inner: ctl, n: 1}, 5)
	matches, err := svc.Propose(ctx, ideaID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	_, err = svc.Approve(ctx, matches[0].ID)
	require.Error(t, err)
	idea, err := ctl.Get(ctx, ideaID)
	require.NoError(t, err)
	assert.Equal(t, model.IdeaStatusAnalyzed, idea.Status)

	m, err := svc.Approve(ctx, matches[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.MatchStatusActive, m.Status)
	idea, err = ctl.Get(ctx, ideaID)
	require.NoError(t, err)
	assert.Equal(t, model.IdeaStatusMatched, idea.Status)
}
