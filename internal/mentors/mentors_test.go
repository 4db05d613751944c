package mentors

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/store"
)

type staticSource struct {
	name    string
	mentors []model.Mentor
	err     error
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Load(context.Context) ([]model.Mentor, error) {
	return s.mentors, s.err
}

type recordingUpserter struct {
	got []model.Mentor
}

func (r *recordingUpserter) UpsertMentors(_ context.Context, ms []model.Mentor) (int, error) {
	r.got = append(r.got, ms...)
	return len(ms), nil
}

func TestImport_MergesAndCleans(t *testing.T) {
	up := &recordingUpserter{}
	a := &staticSource{name: "a", mentors: []model.Mentor{
		{ExternalID: "a:1", Name: " Amina ", Expertise: []string{"Solar", "solar ", ""}, Capacity: -2},
		{ExternalID: "a:2", Name: ""},
	}}
	b := &staticSource{name: "b", mentors: []model.Mentor{
		{ExternalID: "a:1", Name: "Amina again"},
		{ExternalID: "b:1", Name: "Youssef", Languages: []string{"AR", "fr"}},
	}}

	res, err := Import(context.Background(), up, a, b)
	require.NoError(t, err)
	assert.Equal(t, &Result{Loaded: 4, Skipped: 2, Written: 2}, res)

	require.Len(t, up.got, 2)
	assert.Equal(t, "Amina", up.got[0].Name)
	assert.Equal(t, []string{"solar"}, up.got[0].Expertise)
	assert.Zero(t, up.got[0].Capacity)
	assert.Equal(t, []string{"ar", "fr"}, up.got[1].Languages)
}

func TestImport_SourceErrorWritesNothing(t *testing.T) {
	up := &recordingUpserter{}
	ok := &staticSource{name: "ok", mentors: []model.Mentor{{ExternalID: "x", Name: "X"}}}
	bad := &staticSource{name: "bad", err: eris.New("boom")}

	_, err := Import(context.Background(), up, ok, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mentors: load bad")
	assert.Empty(t, up.got)
}

func TestImport_NoSources(t *testing.T) {
	_, err := Import(context.Background(), &recordingUpserter{})
	assert.Error(t, err)
}

func TestImport_SQLiteStoreIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "mentors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(ctx))

	src := &staticSource{name: "s", mentors: []model.Mentor{
		{ExternalID: "s:1", Name: "Amina", Active: true, Capacity: 2},
	}}
	_, err = Import(ctx, st, src)
	require.NoError(t, err)

	src.mentors[0].Capacity = 4
	_, err = Import(ctx, st, src)
	require.NoError(t, err)

	all, err := st.ListMentors(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 4, all[0].Capacity)
}
