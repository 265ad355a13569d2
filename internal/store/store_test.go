package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/codeduel/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "codeduel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestCredentialRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	cred, err := st.LoadCredential(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Credential{}, cred)

	want := model.Credential{Token: "tok", UserID: "u1", Username: "alice"}
	require.NoError(t, st.SaveCredential(ctx, want))
	got, err := st.LoadCredential(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, st.SaveCredential(ctx, model.Credential{Token: "tok2", UserID: "u2"}))
	got, err = st.LoadCredential(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Credential{Token: "tok2", UserID: "u2"}, got)
}

func TestDeleteCredentialKeyKeepsOthers(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	require.NoError(t, st.SaveCredential(ctx, model.Credential{Token: "tok", UserID: "u1", Username: "alice"}))
	require.NoError(t, st.DeleteCredentialKey(ctx, KeyToken))

	got, err := st.LoadCredential(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Token)
	assert.Equal(t, "u1", got.UserID)

	require.NoError(t, st.ClearCredential(ctx))
	got, err = st.LoadCredential(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Credential{}, got)
}

func TestUpsertSolvedReplacesCode(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, st.UpsertSolved(ctx, model.SolvedProblem{ProblemID: "7", Language: "Python", Code: "v1", SolvedAt: first}))
	require.NoError(t, st.UpsertSolved(ctx, model.SolvedProblem{ProblemID: "7", Language: "Python", Code: "v2", SolvedAt: first.Add(time.Hour)}))
	require.NoError(t, st.UpsertSolved(ctx, model.SolvedProblem{ProblemID: "7", Language: "Java", Code: "j"}))

	sp, ok, err := st.GetSolved(ctx, "7", "Python")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", sp.Code)
	assert.True(t, sp.SolvedAt.Equal(first.Add(time.Hour)))

	_, ok, err = st.GetSolved(ctx, "7", "C++")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := st.ListSolved(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestReplaceSolvedSwapsSet(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	require.NoError(t, st.UpsertSolved(ctx, model.SolvedProblem{ProblemID: "old", Language: "Python", Code: "x"}))
	require.NoError(t, st.ReplaceSolved(ctx, []model.SolvedProblem{
		{ProblemID: "1", Language: "Python", Code: "a"},
		{ProblemID: "2", Language: "C++", Code: "b"},
	}))

	list, err := st.ListSolved(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	ids := []model.ID{list[0].ProblemID, list[1].ProblemID}
	assert.ElementsMatch(t, []model.ID{"1", "2"}, ids)

	require.NoError(t, st.ClearSolved(ctx))
	list, err = st.ListSolved(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
