package solved

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/codeduel/internal/model"
	"github.com/verte-zerg/codeduel/internal/store"
)

type fakeBackend struct {
	list []model.SolvedProblem
	err  error
}

func (f fakeBackend) FetchSolved(context.Context) ([]model.SolvedProblem, error) {
	return f.list, f.err
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "codeduel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSyncMirrorsServer(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	backend := fakeBackend{list: []model.SolvedProblem{
		{ProblemID: "1", Language: "cpp", Code: "int main(){}"},
		{ProblemID: "2", Language: "Python", Code: "pass"},
	}}
	r := New(backend, st, nil)
	require.NoError(t, r.Sync(ctx))

	sp, ok := r.Lookup("1", "C++")
	require.True(t, ok)
	assert.Equal(t, "int main(){}", sp.Code)
	assert.True(t, r.IsSolved("2"))
	assert.False(t, r.IsSolved("3"))

	reloaded := New(backend, st, nil)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, map[model.ID]bool{"1": true, "2": true}, reloaded.IDs())
}

func TestSyncErrorKeepsLocal(t *testing.T) {
	ctx := context.Background()
	r := New(fakeBackend{err: errors.New("offline")}, openStore(t), nil)
	require.NoError(t, r.Record(ctx, model.SolvedProblem{ProblemID: "9", Language: "Java", Code: "class Main{}"}))
	require.Error(t, r.Sync(ctx))
	assert.True(t, r.IsSolved("9"))
}

func TestRecordOverwritesSameLanguage(t *testing.T) {
	ctx := context.Background()
	r := New(fakeBackend{}, openStore(t), nil)
	require.NoError(t, r.Record(ctx, model.SolvedProblem{ProblemID: "5", Language: "Python", Code: "v1"}))
	require.NoError(t, r.Record(ctx, model.SolvedProblem{ProblemID: "5", Language: "python", Code: "v2"}))

	sp, ok := r.Lookup("5", "PYTHON")
	require.True(t, ok)
	assert.Equal(t, "v2", sp.Code)

	require.NoError(t, r.Clear(ctx))
	assert.Empty(t, r.IDs())
}

func TestNormalizeLanguage(t *testing.T) {
	assert.Equal(t, "c++", NormalizeLanguage("cpp"))
	assert.Equal(t, "c++", NormalizeLanguage("C++"))
	assert.Equal(t, "javascript", NormalizeLanguage(" JavaScript "))
}

type failingStorage struct{ err error }

func (s failingStorage) UpsertSolved(context.Context, model.SolvedProblem) error { return s.err }
func (s failingStorage) ReplaceSolved(context.Context, []model.SolvedProblem) error {
	return s.err
}
func (s failingStorage) ListSolved(context.Context) ([]model.SolvedProblem, error) { return nil, nil }
func (s failingStorage) ClearSolved(context.Context) error                         { return nil }

func TestRecordIndexesEvenWhenWriteFails(t *testing.T) {
	diskFull := errors.New("disk full")
	r := New(fakeBackend{}, failingStorage{err: diskFull}, nil)

	err := r.Record(context.Background(), model.SolvedProblem{ProblemID: "4", Language: "cpp", Code: "int main(){}"})
	require.ErrorIs(t, err, diskFull)
	assert.True(t, r.IsSolved("4"))
	sp, ok := r.Lookup("4", "C++")
	require.True(t, ok)
	assert.Equal(t, "int main(){}", sp.Code)
}
