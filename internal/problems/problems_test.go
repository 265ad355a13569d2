package problems

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/codeduel/internal/model"
	"github.com/verte-zerg/codeduel/internal/session"
)

type fakeBackend struct {
	calls   atomic.Int32
	release chan struct{}
	list    []model.Problem
	err     error
}

func (f *fakeBackend) FetchProblems(ctx context.Context) ([]model.Problem, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.list, f.err
}

type fakeSession bool

func (f fakeSession) Authenticated() bool { return bool(f) }

func sample() []model.Problem {
	return []model.Problem{
		{ID: "1", Title: "Two Sum", Difficulty: "Easy", Topic: "Arrays"},
		{ID: "2", Title: "Valid Parentheses", Difficulty: "Easy", Language: "Python"},
		{ID: "3", Title: "Longest Substring", Difficulty: "Medium", Topic: "Strings"},
		{ID: "4", Title: "Median of Two Sorted Arrays", Difficulty: "Hard", Topic: "Arrays"},
	}
}

func TestFetchAllRequiresUser(t *testing.T) {
	backend := &fakeBackend{list: sample()}
	c := NewCatalog(backend, fakeSession(false), nil)
	require.ErrorIs(t, c.FetchAll(context.Background()), session.ErrNotAuthenticated)
	assert.Equal(t, int32(0), backend.calls.Load())
}

func TestFetchAllOnceWhileLoaded(t *testing.T) {
	backend := &fakeBackend{list: sample()}
	c := NewCatalog(backend, fakeSession(true), nil)
	require.NoError(t, c.FetchAll(context.Background()))
	require.NoError(t, c.FetchAll(context.Background()))
	assert.Equal(t, int32(1), backend.calls.Load())
	assert.Len(t, c.List(), 4)

	c.Invalidate()
	assert.False(t, c.Loaded())
	require.NoError(t, c.FetchAll(context.Background()))
	assert.Equal(t, int32(2), backend.calls.Load())
}

func TestConcurrentFetchSharesRequest(t *testing.T) {
	backend := &fakeBackend{list: sample(), release: make(chan struct{})}
	c := NewCatalog(backend, fakeSession(true), nil)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.FetchAll(context.Background())
		}(i)
	}
	// Let every caller reach the in-flight request before it completes.
	time.Sleep(50 * time.Millisecond)
	close(backend.release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), backend.calls.Load())
}

func TestFetchErrorLeavesEmpty(t *testing.T) {
	backend := &fakeBackend{err: errors.New("boom")}
	c := NewCatalog(backend, fakeSession(true), nil)
	assert.EqualError(t, c.FetchAll(context.Background()), "boom")
	assert.False(t, c.Loaded())
	assert.Empty(t, c.List())
}

func TestCancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	backend := &fakeBackend{list: sample(), release: make(chan struct{})}
	c := NewCatalog(backend, fakeSession(true), nil)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() { first <- c.FetchAll(ctx) }()
	require.Eventually(t, func() bool { return backend.calls.Load() == 1 }, time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() { second <- c.FetchAll(context.Background()) }()
	time.Sleep(50 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-first, context.Canceled)

	close(backend.release)
	require.NoError(t, <-second)
	assert.True(t, c.Loaded())
	assert.Len(t, c.List(), 4)
	assert.Equal(t, int32(1), backend.calls.Load())
}

func TestGetAndSlugLookup(t *testing.T) {
	c := NewCatalog(&fakeBackend{list: sample()}, fakeSession(true), nil)
	require.NoError(t, c.FetchAll(context.Background()))

	p, ok := c.Get("3")
	require.True(t, ok)
	assert.Equal(t, "Longest Substring", p.Title)

	p, ok = c.BySlug("valid-parentheses")
	require.True(t, ok)
	assert.Equal(t, model.ID("2"), p.ID)

	p, ok = c.Lookup("Median of Two Sorted Arrays")
	require.True(t, ok)
	assert.Equal(t, model.ID("4"), p.ID)

	_, ok = c.Lookup("nope")
	assert.False(t, ok)
}

func TestFilterDimensions(t *testing.T) {
	list := sample()
	tests := []struct {
		name string
		f    Filter
		want []model.ID
	}{
		{name: "all", f: Filter{Difficulty: FilterAll}, want: []model.ID{"1", "2", "3", "4"}},
		{name: "search", f: Filter{Search: "two"}, want: []model.ID{"1", "4"}},
		{name: "difficulty", f: Filter{Difficulty: "Easy"}, want: []model.ID{"1", "2"}},
		{name: "default topic", f: Filter{Topic: "General"}, want: []model.ID{"2"}},
		{name: "default language", f: Filter{Language: "Multi"}, want: []model.ID{"1", "3", "4"}},
		{name: "combined", f: Filter{Topic: "Arrays", Difficulty: "Hard"}, want: []model.ID{"4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.f.Apply(list)
			ids := make([]model.ID, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestTopicsAndProgress(t *testing.T) {
	list := sample()
	assert.Equal(t, []string{"Arrays", "General", "Strings"}, Topics(list))

	progress := Progress(list, map[model.ID]bool{"1": true, "4": true})
	assert.Equal(t, []DifficultyProgress{
		{Difficulty: "Easy", Solved: 1, Total: 2},
		{Difficulty: "Medium", Solved: 0, Total: 1},
		{Difficulty: "Hard", Solved: 1, Total: 1},
	}, progress)
}

func TestPickerSkipsSolved(t *testing.T) {
	p := NewPickerWithSource(rand.NewSource(1))
	list := sample()
	solved := map[model.ID]bool{"1": true, "2": true, "4": true}
	for i := 0; i < 10; i++ {
		got, err := p.Random(list, solved)
		require.NoError(t, err)
		assert.Equal(t, model.ID("3"), got.ID)
	}

	solved["3"] = true
	_, err := p.Random(list, solved)
	require.ErrorIs(t, err, ErrAllSolved)
}
