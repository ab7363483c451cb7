package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/newscat/internal/categorizer"
	"github.com/jdholdren/newscat/internal/newscat"
	"github.com/jdholdren/newscat/internal/pubdate"
	"github.com/jdholdren/newscat/internal/store"
	"github.com/jdholdren/newscat/internal/sync"
)

type stubFetcher struct {
	res   sync.Result
	calls int
}

func (f *stubFetcher) All(_ context.Context, _ []string) sync.Result {
	f.calls++
	return f.res
}

type labelAll struct {
	label string
	err   error
}

func (l labelAll) Classify(_ context.Context, texts, _ []string) ([]string, error) {
	if l.err != nil {
		return nil, l.err
	}
	out := make([]string, len(texts))
	for i := range out {
		out[i] = l.label
	}
	return out, nil
}

func newApp(t *testing.T, fetcher Fetcher, cls newscat.Classifier) (*App, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "classified_articles.json")
	st, err := store.Open(context.Background(), path)
	require.NoError(t, err)

	cat := categorizer.New(st, cls, categorizer.Config{Labels: []string{"World", "Other"}})
	return New(st, fetcher, cat, []string{"feed1", "feed2"}), path
}

func TestRefresh(t *testing.T) {
	now := pubdate.Format(time.Now())
	fetcher := &stubFetcher{res: sync.Result{
		Articles: []newscat.Article{
			{Title: "One", Link: "1", Published: now},
			{Title: "Two", Link: "2", Published: now},
		},
		Failures: []sync.FeedFailure{{URL: "feed2", Err: errors.New("down")}},
	}}
	a, path := newApp(t, fetcher, labelAll{label: "World"})

	rep, err := a.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(rep.RunID, runNamespace))
	assert.Equal(t, 2, rep.Fetched)
	assert.Equal(t, 2, rep.NewCount())
	require.Len(t, rep.Failures, 1)
	assert.ErrorIs(t, rep.Failures[0], newscat.ErrFeedFetchFailed)

	_, err = os.Stat(path)
	require.NoError(t, err)

	// Nothing new the second time round.
	rep, err = a.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rep.NewCount())
	assert.Equal(t, 2, a.Store().Len())
}

func TestRefresh_ClassifierFailureDegrades(t *testing.T) {
	fetcher := &stubFetcher{res: sync.Result{Articles: []newscat.Article{{Title: "One", Link: "1"}}}}
	a, _ := newApp(t, fetcher, labelAll{err: errors.New("model down")})

	rep, err := a.Refresh(context.Background())
	require.ErrorIs(t, err, newscat.ErrClassifierCallFailed)
	assert.True(t, Degraded(err))
	assert.Equal(t, 1, rep.Fetched)
	assert.Equal(t, 0, a.Store().Len())
}

func TestRefresh_CorruptStoreStops(t *testing.T) {
	fetcher := &stubFetcher{}
	a, path := newApp(t, fetcher, labelAll{label: "World"})
	_, err := a.Refresh(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o644))

	_, err = a.Refresh(context.Background())
	require.ErrorIs(t, err, newscat.ErrStoreCorrupt)
	assert.False(t, Degraded(err))
	assert.Equal(t, 1, fetcher.calls)
}

func TestRefresh_EvictsBetweenRefreshes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classified_articles.json")
	now := time.Now()
	st, err := store.Open(context.Background(), path, store.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	fetcher := &stubFetcher{res: sync.Result{Articles: []newscat.Article{
		{Title: "Today", Link: "today", Published: pubdate.Format(now)},
	}}}
	cat := categorizer.New(st, labelAll{label: "World"}, categorizer.Config{Labels: []string{"World", "Other"}})
	a := New(st, fetcher, cat, []string{"feed1"})

	rep, err := a.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.NewCount())
	assert.Equal(t, 0, rep.Evicted)

	// Nine days on the article has aged out and the feed no longer lists it.
	now = now.Add(9 * 24 * time.Hour)
	fetcher.res = sync.Result{}

	rep, err = a.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Evicted)
	assert.Equal(t, 0, a.Store().Len())
}
