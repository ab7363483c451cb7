// Package app ties fetching, classification and the store into one refresh.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jdholdren/newscat/internal/logger"
	"github.com/jdholdren/newscat/internal/newscat"
	"github.com/jdholdren/newscat/internal/store"
	"github.com/jdholdren/newscat/internal/sync"
)

const runNamespace = "-run"

type (
	// Fetcher gathers articles from many feeds; see [sync.Fetcher].
	Fetcher interface {
		All(ctx context.Context, urls []string) sync.Result
	}

	// Categorizer labels new articles; see [categorizer.Categorizer].
	Categorizer interface {
		ClassifyNew(ctx context.Context, articles []newscat.Article) (map[string][]newscat.Article, error)
	}

	// App runs refreshes. It is not safe for concurrent use.
	App struct {
		store       *store.Store
		fetcher     Fetcher
		categorizer Categorizer
		urls        []string

		// opened is set until the first refresh, which then reuses the load
		// done by store.Open instead of loading again.
		opened bool
	}

	// Report describes one refresh.
	Report struct {
		RunID    string
		Evicted  int
		Fetched  int
		Failures []sync.FeedFailure
		// New holds only the articles classified during this refresh.
		New      map[string][]newscat.Article
		Duration time.Duration
	}
)

func New(st *store.Store, fetcher Fetcher, categorizer Categorizer, urls []string) *App {
	return &App{
		store:       st,
		fetcher:     fetcher,
		categorizer: categorizer,
		urls:        urls,
		opened:      true,
	}
}

// Refresh reloads the store, which evicts expired articles, then fetches
// every feed and classifies whatever is new once all fetches are done. The
// first refresh after New uses the load already done by store.Open.
//
// Feed failures are reported, not returned. A corrupt store aborts before
// anything is fetched. Classifier and save errors come back with the report
// filled in as far as it got.
func (a *App) Refresh(ctx context.Context) (Report, error) {
	start := time.Now()
	rep := Report{RunID: fmt.Sprintf("%s%s", uuid.NewString(), runNamespace)}
	ctx = logger.Ctx(ctx, slog.String("run_id", rep.RunID))

	stats := a.store.LastLoad()
	if !a.opened {
		var err error
		if stats, err = a.store.Reload(ctx); err != nil {
			return rep, fmt.Errorf("error loading store: %w", err)
		}
	}
	a.opened = false
	rep.Evicted = stats.Evicted

	res := a.fetcher.All(ctx, a.urls)
	rep.Fetched = len(res.Articles)
	rep.Failures = res.Failures
	if len(res.Failures) > 0 {
		slog.WarnContext(ctx, "some feeds failed", "failed", len(res.Failures), "total", len(a.urls))
	}
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	var err error
	rep.New, err = a.categorizer.ClassifyNew(ctx, res.Articles)
	rep.Duration = time.Since(start)
	if err != nil {
		return rep, err
	}

	slog.InfoContext(ctx, "refresh complete",
		"fetched", rep.Fetched,
		"new", rep.NewCount(),
		"evicted", rep.Evicted,
		"duration", rep.Duration,
	)
	return rep, nil
}

// Store exposes the store for readers.
func (a *App) Store() *store.Store {
	return a.store
}

// NewCount is the number of articles classified in the refresh.
func (r Report) NewCount() int {
	n := 0
	for _, articles := range r.New {
		n += len(articles)
	}

	return n
}

// Degraded reports whether err leaves the store usable for the next refresh.
func Degraded(err error) bool {
	return errors.Is(err, newscat.ErrClassifierCallFailed) || errors.Is(err, newscat.ErrPersistWriteFailed)
}
