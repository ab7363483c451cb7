package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jdholdren/newscat/internal/logger"
	"github.com/jdholdren/newscat/internal/newscat"
)

type (
	// Fetcher runs a [newscat.FeedSource] over many feeds at once.
	Fetcher struct {
		source      newscat.FeedSource
		timeout     time.Duration
		concurrency int
		names       map[string]string
	}

	FetcherConfig struct {
		// Timeout bounds each feed, zero for none. An expired feed is a failure.
		Timeout time.Duration
		// Concurrency caps the number of feeds in flight, zero for one per feed.
		Concurrency int
		// Names maps a feed url to the source name used when the feed has no title.
		Names map[string]string
	}

	// Result is everything gathered by [Fetcher.All].
	Result struct {
		// Articles from every feed that succeeded, feeds in the order given.
		Articles []newscat.Article
		Failures []FeedFailure
	}

	// FeedFailure is a feed that contributed nothing to the batch.
	FeedFailure struct {
		URL string
		Err error
	}
)

func (f FeedFailure) Error() string {
	return fmt.Sprintf("%s: %s: %s", newscat.ErrFeedFetchFailed, f.URL, f.Err)
}

// Is makes every failure match [newscat.ErrFeedFetchFailed].
func (f FeedFailure) Is(target error) bool {
	return target == newscat.ErrFeedFetchFailed
}

func (f FeedFailure) Unwrap() error {
	return f.Err
}

func NewFetcher(source newscat.FeedSource, config FetcherConfig) *Fetcher {
	return &Fetcher{
		source:      source,
		timeout:     config.Timeout,
		concurrency: config.Concurrency,
		names:       config.Names,
	}
}

// All fetches every url and returns once all of them have finished.
//
// A failing feed never stops the others.
func (f *Fetcher) All(ctx context.Context, urls []string) Result {
	if len(urls) == 0 {
		return Result{}
	}

	var (
		g        errgroup.Group
		articles = make([][]newscat.Article, len(urls))
		errs     = make([]error, len(urls))
	)
	limit := len(urls)
	if f.concurrency > 0 && f.concurrency < limit {
		limit = f.concurrency
	}
	g.SetLimit(limit)

	for i, url := range urls {
		g.Go(func() error {
			articles[i], errs[i] = f.one(ctx, url)
			return nil
		})
	}
	_ = g.Wait()

	var res Result
	for i, url := range urls {
		if errs[i] != nil {
			res.Failures = append(res.Failures, FeedFailure{URL: url, Err: errs[i]})
			continue
		}
		res.Articles = append(res.Articles, articles[i]...)
	}

	return res
}

func (f *Fetcher) one(ctx context.Context, url string) ([]newscat.Article, error) {
	ctx = logger.Ctx(ctx, slog.String("feed_url", url))
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	articles, err := f.source.Fetch(ctx, url)
	if err != nil {
		slog.WarnContext(ctx, "feed failed, skipping it", "error", err)
		return nil, err
	}
	if name := f.names[url]; name != "" {
		for i := range articles {
			if articles[i].Source == "" {
				articles[i].Source = name
			}
		}
	}

	slog.DebugContext(ctx, "fetched feed", "count", len(articles), "duration", time.Since(start))
	return articles, nil
}
