// Package sync pulls articles out of RSS and Atom feeds.
package sync

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"github.com/sethvargo/go-retry"

	"github.com/jdholdren/newscat/internal/newscat"
	"github.com/jdholdren/newscat/internal/pubdate"
)

type (
	// RSSSource fetches a single feed over HTTP and parses it with gofeed.
	RSSSource struct {
		parser  *gofeed.Parser
		retries uint64
		backoff time.Duration
		now     func() time.Time
	}

	RSSSourceConfig struct {
		// Timeout on each HTTP request, zero for none.
		Timeout time.Duration
		// Retries after the first failed attempt.
		Retries uint64
		// Backoff is the base of the exponential backoff between retries.
		Backoff   time.Duration
		UserAgent string
	}
)

var _ newscat.FeedSource = (*RSSSource)(nil)

func NewRSSSource(config RSSSourceConfig) *RSSSource {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: config.Timeout}
	if config.UserAgent != "" {
		parser.UserAgent = config.UserAgent
	}
	if config.Backoff <= 0 {
		config.Backoff = 500 * time.Millisecond
	}

	return &RSSSource{
		parser:  parser,
		retries: config.Retries,
		backoff: config.Backoff,
		now:     time.Now,
	}
}

// Fetch returns the entries of the feed at url in the order the feed lists them.
//
// Entries without a link are dropped since the link is what identifies an article.
func (s *RSSSource) Fetch(ctx context.Context, url string) ([]newscat.Article, error) {
	var feed *gofeed.Feed
	b := retry.WithMaxRetries(s.retries, retry.NewExponential(s.backoff))
	if err := retry.Do(ctx, b, func(ctx context.Context) error {
		f, err := s.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			if retryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		feed = f

		return nil
	}); err != nil {
		return nil, fmt.Errorf("error fetching feed: %w", err)
	}

	source := sanitize(feed.Title)
	articles := make([]newscat.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			slog.DebugContext(ctx, "skipping feed item without a link", "title", item.Title)
			continue
		}

		articles = append(articles, newscat.Article{
			Title:     sanitize(item.Title),
			Source:    source,
			Published: s.published(item),
			Link:      link,
		})
	}

	return articles, nil
}

// published picks the string stored for an item's publication time.
//
// A date already in the canonical layout is kept verbatim. Other dates gofeed
// understood are rewritten into the canonical layout. An item with no date at
// all gets the current time in RFC 3339, which the canonical parser rejects,
// so such items are never evicted.
func (s *RSSSource) published(item *gofeed.Item) string {
	raw, parsed := strings.TrimSpace(item.Published), item.PublishedParsed
	if raw == "" {
		raw, parsed = strings.TrimSpace(item.Updated), item.UpdatedParsed
	}

	switch {
	case raw == "":
		return s.now().UTC().Format(time.RFC3339)
	case pubdate.Parse(raw).Valid:
		return raw
	case parsed != nil:
		return pubdate.Format(*parsed)
	default:
		return raw
	}
}

// retryable reports whether another attempt could plausibly succeed.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
		return false
	}

	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= http.StatusInternalServerError || httpErr.StatusCode == http.StatusTooManyRequests
	}

	return true
}

var stripPolicy = bluemonday.StrictPolicy()

// maxTextLen caps titles and source names, in bytes.
const maxTextLen = 2048

// Removes all html tags from the string, usually a title, and returns plain
// text: the policy escapes what it keeps, so entities are decoded again.
//
// Also limits the length of the string so there's not a massive chunk of text being output.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = html.UnescapeString(stripPolicy.Sanitize(s))
	if len(s) > maxTextLen {
		n := maxTextLen
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		s = s[:n]
	}

	return s
}
