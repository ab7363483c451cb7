// Package newscat holds the types shared by the fetch, classification and
// storage layers of the aggregator.
package newscat

import (
	"context"
	"errors"
)

var (
	// ErrStoreNotFound means the backing file does not exist yet. It is
	// recovered inside the store and never reaches callers of Open.
	ErrStoreNotFound = errors.New("store file not found")
	// ErrStoreCorrupt means the backing file exists but does not hold valid JSON.
	ErrStoreCorrupt = errors.New("store file is corrupt")
	// ErrFeedFetchFailed marks a single feed that could not be fetched or parsed.
	ErrFeedFetchFailed = errors.New("feed fetch failed")
	// ErrClassifierCallFailed is returned when the batch classification fails.
	ErrClassifierCallFailed = errors.New("classifier call failed")
	// ErrDateParseFailed marks a published string that isn't in the feed format.
	ErrDateParseFailed = errors.New("published date could not be parsed")
	// ErrPersistWriteFailed is returned when the store could not be written.
	// The previous file on disk is left untouched.
	ErrPersistWriteFailed = errors.New("store write failed")
)

type (
	// Article is a single item from a feed, keyed by its link.
	Article struct {
		Title     string `json:"title"`
		Category  string `json:"category"`
		Published string `json:"published"`
		Source    string `json:"source"`
		Link      string `json:"link"`
	}

	// Classifier assigns one of the candidate labels to each text.
	//
	// The result has one label per text, in the same order as texts.
	Classifier interface {
		Classify(ctx context.Context, texts []string, labels []string) ([]string, error)
	}

	// FeedSource returns the entries of a single feed. The returned articles
	// have no category.
	FeedSource interface {
		Fetch(ctx context.Context, url string) ([]Article, error)
	}
)

// DefaultLabels is the candidate label set used when none is configured.
// The last label is the catch-all.
var DefaultLabels = []string{
	"Politics",
	"Technology",
	"Sports",
	"Health",
	"Crime",
	"Business",
	"World",
	"Culture",
	"Weather",
	"UK",
	"Other",
}

// DefaultFeeds are the feeds fetched when no feeds file is present.
var DefaultFeeds = []string{
	"https://feeds.bbci.co.uk/news/rss.xml",
	"https://rss.cnn.com/rss/edition_world.rss",
	"https://www.aljazeera.com/xml/rss/all.xml",
	"https://news.google.com/rss/search?q=site%3Areuters.com&hl=en-US&gl=US&ceid=US%3Aen",
}
