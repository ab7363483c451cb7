// Package categorizer decides which fetched articles are new, gets them
// labelled in one batch, and records the result in the store.
package categorizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/jdholdren/newscat/internal/newscat"
)

// SeenPolicy controls when a new link is recorded as seen.
type SeenPolicy int

const (
	// MarkAfterSuccess records a link only once it has a category. A failed
	// classification leaves the link free to be tried again next run.
	MarkAfterSuccess SeenPolicy = iota
	// MarkBeforeClassify records every new link before the classifier is
	// called. If the call fails the links stay seen in memory, without a
	// category, until the store is next loaded. Unclassified links are never
	// saved, so the next reload forgets them. A cancelled call releases them
	// straight away.
	MarkBeforeClassify
)

func (p SeenPolicy) String() string {
	switch p {
	case MarkAfterSuccess:
		return "after-success"
	case MarkBeforeClassify:
		return "before-classify"
	default:
		return fmt.Sprintf("SeenPolicy(%d)", int(p))
	}
}

// ParseSeenPolicy reads the names produced by [SeenPolicy.String].
func ParseSeenPolicy(s string) (SeenPolicy, error) {
	switch s {
	case "", "after-success":
		return MarkAfterSuccess, nil
	case "before-classify":
		return MarkBeforeClassify, nil
	default:
		return 0, fmt.Errorf("unknown seen policy %q", s)
	}
}

// Store is the part of the persistent store the categorizer drives.
type Store interface {
	Seen(link string) bool
	MarkSeen(link string)
	Unmark(link string)
	Insert(a newscat.Article)
	Save() error
}

type (
	Categorizer struct {
		store      Store
		classifier newscat.Classifier
		labels     []string
		policy     SeenPolicy
		retries    uint64
		backoff    time.Duration
	}

	Config struct {
		// Labels is the closed, ordered candidate set. The last one is the catch-all.
		Labels []string
		Policy SeenPolicy
		// Retries after a failed classifier call.
		Retries uint64
		// Backoff is the base of the exponential backoff between retries.
		Backoff time.Duration
	}
)

func New(store Store, classifier newscat.Classifier, config Config) *Categorizer {
	labels := config.Labels
	if len(labels) == 0 {
		labels = newscat.DefaultLabels
	}
	if config.Backoff <= 0 {
		config.Backoff = time.Second
	}

	return &Categorizer{
		store:      store,
		classifier: classifier,
		labels:     labels,
		policy:     config.Policy,
		retries:    config.Retries,
		backoff:    config.Backoff,
	}
}

// ClassifyNew labels the articles whose links have not been seen before and
// returns them grouped by category.
//
// Within articles the first occurrence of a link wins. When nothing is new
// the classifier is not called and nothing is written. On a classifier error
// nothing is inserted and the returned error wraps
// [newscat.ErrClassifierCallFailed]. A failed save still returns the grouped
// articles alongside an error wrapping [newscat.ErrPersistWriteFailed].
func (c *Categorizer) ClassifyNew(ctx context.Context, articles []newscat.Article) (map[string][]newscat.Article, error) {
	var (
		fresh   []newscat.Article
		inBatch = make(map[string]struct{})
		skipped int
	)
	for _, a := range articles {
		if a.Link == "" {
			slog.WarnContext(ctx, "article has no link, skipping it", "title", a.Title)
			continue
		}
		if _, dup := inBatch[a.Link]; dup || c.store.Seen(a.Link) {
			skipped++
			continue
		}
		inBatch[a.Link] = struct{}{}
		fresh = append(fresh, a)
	}

	grouped := make(map[string][]newscat.Article)
	if len(fresh) == 0 {
		slog.InfoContext(ctx, "no new articles to classify", "skipped", skipped)
		return grouped, nil
	}

	if c.policy == MarkBeforeClassify {
		for _, a := range fresh {
			c.store.MarkSeen(a.Link)
		}
	}

	slog.InfoContext(ctx, "classifying new articles", "count", len(fresh), "skipped", skipped)
	labels, err := c.classify(ctx, fresh)
	if err != nil {
		if c.policy != MarkBeforeClassify || ctx.Err() != nil {
			for _, a := range fresh {
				c.store.Unmark(a.Link)
			}
		} else {
			slog.WarnContext(ctx, "classification failed, new links stay seen without a category", "count", len(fresh))
		}

		return nil, fmt.Errorf("%w: %w", newscat.ErrClassifierCallFailed, err)
	}

	for i, a := range fresh {
		a.Category = labels[i]
		c.store.Insert(a)
		grouped[a.Category] = append(grouped[a.Category], a)
	}

	if err := c.store.Save(); err != nil {
		return grouped, fmt.Errorf("error saving classified articles: %w", err)
	}

	return grouped, nil
}

// classify makes the batch call, retrying failures, and checks the answer
// against the label set.
func (c *Categorizer) classify(ctx context.Context, fresh []newscat.Article) ([]string, error) {
	texts := make([]string, len(fresh))
	for i, a := range fresh {
		texts[i] = a.Title
	}

	var labels []string
	b := retry.WithMaxRetries(c.retries, retry.NewExponential(c.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		got, err := c.classifier.Classify(ctx, texts, c.labels)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			slog.WarnContext(ctx, "classifier call failed", "error", err)
			return retry.RetryableError(err)
		}
		labels = got

		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(labels) != len(texts) {
		return nil, fmt.Errorf("classifier returned %d labels for %d texts", len(labels), len(texts))
	}
	for i, label := range labels {
		canonical, ok := c.canonical(label)
		if !ok {
			return nil, fmt.Errorf("classifier returned unknown label %q", label)
		}
		labels[i] = canonical
	}

	return labels, nil
}

func (c *Categorizer) canonical(label string) (string, bool) {
	label = strings.TrimSpace(label)
	for _, l := range c.labels {
		if strings.EqualFold(l, label) {
			return l, true
		}
	}

	return "", false
}
