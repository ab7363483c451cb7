package main

import (
	"context"
	"fmt"
	"io"

	"github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/generative-ai-go/genai"
	goption "google.golang.org/api/option"

	"github.com/jdholdren/newscat/internal/app"
	"github.com/jdholdren/newscat/internal/categorizer"
	"github.com/jdholdren/newscat/internal/classify"
	"github.com/jdholdren/newscat/internal/newscat"
	"github.com/jdholdren/newscat/internal/store"
	"github.com/jdholdren/newscat/internal/sync"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func (c *cli) openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(ctx, c.cfg.StorePath,
		store.WithRetentionDays(c.cfg.RetentionDays),
		store.WithFreshOnCorrupt(c.cfg.FreshOnCorrupt),
	)
	if err != nil {
		return nil, fmt.Errorf("error opening store %s: %w", c.cfg.StorePath, err)
	}

	return st, nil
}

// classifier builds the configured classifier behind a label cache. The
// closer releases the model client.
func (c *cli) classifier(ctx context.Context) (newscat.Classifier, io.Closer, error) {
	var (
		base   newscat.Classifier
		closer io.Closer = nopCloser{}
	)
	switch c.cfg.Classifier {
	case "claude":
		client := anthropic.NewClient(aoption.WithAPIKey(c.cfg.AnthropicAPIKey))
		base = classify.NewClaude(&client, c.cfg.ClassifierModel)
	case "gemini":
		client, err := genai.NewClient(ctx, goption.WithAPIKey(c.cfg.GeminiAPIKey))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		base, closer = classify.NewGemini(client, c.cfg.ClassifierModel), client
	default:
		base = classify.NewKeyword(c.catalog.Keywords(classify.DefaultKeywords))
	}

	cached, err := classify.NewCached(base, c.cfg.ClassifierCacheSize)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}

	return cached, closer, nil
}

// app wires a refreshable app around st.
func (c *cli) app(st *store.Store, cls newscat.Classifier) (*app.App, error) {
	policy, err := categorizer.ParseSeenPolicy(c.cfg.SeenPolicy)
	if err != nil {
		return nil, err
	}

	source := sync.NewRSSSource(sync.RSSSourceConfig{
		Retries:   c.cfg.FeedRetries,
		UserAgent: c.cfg.UserAgent,
	})
	fetcher := sync.NewFetcher(source, sync.FetcherConfig{
		Timeout:     c.cfg.FeedTimeout,
		Concurrency: c.cfg.FetchConcurrency,
		Names:       c.catalog.Names(),
	})
	cat := categorizer.New(st, cls, categorizer.Config{
		Labels:  c.catalog.LabelNames(),
		Policy:  policy,
		Retries: c.cfg.ClassifierRetries,
	})

	return app.New(st, fetcher, cat, c.catalog.URLs()), nil
}
