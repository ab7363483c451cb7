package classify

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jdholdren/newscat/internal/newscat"
)

// Cached remembers labels per text so repeated headlines, syndicated across
// feeds under different links, only reach the wrapped classifier once.
type Cached struct {
	next  newscat.Classifier
	cache *lru.Cache[string, string]
}

var _ newscat.Classifier = (*Cached)(nil)

func NewCached(next newscat.Classifier, size int) (*Cached, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("error creating label cache: %s", err)
	}

	return &Cached{next: next, cache: cache}, nil
}

// Classify answers from the cache where it can and sends the rest to the
// wrapped classifier as one batch.
func (c *Cached) Classify(ctx context.Context, texts, labels []string) ([]string, error) {
	var (
		out       = make([]string, len(texts))
		missTexts []string
		missIdx   []int
		labelKey  = strings.Join(labels, "\x1f")
	)
	for i, text := range texts {
		if label, ok := c.cache.Get(cacheKey(labelKey, text)); ok {
			out[i] = label
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	got, err := c.next.Classify(ctx, missTexts, labels)
	if err != nil {
		return nil, err
	}
	if len(got) != len(missTexts) {
		return nil, fmt.Errorf("classifier returned %d labels for %d texts", len(got), len(missTexts))
	}
	for j, i := range missIdx {
		out[i] = got[j]
		c.cache.Add(cacheKey(labelKey, missTexts[j]), got[j])
	}

	return out, nil
}

func cacheKey(labelKey, text string) string {
	return labelKey + "\x1e" + strings.TrimSpace(text)
}
