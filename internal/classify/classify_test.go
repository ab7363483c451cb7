package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLabels = []string{"Politics", "Sports", "Other"}

func TestDecodeAssignments(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		n       int
		want    []string
		wantErr string
	}{
		{
			name: "in order",
			raw:  `[{"index":0,"label":"Politics"},{"index":1,"label":"Sports"}]`,
			n:    2,
			want: []string{"Politics", "Sports"},
		},
		{
			name: "out of order and odd case",
			raw:  `[{"index":1,"label":" other "},{"index":0,"label":"SPORTS"}]`,
			n:    2,
			want: []string{"Sports", "Other"},
		},
		{
			name: "fenced",
			raw:  "```json\n[{\"index\":0,\"label\":\"Other\"}]\n```",
			n:    1,
			want: []string{"Other"},
		},
		{
			name:    "missing index",
			raw:     `[{"index":0,"label":"Politics"}]`,
			n:       2,
			wantErr: "no label for index 1",
		},
		{
			name:    "unknown label",
			raw:     `[{"index":0,"label":"Gardening"}]`,
			n:       1,
			wantErr: `unknown label "Gardening"`,
		},
		{
			name:    "out of range",
			raw:     `[{"index":3,"label":"Politics"}]`,
			n:       1,
			wantErr: "unknown index 3",
		},
		{
			name:    "duplicate",
			raw:     `[{"index":0,"label":"Politics"},{"index":0,"label":"Sports"}]`,
			n:       1,
			wantErr: "index 0 twice",
		},
		{
			name:    "not json",
			raw:     `Politics`,
			n:       1,
			wantErr: "error unmarshaling",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeAssignments(tt.raw, tt.n, testLabels)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserMessage(t *testing.T) {
	msg := userMessage([]string{"First\nheadline", "Second"}, testLabels)
	assert.Equal(t, "Categories: Politics, Sports, Other\n\nHeadlines:\n0. First headline\n1. Second\n", msg)
}

func TestKeyword(t *testing.T) {
	k := NewKeyword(DefaultKeywords)
	labels := []string{"Politics", "Technology", "Sports", "Health", "Crime", "Business", "World", "Culture", "Weather", "UK", "Other"}

	got, err := k.Classify(context.Background(), []string{
		"Minister calls snap election as parliament dissolves",
		"Storm brings heavy rain, forecast warns",
		"Police arrest man after stabbing",
		"Health service waiting lists grow",
		"A quiet afternoon",
	}, labels)
	require.NoError(t, err)
	assert.Equal(t, []string{"Politics", "Weather", "Crime", "Health", "Other"}, got)
}

func TestKeyword_CustomLabels(t *testing.T) {
	k := NewKeyword(map[string][]string{"Space": {"rocket", "nasa", "orbit"}})

	got, err := k.Classify(context.Background(), []string{"NASA rocket reaches orbit", "Nothing here"}, []string{"Space", "Misc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Space", "Misc"}, got)
}

func TestKeyword_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewKeyword(nil).Classify(ctx, []string{"a"}, testLabels)
	assert.ErrorIs(t, err, context.Canceled)
}

type countingClassifier struct {
	calls [][]string
	err   error
	short bool
}

func (c *countingClassifier) Classify(_ context.Context, texts, labels []string) ([]string, error) {
	c.calls = append(c.calls, texts)
	if c.err != nil {
		return nil, c.err
	}
	out := make([]string, len(texts))
	for i := range texts {
		out[i] = labels[i%len(labels)]
	}
	if c.short {
		return out[:len(out)-1], nil
	}
	return out, nil
}

func TestCached(t *testing.T) {
	next := &countingClassifier{}
	c, err := NewCached(next, 16)
	require.NoError(t, err)

	got, err := c.Classify(context.Background(), []string{"a", "b"}, testLabels)
	require.NoError(t, err)
	assert.Equal(t, []string{"Politics", "Sports"}, got)

	// Only the unseen text goes through, and cached answers keep their slot.
	got, err = c.Classify(context.Background(), []string{"b", "c", "a"}, testLabels)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sports", "Politics", "Politics"}, got)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, next.calls)

	// All hits: no call at all.
	_, err = c.Classify(context.Background(), []string{"a", "c"}, testLabels)
	require.NoError(t, err)
	assert.Len(t, next.calls, 2)

	// A different label set is a different question.
	_, err = c.Classify(context.Background(), []string{"a"}, []string{"Other"})
	require.NoError(t, err)
	assert.Len(t, next.calls, 3)
}

func TestCached_Errors(t *testing.T) {
	boom := errors.New("boom")
	c, err := NewCached(&countingClassifier{err: boom}, 0)
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), []string{"a"}, testLabels)
	assert.ErrorIs(t, err, boom)

	c, err = NewCached(&countingClassifier{short: true}, 0)
	require.NoError(t, err)
	_, err = c.Classify(context.Background(), []string{"a", "b"}, testLabels)
	assert.ErrorContains(t, err, "returned 1 labels for 2 texts")
}
