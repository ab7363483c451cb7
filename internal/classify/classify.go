// Package classify holds the [newscat.Classifier] implementations: hosted
// zero-shot models, an offline keyword matcher, and a caching wrapper.
package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrRateLimited is returned when a hosted model refuses the call for now.
var ErrRateLimited = errors.New("classifier rate limited")

// assignment is one element of the structured model output.
type assignment struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

const systemPrompt = `You sort news headlines into categories.
You are given a numbered list of headlines and a closed list of categories.
Assign exactly one category to every headline, using only the categories given.
If no category fits, use the last category.`

// userMessage numbers the texts so answers can be matched back by index.
func userMessage(texts, labels []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Categories: %s\n\nHeadlines:\n", strings.Join(labels, ", "))
	for i, text := range texts {
		fmt.Fprintf(&b, "%d. %s\n", i, strings.Join(strings.Fields(text), " "))
	}

	return b.String()
}

// outputSchema constrains a model to one {index, label} object per text.
func outputSchema(labels []string) map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"index": map[string]any{"type": "integer"},
				"label": map[string]any{"type": "string", "enum": labels},
			},
			"required":             []string{"index", "label"},
			"additionalProperties": false,
		},
	}
}

// decodeAssignments turns the model's JSON answer into one label per text.
func decodeAssignments(raw string, n int, labels []string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var assignments []assignment
	if err := json.Unmarshal([]byte(raw), &assignments); err != nil {
		return nil, fmt.Errorf("error unmarshaling model json: %s", err)
	}

	out := make([]string, n)
	for _, a := range assignments {
		if a.Index < 0 || a.Index >= n {
			return nil, fmt.Errorf("model answered for unknown index %d", a.Index)
		}
		if out[a.Index] != "" {
			return nil, fmt.Errorf("model answered index %d twice", a.Index)
		}
		label, ok := canonical(a.Label, labels)
		if !ok {
			return nil, fmt.Errorf("model answered unknown label %q", a.Label)
		}
		out[a.Index] = label
	}
	for i, label := range out {
		if label == "" {
			return nil, fmt.Errorf("model gave no label for index %d", i)
		}
	}

	return out, nil
}

// canonical finds label in labels ignoring case and surrounding space.
func canonical(label string, labels []string) (string, bool) {
	label = strings.TrimSpace(label)
	for _, l := range labels {
		if strings.EqualFold(l, label) {
			return l, true
		}
	}

	return "", false
}
