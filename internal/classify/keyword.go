package classify

import (
	"context"
	"strings"
	"unicode"

	"github.com/jdholdren/newscat/internal/newscat"
)

// DefaultKeywords are the hints used by [Keyword] for the default labels.
var DefaultKeywords = map[string][]string{
	"Politics": {
		"election", "vote", "parliament", "minister", "government", "president",
		"senate", "congress", "campaign", "policy", "labour", "tory", "democrat", "republican",
	},
	"Technology": {
		"tech", "ai", "software", "app", "google", "apple", "microsoft", "cyber",
		"chip", "robot", "internet", "smartphone", "startup",
	},
	"Sports": {
		"football", "soccer", "cricket", "tennis", "olympic", "league", "cup",
		"match", "goal", "nba", "nfl", "rugby", "golf", "f1",
	},
	"Health": {
		"health", "nhs", "hospital", "virus", "vaccine", "cancer", "disease",
		"doctor", "medical", "covid", "mental",
	},
	"Crime": {
		"police", "murder", "arrest", "court", "trial", "jail", "prison",
		"charged", "stabbing", "shooting", "fraud", "sentenced",
	},
	"Business": {
		"market", "stocks", "shares", "economy", "inflation", "bank", "company",
		"profit", "jobs", "trade", "tariff", "investor",
	},
	"World": {
		"war", "ukraine", "russia", "china", "israel", "gaza", "un", "nato",
		"refugee", "border", "ceasefire",
	},
	"Culture": {
		"film", "music", "art", "book", "festival", "celebrity", "tv", "album",
		"theatre", "award",
	},
	"Weather": {
		"weather", "storm", "rain", "snow", "flood", "heatwave", "hurricane",
		"temperature", "forecast", "wildfire",
	},
	"UK": {
		"uk", "britain", "british", "england", "scotland", "wales", "london",
		"westminster", "king",
	},
}

// Keyword is an offline classifier that scores each label by keyword hits.
//
// A label always matches its own name. Ties go to the earlier label and a
// text with no hits at all gets the last label.
type Keyword struct {
	keywords map[string][]string
}

var _ newscat.Classifier = (*Keyword)(nil)

// NewKeyword builds a classifier from label to keyword lists. Labels are
// matched ignoring case.
func NewKeyword(keywords map[string][]string) *Keyword {
	k := &Keyword{keywords: make(map[string][]string, len(keywords))}
	for label, words := range keywords {
		lower := make([]string, 0, len(words))
		for _, w := range words {
			lower = append(lower, strings.ToLower(strings.TrimSpace(w)))
		}
		k.keywords[strings.ToLower(label)] = lower
	}

	return k
}

func (k *Keyword) Classify(ctx context.Context, texts, labels []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = k.best(text, labels)
	}

	return out, nil
}

func (k *Keyword) best(text string, labels []string) string {
	if len(labels) == 0 {
		return ""
	}

	var (
		tokens    = tokenize(text)
		lower     = " " + strings.Join(tokens, " ") + " "
		best      = labels[len(labels)-1]
		bestScore = 0
	)
	for _, label := range labels {
		score := 0
		words := append([]string{strings.ToLower(label)}, k.keywords[strings.ToLower(label)]...)
		for _, w := range words {
			if w == "" {
				continue
			}
			// Phrases match on token boundaries in the joined text.
			if strings.Contains(w, " ") {
				if strings.Contains(lower, " "+w+" ") {
					score += 2
				}
				continue
			}
			for _, t := range tokens {
				if t == w {
					score++
				}
			}
		}
		if score > bestScore {
			best, bestScore = label, score
		}
	}

	return best
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
