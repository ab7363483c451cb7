package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jdholdren/newscat/internal/newscat"
	"github.com/jdholdren/newscat/internal/pubdate"
)

// printGrouped writes categories in name order, each followed by its
// articles. A non-empty only limits the output to that category.
func printGrouped(w io.Writer, grouped map[string][]newscat.Article, only string) {
	categories := make([]string, 0, len(grouped))
	for category := range grouped {
		if only != "" && !strings.EqualFold(category, only) {
			continue
		}
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		name := category
		if name == "" {
			name = "(uncategorized)"
		}
		fmt.Fprintf(w, "\n%s (%d)\n", name, len(grouped[category]))
		for _, a := range grouped[category] {
			fmt.Fprintf(w, "  %s\n", a.Title)
			fmt.Fprintf(w, "    %s | %s\n", a.Source, pubdate.Parse(a.Published).Display())
			fmt.Fprintf(w, "    %s\n", a.Link)
		}
	}
}

// printCounts writes one "  category: n" line per category in name order.
func printCounts(w io.Writer, counts map[string]int) {
	categories := make([]string, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		fmt.Fprintf(w, "  %s: %d\n", category, counts[category])
	}
}
