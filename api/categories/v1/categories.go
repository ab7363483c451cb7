// Package v1 holds the payloads of the read API over classified articles.
package v1

import (
	"fmt"
	"net/http"
	"strings"

	nerrs "github.com/jdholdren/newscat/internal/errors"
)

// MaxClassifyTitles caps a single classify request.
const MaxClassifyTitles = 100

type (
	Article struct {
		Title     string `json:"title"`
		Category  string `json:"category"`
		Published string `json:"published"`
		Source    string `json:"source"`
		Link      string `json:"link"`
	}

	// CategoriesResponse is every stored article grouped by category.
	CategoriesResponse struct {
		Categories map[string][]Article `json:"categories"`
		Total      int                  `json:"total"`
	}

	// CategoryResponse is one page of a single category, newest first.
	CategoryResponse struct {
		Category string    `json:"category"`
		Articles []Article `json:"articles"`
		Limit    int       `json:"limit"`
		Offset   int       `json:"offset"`
		Total    int       `json:"total"`
	}

	// ClassifyRequest asks for labels without storing anything.
	ClassifyRequest struct {
		Titles []string `json:"titles"`
	}

	ClassifyResponse struct {
		Labels []string `json:"labels"`
	}
)

func (r ClassifyRequest) Validate() error {
	var errs []nerrs.Detail
	if len(r.Titles) == 0 {
		errs = append(errs, nerrs.Detail{
			Field: "titles",
			Error: "at least one title is required",
		})
	}
	if len(r.Titles) > MaxClassifyTitles {
		errs = append(errs, nerrs.Detail{
			Field: "titles",
			Error: fmt.Sprintf("at most %d titles are allowed", MaxClassifyTitles),
		})
	}
	for i, title := range r.Titles {
		if strings.TrimSpace(title) == "" {
			errs = append(errs, nerrs.Detail{
				Field: fmt.Sprintf("titles[%d]", i),
				Error: "title must not be blank",
			})
		}
	}
	if len(errs) > 0 {
		return nerrs.E(http.StatusBadRequest, "request was invalid", errs)
	}

	return nil
}
