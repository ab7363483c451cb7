package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	v1 "github.com/jdholdren/newscat/api/categories/v1"
	nerrs "github.com/jdholdren/newscat/internal/errors"
	"github.com/jdholdren/newscat/internal/newscat"
	"github.com/jdholdren/newscat/internal/serverutil"
)

func apiArticle(a newscat.Article) v1.Article {
	return v1.Article{
		Title:     a.Title,
		Category:  a.Category,
		Published: a.Published,
		Source:    a.Source,
		Link:      a.Link,
	}
}

func apiArticles(articles []newscat.Article) []v1.Article {
	out := make([]v1.Article, 0, len(articles))
	for _, a := range articles {
		out = append(out, apiArticle(a))
	}

	return out
}

func (s *Server) getCategories(w http.ResponseWriter, r *http.Request) error {
	grouped := s.lister.ListByCategory()

	resp := v1.CategoriesResponse{Categories: make(map[string][]v1.Article, len(grouped))}
	for category, articles := range grouped {
		resp.Categories[category] = apiArticles(articles)
		resp.Total += len(articles)
	}

	return serverutil.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) error {
	var (
		name          = mux.Vars(r)["category"]
		limit, offset = parsePaginationParams(r, defaultPageLimit, maxPageLimit)
		grouped       = s.lister.ListByCategory()
	)

	category, ok := s.resolve(name, grouped)
	if !ok {
		return nerrs.E(http.StatusNotFound, "category not found", nerrs.Detail{Field: "category", Error: name})
	}
	articles := grouped[category]

	return serverutil.WriteJSON(w, http.StatusOK, v1.CategoryResponse{
		Category: category,
		Articles: apiArticles(page(articles, limit, offset)),
		Limit:    limit,
		Offset:   offset,
		Total:    len(articles),
	})
}

// resolve matches name, ignoring case, against the stored categories and
// then the configured labels.
func (s *Server) resolve(name string, grouped map[string][]newscat.Article) (string, bool) {
	if _, ok := grouped[name]; ok {
		return name, true
	}
	for category := range grouped {
		if strings.EqualFold(category, name) {
			return category, true
		}
	}
	for _, label := range s.labels {
		if strings.EqualFold(label, name) {
			return label, true
		}
	}

	return "", false
}

func (s *Server) postClassify(w http.ResponseWriter, r *http.Request) error {
	body, err := serverutil.DecodeValid[v1.ClassifyRequest](r.Body)
	if err != nil {
		return err
	}

	labels, err := s.classifier.Classify(r.Context(), body.Titles, s.labels)
	if err != nil {
		return fmt.Errorf("%w: %w", newscat.ErrClassifierCallFailed, err)
	}

	return serverutil.WriteJSON(w, http.StatusOK, v1.ClassifyResponse{Labels: labels})
}
