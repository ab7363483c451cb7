// Package api serves the classified articles to readers over HTTP.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/jdholdren/newscat/internal/newscat"
	"github.com/jdholdren/newscat/internal/serverutil"
)

type (
	// Lister hands out a snapshot of the store grouped by category.
	Lister interface {
		ListByCategory() map[string][]newscat.Article
	}

	// Server is the read API over the store, plus a classify endpoint that
	// labels titles without storing them.
	Server struct {
		*http.Server

		lister     Lister
		classifier newscat.Classifier
		labels     []string
	}

	ServerConfig struct {
		Port       int
		CorsOrigin string
		Labels     []string
	}
)

func NewServer(config ServerConfig, lister Lister, classifier newscat.Classifier) *Server {
	r := serverutil.ErrRouter{Router: mux.NewRouter()}

	origin := config.CorsOrigin
	if origin == "" {
		origin = "*"
	}
	labels := config.Labels
	if len(labels) == 0 {
		labels = newscat.DefaultLabels
	}

	srvr := &Server{
		lister:     lister,
		classifier: classifier,
		labels:     labels,
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			Handler: handlers.CORS(
				handlers.AllowedOrigins([]string{origin}),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"content-type"}),
			)(r),
		},
	}

	r.Use(serverutil.AccessLogMiddleware) // Log everything
	r.HandleFuncE("/healthz", srvr.getHealth).Methods(http.MethodGet)
	r.HandleFuncE("/api/categories", srvr.getCategories).Methods(http.MethodGet)
	r.HandleFuncE("/api/categories/{category}", srvr.getCategory).Methods(http.MethodGet)
	r.HandleFuncE("/api/classify", srvr.postClassify).Methods(http.MethodPost)

	slog.Debug("configured api server", "port", config.Port)

	return srvr
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) error {
	return serverutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
