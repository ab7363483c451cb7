package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/run"
	"github.com/spf13/cobra"

	"github.com/jdholdren/newscat/internal/api"
	"github.com/jdholdren/newscat/internal/app"
	"github.com/jdholdren/newscat/internal/newscat"
	"github.com/jdholdren/newscat/internal/sqlite"
	"github.com/jdholdren/newscat/internal/store"
)

func (c *cli) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch every feed once and classify new articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			cls, closer, err := c.classifier(ctx)
			if err != nil {
				return err
			}
			defer closer.Close()
			a, err := c.app(st, cls)
			if err != nil {
				return err
			}

			rep, err := a.Refresh(ctx)
			if err != nil && !app.Degraded(err) {
				return err
			}
			if err != nil {
				slog.ErrorContext(ctx, "refresh degraded", "error", err)
			}

			for _, f := range rep.Failures {
				fmt.Fprintf(c.errOut, "feed failed: %s\n", f.URL)
			}
			fmt.Fprintf(c.out, "%d new articles from %d fetched, %d expired\n", rep.NewCount(), rep.Fetched, rep.Evicted)
			printGrouped(c.out, rep.New, "")

			return nil
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	var category, dbPath string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the stored articles grouped by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				grouped map[string][]newscat.Article
				err     error
			)
			if dbPath != "" {
				grouped, err = c.listExported(cmd.Context(), dbPath, category)
			} else {
				var st *store.Store
				if st, err = c.openStore(cmd.Context()); err == nil {
					grouped = st.ListByCategory()
				}
			}
			if err != nil {
				return err
			}

			if category != "" && !hasCategory(grouped, category) {
				return fmt.Errorf("no articles in category %q", category)
			}
			printGrouped(c.out, grouped, category)

			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only print this category")
	cmd.Flags().StringVar(&dbPath, "db", "", "read from a SQLite export instead of the store")

	return cmd
}

// listExported reads the articles of an export back, grouped by category.
// A non-empty only limits the read to that category.
func (c *cli) listExported(ctx context.Context, dbPath, only string) (map[string][]newscat.Article, error) {
	repo, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	counts, err := repo.Counts(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]newscat.Article, len(counts))
	for category := range counts {
		if only != "" && !strings.EqualFold(category, only) {
			continue
		}
		if grouped[category], err = repo.ByCategory(ctx, category, 0); err != nil {
			return nil, err
		}
	}

	return grouped, nil
}

func (c *cli) pruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Drop expired articles from the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}

			stats := st.LastLoad()
			fmt.Fprintf(c.out, "kept %d articles, removed %d older than %d days\n", stats.Loaded, stats.Evicted, c.cfg.RetentionDays)
			return nil
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Mirror the stored articles into a SQLite database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			repo, err := sqlite.Open(ctx, dbPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			res, err := repo.Export(ctx, st.Articles())
			if err != nil {
				return err
			}

			counts, err := repo.Counts(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.out, "exported %d articles to %s, removed %d\n", res.Articles, dbPath, res.Removed)
			printCounts(c.out, counts)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "newscat.db", "path to the SQLite database")

	return cmd
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the stored articles over HTTP and refresh them periodically",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			cls, closer, err := c.classifier(ctx)
			if err != nil {
				return err
			}
			defer closer.Close()
			a, err := c.app(st, cls)
			if err != nil {
				return err
			}

			srv := api.NewServer(api.ServerConfig{
				Port:       c.cfg.Port,
				CorsOrigin: c.cfg.CorsOrigin,
				Labels:     c.catalog.LabelNames(),
			}, st, cls)

			var g run.Group
			{
				ctx, cancel := context.WithCancel(ctx)
				g.Add(func() error {
					<-ctx.Done()
					return ctx.Err()
				}, func(error) {
					cancel()
				})
			}
			{
				g.Add(func() error {
					slog.InfoContext(ctx, "serving", "addr", srv.Addr)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return fmt.Errorf("error listening: %s", err)
					}
					return nil
				}, func(error) {
					downCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
					defer cancel()
					if err := srv.Shutdown(downCtx); err != nil {
						slog.Error("error shutting down server", "error", err)
					}
				})
			}
			{
				ctx, cancel := context.WithCancel(ctx)
				g.Add(func() error {
					return refreshLoop(ctx, a, c.cfg.RefreshInterval)
				}, func(error) {
					cancel()
				})
			}

			err = g.Run()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				return err
			}
			return nil
		},
	}
}

// refreshLoop refreshes now and then every interval until ctx is done. Only
// a failure that leaves the store unusable ends it early.
func refreshLoop(ctx context.Context, a *app.App, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_, err := a.Refresh(ctx)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case app.Degraded(err):
			slog.ErrorContext(ctx, "refresh degraded", "error", err)
		case err != nil:
			return fmt.Errorf("error refreshing: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func hasCategory[T any](grouped map[string]T, category string) bool {
	for c := range grouped {
		if strings.EqualFold(c, category) {
			return true
		}
	}

	return false
}
