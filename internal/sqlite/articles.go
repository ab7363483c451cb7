package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/jdholdren/newscat/internal/newscat"
	"github.com/jdholdren/newscat/internal/pubdate"
)

const (
	articleNamespace = "-art"
	exportNamespace  = "-xprt"
)

type (
	articleRow struct {
		ID            string        `db:"id"`
		Link          string        `db:"link"`
		Title         string        `db:"title"`
		Category      string        `db:"category"`
		Source        string        `db:"source"`
		Published     string        `db:"published"`
		PublishedUnix sql.NullInt64 `db:"published_unix"`
		ExportedAt    int64         `db:"exported_at"`
	}

	// ExportResult describes one call to [Repo.Export].
	ExportResult struct {
		ID       string
		Articles int
		Removed  int64
	}
)

func unixNow() int64 {
	return time.Now().Unix()
}

func (a articleRow) article() newscat.Article {
	return newscat.Article{
		Title:     a.Title,
		Category:  a.Category,
		Published: a.Published,
		Source:    a.Source,
		Link:      a.Link,
	}
}

// Export makes the articles table match articles exactly, in one transaction.
func (r *Repo) Export(ctx context.Context, articles []newscat.Article) (ExportResult, error) {
	res := ExportResult{
		ID:       fmt.Sprintf("%s%s", uuid.NewString(), exportNamespace),
		Articles: len(articles),
	}
	now := r.now()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return ExportResult{}, fmt.Errorf("error starting transaction: %s", err)
	}
	defer tx.Rollback()

	links := make([]string, 0, len(articles))
	for _, a := range articles {
		links = append(links, a.Link)
	}
	query, args, err := sq.Delete("articles").Where(sq.NotEq{"link": links}).ToSql()
	if err != nil {
		return ExportResult{}, fmt.Errorf("error constructing sql: %s", err)
	}
	deleted, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return ExportResult{}, fmt.Errorf("error removing stale articles: %s", err)
	}
	res.Removed, _ = deleted.RowsAffected()

	for _, a := range articles {
		var unix sql.NullInt64
		if p := pubdate.Parse(a.Published); p.Valid {
			unix = sql.NullInt64{Int64: p.Time.Unix(), Valid: true}
		}

		query, args, err := sq.Insert("articles").
			Columns("id", "link", "title", "category", "source", "published", "published_unix", "exported_at").
			Values(fmt.Sprintf("%s%s", uuid.NewString(), articleNamespace), a.Link, a.Title, a.Category, a.Source, a.Published, unix, now).
			Suffix(`ON CONFLICT(link) DO UPDATE SET
				title = excluded.title,
				category = excluded.category,
				source = excluded.source,
				published = excluded.published,
				published_unix = excluded.published_unix,
				exported_at = excluded.exported_at`).
			ToSql()
		if err != nil {
			return ExportResult{}, fmt.Errorf("error constructing sql: %s", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return ExportResult{}, fmt.Errorf("error upserting article %s: %s", a.Link, err)
		}
	}

	const q = `INSERT INTO exports (id, article_count, removed_count, created_at) VALUES (?, ?, ?, ?);`
	if _, err := tx.ExecContext(ctx, q, res.ID, res.Articles, res.Removed, now); err != nil {
		return ExportResult{}, fmt.Errorf("error recording export: %s", err)
	}

	if err := tx.Commit(); err != nil {
		return ExportResult{}, fmt.Errorf("error committing export: %s", err)
	}

	return res, nil
}

// ByCategory returns up to limit articles of a category, newest first.
// Articles with an unparseable date come first. A limit of zero means all.
func (r *Repo) ByCategory(ctx context.Context, category string, limit uint64) ([]newscat.Article, error) {
	qb := sq.Select("*").
		From("articles").
		Where(sq.Eq{"category": category}).
		OrderBy("published_unix IS NOT NULL", "published_unix DESC", "link")
	if limit > 0 {
		qb = qb.Limit(limit)
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %s", err)
	}

	var rows []articleRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("error fetching articles: %s", err)
	}

	articles := make([]newscat.Article, 0, len(rows))
	for _, row := range rows {
		articles = append(articles, row.article())
	}

	return articles, nil
}

// Counts returns the number of exported articles per category.
func (r *Repo) Counts(ctx context.Context) (map[string]int, error) {
	query, args, err := sq.Select("category", "COUNT(*) AS count").
		From("articles").
		GroupBy("category").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %s", err)
	}

	var rows []struct {
		Category string `db:"category"`
		Count    int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("error counting articles: %s", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.Count
	}

	return counts, nil
}
