package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/newscat/internal/newscat"
	"github.com/jdholdren/newscat/internal/pubdate"
)

func openRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Open(context.Background(), filepath.Join(t.TempDir(), "newscat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestExport(t *testing.T) {
	r := openRepo(t)
	ctx := context.Background()
	base := time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC)

	articles := []newscat.Article{
		{Title: "Old vote", Category: "Politics", Published: pubdate.Format(base.Add(-2 * time.Hour)), Source: "BBC", Link: "p1"},
		{Title: "New vote", Category: "Politics", Published: pubdate.Format(base), Source: "BBC", Link: "p2"},
		{Title: "Undated vote", Category: "Politics", Published: "2025-01-10T12:00:00Z", Source: "CNN", Link: "p3"},
		{Title: "Cup final", Category: "Sports", Published: pubdate.Format(base), Source: "BBC", Link: "s1"},
	}

	res, err := r.Export(ctx, articles)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(res.ID, exportNamespace))
	assert.Equal(t, 4, res.Articles)
	assert.EqualValues(t, 0, res.Removed)

	got, err := r.ByCategory(ctx, "Politics", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"p3", "p2", "p1"}, []string{got[0].Link, got[1].Link, got[2].Link})
	assert.Equal(t, articles[2], got[0])

	limited, err := r.ByCategory(ctx, "Politics", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	counts, err := r.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Politics": 3, "Sports": 1}, counts)
}

func TestExport_Mirrors(t *testing.T) {
	r := openRepo(t)
	ctx := context.Background()

	_, err := r.Export(ctx, []newscat.Article{
		{Title: "A", Category: "World", Link: "a"},
		{Title: "B", Category: "World", Link: "b"},
	})
	require.NoError(t, err)

	// "a" is evicted and "b" reclassified between exports.
	res, err := r.Export(ctx, []newscat.Article{
		{Title: "B", Category: "UK", Link: "b"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Removed)

	counts, err := r.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"UK": 1}, counts)

	// An empty snapshot clears the table.
	res, err = r.Export(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Removed)

	counts, err = r.Counts(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestOpen_MigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newscat.db")

	r, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	r, err = Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, r.Close())
}
