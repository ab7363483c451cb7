// Package sqlite mirrors the store into a SQLite database so other tools can
// query it with SQL.
package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/jdholdren/newscat/internal/migrations"
)

type Repo struct {
	db  *sqlx.DB
	now func() int64
}

// Open connects to the database at path and migrates it.
func Open(ctx context.Context, path string) (*Repo, error) {
	dbx, err := sqlx.Open("sqlite", fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %s", err)
	}
	if err := dbx.PingContext(ctx); err != nil {
		dbx.Close()
		return nil, fmt.Errorf("error connecting to database: %s", err)
	}

	// Migrate, always
	if err := migrations.Run(dbx); err != nil {
		dbx.Close()
		return nil, fmt.Errorf("error running migrations: %s", err)
	}

	return New(dbx), nil
}

func New(db *sqlx.DB) *Repo {
	return &Repo{db: db, now: unixNow}
}

func (r *Repo) Close() error {
	return r.db.Close()
}
