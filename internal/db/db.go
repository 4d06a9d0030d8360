package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// connPragmas are applied to every pooled connection through the DSN, since
// foreign_keys and busy_timeout are per-connection settings in SQLite.
var connPragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// Open opens a SQLite database and configures pragmas. Times are written in
// SQLite's own text format so they compare correctly in queries.
func Open(path string) (*sql.DB, error) {
	params := []string{"_time_format=sqlite"}
	for _, p := range connPragmas {
		params = append(params, "_pragma="+p)
	}
	dsn := path + "?" + strings.Join(params, "&")

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Each connection to :memory: is its own database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Database-wide settings.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	return db, nil
}
