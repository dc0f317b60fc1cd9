// Package db persists classification runs and their per-window
// predictions in sqlite.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the sqlite database at path. The
// schema is managed by MigrateUp, not here.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Pragmas apply per connection, so pin the pool to one. Single
	// writer; WAL keeps readers unblocked during bulk prediction
	// inserts.
	sqlDB.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	return &DB{sqlDB}, nil
}
