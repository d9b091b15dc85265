// Package simdb persists simulation runs and their per-tick results to
// SQLite. The schema is managed by golang-migrate over the embedded
// migration files; the store retries writes on SQLITE_BUSY so the HTTP API
// and a running simulation can share one database file.
package simdb

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection and remembers the file it was opened on.
type DB struct {
	*sql.DB
	path string
}

// Path returns the database file path this DB was opened with.
func (db *DB) Path() string {
	return db.path
}

// Open opens (or creates) the database at path and applies the connection
// pragmas. It does not run migrations; call MigrateUp for that.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL keeps readers unblocked during simulation writes; the busy
	// timeout covers the brief writer lock handoffs that remain.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return &DB{DB: db, path: path}, nil
}

// retryOnBusy retries fn on SQLITE_BUSY/locked errors with a short backoff.
// Other errors return immediately.
func retryOnBusy(fn func() error) error {
	const maxAttempts = 5
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		msg := err.Error()
		if !strings.Contains(msg, "database is locked") && !strings.Contains(msg, "SQLITE_BUSY") {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	return err
}
