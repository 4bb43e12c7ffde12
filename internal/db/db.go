// Package db provides SQLite database initialization and access.
package db

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"
)

// Open opens (or creates) a SQLite database at the given path,
// enables WAL mode and foreign keys, and runs migrations.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "creating database directory %s", dir)
	}

	// Pragmas in the DSN apply to every pooled connection.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, eris.Wrap(err, "opening database")
	}

	if err := configure(db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, eris.Wrapf(err, "also failed to close: %v", closeErr)
		}
		return nil, err
	}

	if err := migrate(db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, eris.Wrapf(err, "running migrations (also failed to close: %v)", closeErr)
		}
		return nil, eris.Wrap(err, "running migrations")
	}

	return db, nil
}

// configure sets SQLite pragmas for WAL mode and foreign keys.
func configure(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return eris.Wrapf(err, "executing %s", p)
		}
	}

	return nil
}
