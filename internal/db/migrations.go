package db

import (
	"database/sql"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// migrations is an ordered list of SQL statements to run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS listings (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		address           TEXT    NOT NULL,
		city              TEXT    NOT NULL,
		state             TEXT    NOT NULL DEFAULT '',
		monthly_rent      REAL    NOT NULL CHECK (monthly_rent > 0),
		beds              INTEGER NOT NULL CHECK (beds >= 0),
		baths             INTEGER NOT NULL CHECK (baths >= 0),
		str_rate          REAL,
		walkability       REAL    CHECK (walkability IS NULL OR (walkability >= 0 AND walkability <= 100)),
		distance_km       REAL    CHECK (distance_km IS NULL OR distance_km >= 0),
		nearby_str_count  INTEGER CHECK (nearby_str_count IS NULL OR nearby_str_count >= 0),
		regulation_risk   TEXT    CHECK (regulation_risk IS NULL OR regulation_risk IN ('low', 'medium', 'high')),
		seasonal_variance REAL,
		status            TEXT    NOT NULL DEFAULT 'unverified'
			CHECK (status IN ('unverified', 'pending', 'verified', 'rejected')),
		lead_score        INTEGER CHECK (lead_score IS NULL OR (lead_score >= 0 AND lead_score <= 100)),
		lead_grade        TEXT,
		score_json        TEXT,
		scored_at         DATETIME,
		market_json       TEXT    NOT NULL DEFAULT '{}',
		created_by        TEXT    NOT NULL DEFAULT '',
		created_at        DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at        DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (address, city, state)
	)`,
	`CREATE TABLE IF NOT EXISTS verification_requests (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		listing_id   INTEGER NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		requested_by TEXT    NOT NULL,
		notes        TEXT    NOT NULL DEFAULT '',
		status       TEXT    NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'approved', 'rejected')),
		reviewer     TEXT    NOT NULL DEFAULT '',
		review_note  TEXT    NOT NULL DEFAULT '',
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		resolved_at  DATETIME
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_verification_open
		ON verification_requests(listing_id) WHERE status = 'open'`,
	`CREATE TABLE IF NOT EXISTS analyses (
		id             TEXT    PRIMARY KEY,
		listing_id     INTEGER REFERENCES listings(id) ON DELETE SET NULL,
		owner          TEXT    NOT NULL,
		adr            REAL    NOT NULL,
		occupancy      REAL    NOT NULL CHECK (occupancy >= 0 AND occupancy <= 1),
		expense_rate   REAL    NOT NULL CHECK (expense_rate >= 0 AND expense_rate <= 1),
		monthly_rent   REAL    NOT NULL DEFAULT 0,
		monthly_revenue REAL   NOT NULL,
		annual_revenue REAL    NOT NULL,
		roi_score      REAL    NOT NULL,
		inputs_json    TEXT,
		results_json   TEXT,
		created_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS auth_tokens (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		token      TEXT     NOT NULL UNIQUE,
		email      TEXT     NOT NULL,
		expires_at DATETIME NOT NULL,
		used       INTEGER  DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT     PRIMARY KEY,
		email      TEXT     NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS passkey_credentials (
		id              TEXT    PRIMARY KEY,
		email           TEXT    NOT NULL,
		name            TEXT    NOT NULL DEFAULT '',
		credential_json TEXT    NOT NULL,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id           INTEGER  PRIMARY KEY AUTOINCREMENT,
		name         TEXT     NOT NULL,
		email        TEXT     NOT NULL DEFAULT '',
		key_prefix   TEXT     NOT NULL,
		key_hash     TEXT     NOT NULL UNIQUE,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_used_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		email      TEXT    NOT NULL UNIQUE,
		name       TEXT    NOT NULL DEFAULT '',
		tier       TEXT    NOT NULL DEFAULT 'free' CHECK (tier IN ('free', 'pro', 'admin')),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return eris.Wrapf(err, "migration %d", i)
		}
	}

	// Column additions (idempotent, checks if column exists first)
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"listings", "notes", "TEXT NOT NULL DEFAULT ''"},
		{"users", "phone", "TEXT NOT NULL DEFAULT ''"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return eris.Wrapf(err, "adding %s.%s", cm.table, cm.column)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) error {
	exists, err := hasColumn(db, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

func hasColumn(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, eris.Wrap(err, "checking table info")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			zap.L().Warn("closing rows", zap.Error(cerr))
		}
	}()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue any
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, eris.Wrap(err, "scanning column info")
		}
		if name == column {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, eris.Wrap(err, "iterating columns")
	}
	return false, nil
}
