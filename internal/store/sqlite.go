package store

import (
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// sqliteTimeLayout matches SQLite's CURRENT_TIMESTAMP and the output of
// datetime().
const sqliteTimeLayout = "2006-01-02 15:04:05"

type sqliteDialect struct{}

func (sqliteDialect) driverName() string { return "sqlite" }

func (sqliteDialect) placeholder(int) string { return "?" }

func (sqliteDialect) dayExpr(col string) string { return "DATE(" + col + ")" }

// timeExpr runs created_at through datetime() so ISO values with a T
// separator or zone suffix compare against the same canonical layout.
func (sqliteDialect) timeExpr(col string) string { return "datetime(" + col + ")" }

func (sqliteDialect) timeArg(t time.Time) any {
	return t.UTC().Format(sqliteTimeLayout)
}

func (sqliteDialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS assets (
			asset_id   INTEGER PRIMARY KEY AUTOINCREMENT,
			ticker     TEXT NOT NULL,
			asset_type TEXT NOT NULL DEFAULT 'Stock',
			UNIQUE (ticker, asset_type)
		)`,
		`CREATE TABLE IF NOT EXISTS platforms (
			platform_id INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS asset_mentions (
			mention_id       INTEGER PRIMARY KEY AUTOINCREMENT,
			asset_id         INTEGER NOT NULL REFERENCES assets (asset_id),
			platform_id      INTEGER REFERENCES platforms (platform_id),
			sentiment_score  REAL NOT NULL CHECK (sentiment_score BETWEEN -1 AND 1),
			confidence_level REAL,
			created_at       TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS asset_mentions_created_at_idx ON asset_mentions (created_at)`,
		`CREATE INDEX IF NOT EXISTS asset_mentions_asset_id_idx ON asset_mentions (asset_id)`,
	}
}
