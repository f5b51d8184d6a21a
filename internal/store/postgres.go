package store

import (
	"strconv"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver, registered as "postgres".
)

type postgresDialect struct{}

func (postgresDialect) driverName() string { return "postgres" }

func (postgresDialect) placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgresDialect) dayExpr(col string) string {
	return "TO_CHAR(DATE(" + col + "), 'YYYY-MM-DD')"
}

func (postgresDialect) timeExpr(col string) string { return col }

func (postgresDialect) timeArg(t time.Time) any { return t }

func (postgresDialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS assets (
			asset_id   BIGSERIAL PRIMARY KEY,
			ticker     TEXT NOT NULL,
			asset_type TEXT NOT NULL DEFAULT 'Stock',
			UNIQUE (ticker, asset_type)
		)`,
		`CREATE TABLE IF NOT EXISTS platforms (
			platform_id BIGSERIAL PRIMARY KEY,
			name        TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS asset_mentions (
			mention_id       BIGSERIAL PRIMARY KEY,
			asset_id         BIGINT NOT NULL REFERENCES assets (asset_id),
			platform_id      BIGINT REFERENCES platforms (platform_id),
			sentiment_score  DOUBLE PRECISION NOT NULL CHECK (sentiment_score BETWEEN -1 AND 1),
			confidence_level DOUBLE PRECISION,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS asset_mentions_created_at_idx ON asset_mentions (created_at)`,
		`CREATE INDEX IF NOT EXISTS asset_mentions_asset_id_idx ON asset_mentions (asset_id)`,
	}
}
