package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"sentidash/internal/domain"
)

// Compile-time interface check.
var _ SentimentStore = (*SQLStore)(nil)

// SQLStore implements SentimentStore with plain aggregate SQL against either
// PostgreSQL or SQLite. Every call is a single read-only statement; the pool
// handles connection acquisition and release.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// PoolOptions tunes the database/sql connection pool. Zero values keep the
// driver defaults.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open opens a connection pool for the named driver ("sqlite" or
// "postgres") and returns a ready-to-use SQLStore. The database is not
// contacted until the first query or Ping.
func Open(driver, dsn string, pool PoolOptions) (*SQLStore, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", d.driverName(), err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return &SQLStore{db: db, dialect: d, now: time.Now}, nil
}

// NewSQLStore wraps an existing pool. driver selects the SQL dialect and must
// match the driver db was opened with.
func NewSQLStore(db *sql.DB, driver string) (*SQLStore, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &SQLStore{db: db, dialect: d, now: time.Now}, nil
}

// Close closes the underlying connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return queryErr("ping", err)
	}
	return nil
}

// EnsureSchema creates the assets, platforms and asset_mentions tables when
// they do not exist yet.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return queryErr("ensure schema", err)
		}
	}
	return nil
}

// ListTickers returns every ticker in ascending order.
func (s *SQLStore) ListTickers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT ticker FROM assets ORDER BY ticker ASC`)
	if err != nil {
		return nil, queryErr("list tickers", err)
	}
	defer rows.Close()

	tickers := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, queryErr("list tickers", err)
		}
		tickers = append(tickers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("list tickers", err)
	}
	return tickers, nil
}

// Stats returns asset and mention totals plus the mean sentiment rounded to
// two decimals. With no mentions the mean is 0.
func (s *SQLStore) Stats(ctx context.Context) (domain.Stats, error) {
	const q = `SELECT
		(SELECT COUNT(*) FROM assets),
		(SELECT COUNT(*) FROM asset_mentions),
		COALESCE((SELECT AVG(sentiment_score) FROM asset_mentions), 0.0)`

	var st domain.Stats
	var avg float64
	if err := s.db.QueryRowContext(ctx, q).Scan(&st.TotalAssets, &st.TotalMentions, &avg); err != nil {
		return domain.Stats{}, queryErr("stats", err)
	}
	st.AverageSentiment = domain.RoundSentiment(avg)
	return st, nil
}

// TopStocks returns up to limit assets with at least one mention, ordered by
// mention count descending and then ticker ascending. A non-positive limit
// falls back to domain.DefaultTopStocksLimit.
func (s *SQLStore) TopStocks(ctx context.Context, limit int) ([]domain.TopStock, error) {
	if limit <= 0 {
		limit = domain.DefaultTopStocksLimit
	}
	b := &bindArgs{d: s.dialect}
	q := `SELECT a.ticker, COUNT(m.mention_id) AS mentions, AVG(m.sentiment_score) AS avg_sentiment
		FROM assets a
		JOIN asset_mentions m ON m.asset_id = a.asset_id
		GROUP BY a.asset_id, a.ticker
		ORDER BY mentions DESC, a.ticker ASC
		LIMIT ` + b.add(limit)

	rows, err := s.db.QueryContext(ctx, q, b.args...)
	if err != nil {
		return nil, queryErr("top stocks", err)
	}
	defer rows.Close()

	out := []domain.TopStock{}
	for rows.Next() {
		var ts domain.TopStock
		if err := rows.Scan(&ts.Ticker, &ts.Mentions, &ts.AvgSentiment); err != nil {
			return nil, queryErr("top stocks", err)
		}
		out = append(out, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("top stocks", err)
	}
	return out, nil
}

// Trends returns the mean sentiment per calendar day of created_at, oldest
// first. Days without mentions are absent. An unknown ticker yields an empty
// result.
func (s *SQLStore) Trends(ctx context.Context, tq TrendQuery) ([]domain.TrendPoint, error) {
	q, args := s.trendsQuery(tq)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, queryErr("trends", err)
	}
	defer rows.Close()

	out := []domain.TrendPoint{}
	for rows.Next() {
		var p domain.TrendPoint
		if err := rows.Scan(&p.Date, &p.Sentiment); err != nil {
			return nil, queryErr("trends", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("trends", err)
	}
	return out, nil
}

// trendsQuery builds the trend statement and its arguments.
func (s *SQLStore) trendsQuery(tq TrendQuery) (string, []any) {
	b := &bindArgs{d: s.dialect}
	var sb strings.Builder
	var where []string

	sb.WriteString("SELECT ")
	sb.WriteString(s.dialect.dayExpr("m.created_at"))
	sb.WriteString(" AS day, AVG(m.sentiment_score) AS sentiment FROM asset_mentions m")

	if !domain.IsGlobalTicker(tq.Ticker) {
		sb.WriteString(" JOIN assets a ON a.asset_id = m.asset_id")
		where = append(where, "a.ticker = "+b.add(tq.Ticker))
	}
	if since, ok := tq.Window.Since(s.now()); ok {
		where = append(where, s.dialect.timeExpr("m.created_at")+" >= "+b.add(s.dialect.timeArg(since)))
	}
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" GROUP BY 1 ORDER BY 1 ASC")

	return sb.String(), b.args
}
