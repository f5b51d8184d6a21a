// Package store defines the read-only query layer over the sentiment
// database: ticker listing, aggregate statistics, top-mentioned rankings and
// per-day sentiment trends.
package store

import (
	"context"
	"fmt"

	"sentidash/internal/domain"
)

// SentimentStore answers the dashboard's aggregate queries. Implementations
// hold no mutable state between calls.
type SentimentStore interface {
	// ListTickers returns every distinct ticker in ascending order.
	ListTickers(ctx context.Context) ([]string, error)

	// Stats returns total asset and mention counts and the mean sentiment.
	Stats(ctx context.Context) (domain.Stats, error)

	// TopStocks returns up to limit assets ranked by mention count.
	TopStocks(ctx context.Context, limit int) ([]domain.TopStock, error)

	// Trends returns the mean sentiment per calendar day, oldest first.
	Trends(ctx context.Context, q TrendQuery) ([]domain.TrendPoint, error)

	// Ping verifies the backing database is reachable.
	Ping(ctx context.Context) error
}

// TrendQuery filters a trend computation. An empty Ticker or
// domain.GlobalTicker aggregates across all assets.
type TrendQuery struct {
	Window domain.TrendWindow
	Ticker string
}

// QueryError reports a failed store operation: the database was unreachable,
// the statement was rejected, or a result could not be scanned.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func queryErr(op string, err error) error {
	return &QueryError{Op: op, Err: err}
}
