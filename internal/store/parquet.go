package store

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"sentidash/internal/domain"
)

// ParquetExporter writes snapshots of the dashboard's aggregate views to
// Parquet files on disk.
type ParquetExporter struct {
	Dir string
}

// NewParquetExporter creates a ParquetExporter rooted at dir.
func NewParquetExporter(dir string) *ParquetExporter {
	return &ParquetExporter{Dir: dir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// TrendRecord is the Parquet schema for one day of a sentiment trend.
type TrendRecord struct {
	Ticker     string  `parquet:"ticker"`
	Window     string  `parquet:"window"`
	Date       string  `parquet:"date"`
	Sentiment  float64 `parquet:"sentiment"`
	ExportedAt int64   `parquet:"exported_at,timestamp(millisecond)"` // Unix ms
}

// TopStockRecord is the Parquet schema for one row of the top-mentioned
// ranking.
type TopStockRecord struct {
	Rank         int32   `parquet:"rank"`
	Ticker       string  `parquet:"ticker"`
	Mentions     int64   `parquet:"mentions"`
	AvgSentiment float64 `parquet:"avg_sentiment"`
	ExportedAt   int64   `parquet:"exported_at,timestamp(millisecond)"` // Unix ms
}

// WriteTrend replaces the trend file for ticker and window with points.
// An empty ticker is written under domain.GlobalTicker.
func (e *ParquetExporter) WriteTrend(ticker string, w domain.TrendWindow, points []domain.TrendPoint, at time.Time) (string, error) {
	if domain.IsGlobalTicker(ticker) {
		ticker = domain.GlobalTicker
	}
	records := make([]TrendRecord, len(points))
	for i, p := range points {
		records[i] = TrendRecord{
			Ticker:     ticker,
			Window:     w.String(),
			Date:       p.Date,
			Sentiment:  p.Sentiment,
			ExportedAt: at.UnixMilli(),
		}
	}

	path := e.trendPath(ticker, w)
	if err := writeParquetFile(path, records); err != nil {
		return "", fmt.Errorf("writing trend for %s/%s: %w", ticker, w, err)
	}
	return path, nil
}

// ReadTrend reads a previously exported trend file.
func (e *ParquetExporter) ReadTrend(ticker string, w domain.TrendWindow) ([]TrendRecord, error) {
	if domain.IsGlobalTicker(ticker) {
		ticker = domain.GlobalTicker
	}
	return readParquetFile[TrendRecord](e.trendPath(ticker, w))
}

// WriteTopStocks writes the ranking snapshot for the date of at, replacing
// any earlier snapshot from the same day.
func (e *ParquetExporter) WriteTopStocks(stocks []domain.TopStock, at time.Time) (string, error) {
	records := make([]TopStockRecord, len(stocks))
	for i, s := range stocks {
		records[i] = TopStockRecord{
			Rank:         int32(i + 1),
			Ticker:       s.Ticker,
			Mentions:     s.Mentions,
			AvgSentiment: s.AvgSentiment,
			ExportedAt:   at.UnixMilli(),
		}
	}

	path := e.topStocksPath(at)
	if err := writeParquetFile(path, records); err != nil {
		return "", fmt.Errorf("writing top stocks: %w", err)
	}
	return path, nil
}

// ReadTopStocks reads the ranking snapshot for the date of at.
func (e *ParquetExporter) ReadTopStocks(at time.Time) ([]TopStockRecord, error) {
	return readParquetFile[TopStockRecord](e.topStocksPath(at))
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

// trendPath returns the filesystem path for a trend Parquet file.
// Layout: <Dir>/trends/<window>/<TICKER>.parquet, with the ticker
// path-escaped so distinct tickers never share a file.
func (e *ParquetExporter) trendPath(ticker string, w domain.TrendWindow) string {
	return filepath.Join(e.Dir, "trends", w.String(), url.PathEscape(ticker)+".parquet")
}

// topStocksPath returns the filesystem path for a top-stocks Parquet file.
// Layout: <Dir>/top-stocks/<YYYY-MM-DD>.parquet
func (e *ParquetExporter) topStocksPath(t time.Time) string {
	return filepath.Join(e.Dir, "top-stocks", t.UTC().Format("2006-01-02")+".parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
