// One-shot tool: snapshot sentiment trends and the top-stocks ranking into
// Parquet files under export.data_dir.
//
// Usage:
//
//	go run ./cmd/sentidash-export
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"sentidash/internal/config"
	"sentidash/internal/domain"
	"sentidash/internal/store"
	"sentidash/internal/util"
)

func main() {
	_ = godotenv.Load()

	cfgPath := "config/sentidash.yaml"
	if p := os.Getenv("SENTIDASH_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, "text")
	util.SetDefault(logger)

	windows := make([]domain.TrendWindow, 0, len(cfg.Export.Windows))
	for _, w := range cfg.Export.Windows {
		tw, err := domain.ParseTrendWindow(w)
		if err != nil {
			log.Fatalf("export window %q: %v", w, err)
		}
		windows = append(windows, tw)
	}

	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN, store.PoolOptions{
		MaxOpenConns: cfg.Export.Concurrency,
	})
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	exp := store.NewParquetExporter(cfg.Export.DataDir)
	wrote, err := export(ctx, st, exp, windows, cfg.Server.TopStocksLimit, cfg.Export.Concurrency, time.Now(), logger)
	if err != nil {
		log.Fatalf("error: %v", err)
	}
	slog.Info("export complete", "dir", cfg.Export.DataDir, "files", wrote)
}

// export writes one trend file per (ticker, window) including the Global
// aggregate, then the top-stocks snapshot. It returns the number of files
// written.
func export(ctx context.Context, st store.SentimentStore, exp *store.ParquetExporter, windows []domain.TrendWindow, topLimit, concurrency int, now time.Time, logger *slog.Logger) (int, error) {
	tickers, err := st.ListTickers(ctx)
	if err != nil {
		return 0, err
	}
	targets := []string{domain.GlobalTicker}
	for _, t := range tickers {
		// An asset named like the sentinel would query and overwrite the aggregate.
		if domain.IsGlobalTicker(t) {
			logger.Warn("skipping ticker that collides with the global aggregate", "ticker", t)
			continue
		}
		targets = append(targets, t)
	}

	paths := make([][]string, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, ticker := range targets {
		g.Go(func() error {
			for _, w := range windows {
				points, err := st.Trends(gctx, store.TrendQuery{Window: w, Ticker: ticker})
				if err != nil {
					return err
				}
				path, err := exp.WriteTrend(ticker, w, points, now)
				if err != nil {
					return err
				}
				logger.Debug("trend exported", "ticker", ticker, "window", w.String(), "days", len(points), "path", path)
				paths[i] = append(paths[i], path)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	wrote := 0
	for _, p := range paths {
		wrote += len(p)
	}

	top, err := st.TopStocks(ctx, topLimit)
	if err != nil {
		return wrote, err
	}
	path, err := exp.WriteTopStocks(top, now)
	if err != nil {
		return wrote, err
	}
	logger.Info("top stocks exported", "rows", len(top), "path", path)
	return wrote + 1, nil
}
