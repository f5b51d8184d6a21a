package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"sentidash/internal/config"
	"sentidash/internal/httpapi"
	"sentidash/internal/store"
	"sentidash/internal/util"
)

func main() {
	_ = godotenv.Load()

	// Load config.
	cfgPath := "config/sentidash.yaml"
	if p := os.Getenv("SENTIDASH_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// Setup logging.
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Open store.
	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN, store.PoolOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer st.Close()

	backoff := util.Backoff{
		Attempts:  cfg.Database.ConnectAttempts,
		BaseDelay: cfg.Database.ConnectBackoff,
		MaxDelay:  30 * time.Second,
	}
	if err := util.Retry(ctx, logger, "database ping", backoff, st.Ping); err != nil {
		// The API still starts; /healthz reports the outage.
		logger.Warn("database not reachable at startup", "driver", cfg.Database.Driver, "error", err)
	}
	if cfg.Database.AutoMigrate {
		if err := st.EnsureSchema(ctx); err != nil {
			log.Fatalf("ensuring schema: %v", err)
		}
		logger.Info("schema ensured", "driver", cfg.Database.Driver)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv := httpapi.NewDashboardServer(st, logger, httpapi.Options{
		TopStocksLimit: cfg.Server.TopStocksLimit,
		StaticDir:      cfg.Server.StaticDir,
		Registry:       reg,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("sentidash server listening", "addr", httpServer.Addr, "driver", cfg.Database.Driver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down sentidash server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("HTTP server error", "error", err)
		st.Close()
		os.Exit(1)
	}
}
