// Command stats runs the hit collection and view aggregation service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/event-participation/internal/config"
	"github.com/Shivanand-hulikatti/event-participation/internal/database"
	"github.com/Shivanand-hulikatti/event-participation/internal/handler"
	"github.com/Shivanand-hulikatti/event-participation/internal/metrics"
	"github.com/Shivanand-hulikatti/event-participation/internal/stats"
)

func main() {
	if err := run(); err != nil {
		slog.Error("stats service exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadStats()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := stats.NewService(store,
		stats.WithLogger(logger),
		stats.WithMetrics(m),
		stats.WithQueryTimeout(cfg.QueryTimeout),
	)
	router := handler.StatsRouter(handler.NewStatsHandler(svc, logger), logger)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("stats service listening", "addr", srv.Addr, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down stats service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Stats, logger *slog.Logger) (stats.Store, func(), error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("using in-memory hit storage; data is lost on restart")
		return stats.NewMemoryStore(), func() {}, nil
	}

	db, err := database.OpenSQL(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	if err := database.MigrateStats(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return stats.NewPostgresStore(db), func() { _ = db.Close() }, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
