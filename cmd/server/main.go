// Command server runs the main event participation API.
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

	"github.com/Shivanand-hulikatti/event-participation/internal/cache"
	"github.com/Shivanand-hulikatti/event-participation/internal/config"
	"github.com/Shivanand-hulikatti/event-participation/internal/database"
	"github.com/Shivanand-hulikatti/event-participation/internal/handler"
	"github.com/Shivanand-hulikatti/event-participation/internal/metrics"
	"github.com/Shivanand-hulikatti/event-participation/internal/repository"
	"github.com/Shivanand-hulikatti/event-participation/internal/service"
	"github.com/Shivanand-hulikatti/event-participation/internal/statsclient"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServer()
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

	// ── 1. Storage ────────────────────────────────────────────────────────
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// ── 2. Stats client, view cache and hit recorder ─────────────────────
	client := statsclient.New(cfg.Stats.URL,
		statsclient.WithTimeout(cfg.Stats.Timeout),
		statsclient.WithBreaker(statsclient.NewCircuitBreaker(cfg.Stats.BreakerThreshold, cfg.Stats.BreakerCooldown)),
		statsclient.WithMetrics(m),
		statsclient.WithLogger(logger),
	)
	var views service.ViewSource = client
	rdb, err := cache.NewRedis(ctx, cfg.Redis)
	switch {
	case err != nil:
		logger.Warn("view cache disabled", "error", err)
	case rdb != nil:
		defer rdb.Close()
		views = cache.NewViews(client, rdb, cfg.Redis.ViewCacheTTL, cache.WithMetrics(m), cache.WithLogger(logger))
		logger.Info("view cache enabled", "ttl", cfg.Redis.ViewCacheTTL)
	}
	recorder := statsclient.NewRecorder(client, cfg.Stats.HitBuffer,
		statsclient.WithSendTimeout(cfg.Stats.Timeout),
		statsclient.WithRecorderMetrics(m),
		statsclient.WithRecorderLogger(logger),
	)

	// ── 3. Services and handlers ─────────────────────────────────────────
	opts := []service.Option{
		service.WithLogger(logger),
		service.WithMetrics(m),
		service.WithTimeout(cfg.OpTimeout),
		service.WithViewTimeout(cfg.Stats.Timeout),
	}
	stats := service.NewStatsAssembler(views, store, opts...)

	router := handler.MainAPI{
		Users:    handler.NewUserHandler(service.NewUserService(store, opts...), logger),
		Events:   handler.NewEventHandler(service.NewEventService(store, stats, opts...), logger),
		Requests: handler.NewRequestHandler(service.NewParticipationService(store, opts...), logger),
		Hits:     recorder,
		AppName:  cfg.AppName,
		Logger:   logger,
	}.Router()
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// ── 4. Serve with graceful shutdown ──────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// no handler can record a hit once Shutdown returns
		if rerr := recorder.Close(shutdownCtx); rerr != nil {
			logger.Warn("pending hits not delivered", "error", rerr)
		}
		return err
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Server, logger *slog.Logger) (service.Store, func(), error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		return repository.NewMemory(), func() {}, nil
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return repository.NewPostgres(pool), pool.Close, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
