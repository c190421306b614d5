// Command analytics starts the standalone analytics aggregation service.
//
// It consumes the blog's search and post-creation events from Kafka,
// aggregates them in memory (search volume, latency percentiles, top and
// zero-result queries, recent posts), optionally snapshots the counters to
// PostgreSQL, and exposes them at GET /api/v1/analytics.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml] [-snapshots]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/postgres"
)

// main boots the analytics service: a Kafka consumer feeding the in-memory
// aggregator, the optional snapshot store, a health checker and the HTTP API.
// Graceful shutdown is triggered by SIGINT/SIGTERM.
func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	withSnapshots := flag.Bool("snapshots", true, "persist periodic snapshots to PostgreSQL")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting analytics service", "port", cfg.Analytics.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := health.NewChecker()

	agg := analytics.NewAggregator()
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, analytics.HandleEvent(agg))
	defer consumer.Close()

	go func() {
		if err := agg.Consume(ctx, consumer); err != nil {
			slog.Error("aggregator error", "error", err)
		}
	}()
	slog.Info("analytics aggregator started", "topic", cfg.Kafka.Topics.AnalyticsEvents)
	checker.Register("kafka", health.Static(health.StatusUp, "consumer active"))

	// Snapshots are optional: without PostgreSQL the service still serves
	// live stats.
	var snapshots analytics.SnapshotLister
	if *withSnapshots && cfg.Analytics.SnapshotInterval > 0 {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, snapshots disabled", "error", err)
			checker.Register("postgres", health.Static(health.StatusDegraded, "snapshots disabled"))
		} else {
			defer db.Close()
			store := aggregator.NewStore(db)
			if err := store.EnsureSchema(ctx); err != nil {
				slog.Error("failed to create snapshot schema", "error", err)
				os.Exit(1)
			}
			store.StartPeriodicSave(ctx, agg, cfg.Analytics.SnapshotInterval)
			snapshots = store
			checker.Register("postgres", health.PingCheck(db.Ping, health.StatusDegraded))
		}
	}

	analyticsHandler := analytics.NewHandler(agg, snapshots)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", analyticsHandler.Stats)
	mux.HandleFunc("GET /api/v1/analytics/snapshots", analyticsHandler.Snapshots)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Analytics.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("analytics service stopped")
}
