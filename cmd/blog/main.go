// Command blog starts the blog web server.
//
// It renders the public pages from the Cosmic CMS bucket, serves the search
// API used by the header typeahead, and hosts the session-gated admin
// dashboard for creating posts. Search and post-creation events are shipped
// to Kafka when it is enabled; admin sessions live in memory, Redis or
// PostgreSQL depending on session.backend.
//
// Usage:
//
//	go run ./cmd/blog [-config configs/development.yaml]
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
	"time"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/auth/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/cms"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/content"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/search"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/session"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/web"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting blog",
		"port", cfg.Server.Port,
		"environment", cfg.Server.Environment,
		"bucket", cfg.CMS.BucketSlug,
		"session_backend", cfg.Session.Backend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
		shutdownMetrics := m.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	checker := health.NewChecker()

	// CMS client → content repository.
	cmsCfg := cms.ConfigFrom(cfg.CMS, cfg.Server.Environment)
	cmsCfg.Metrics = m
	client := cms.New(cmsCfg)
	if !client.Configured() {
		slog.Warn("cms bucket or read key missing; pages will render empty")
	}
	checker.Register("cms", client.HealthCheck)
	repo := content.NewRepository(client)

	// Analytics: only when Kafka is enabled. A nil tracker turns tracking off.
	var tracker search.Tracker
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, cfg.Analytics.BufferSize)
		collector.Start(ctx)
		defer collector.Close()
		tracker = collector
		checker.Register("kafka", health.Static(health.StatusUp, "producer active"))
		slog.Info("analytics enabled", "topic", cfg.Kafka.Topics.AnalyticsEvents)
	}

	searchSvc := search.NewService(repo, search.Options{
		MinQueryLength: cfg.Search.MinQueryLength,
		Timeout:        cfg.Search.Timeout,
		Tracker:        tracker,
		Metrics:        m,
	})

	// Admin sessions.
	store, closeStore, err := openSessionStore(ctx, cfg, checker)
	if err != nil {
		slog.Error("failed to open session store", "backend", cfg.Session.Backend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	creds, err := session.CredentialsFrom(cfg.Auth)
	if err != nil {
		slog.Error("invalid admin credentials", "error", err)
		os.Exit(1)
	}
	if !creds.Configured() {
		slog.Warn("admin credentials not configured; dashboard login is disabled")
	}
	sessions := session.NewManager(creds, store, cfg.Session.TTL)

	limiter := ratelimit.New(cfg.Auth.LoginRateLimit, time.Minute)
	defer limiter.Close()

	srv, err := web.NewServer(web.Options{
		Content:        repo,
		Search:         searchSvc,
		Sessions:       sessions,
		LoginLimiter:   limiter,
		Health:         checker,
		Tracker:        tracker,
		Metrics:        m,
		CookieName:     cfg.Session.CookieName,
		SecureCookies:  cfg.Server.IsProduction(),
		AllowOrigins:   cfg.Server.AllowOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		Tracing:        cfg.Tracing.Enabled,
		DropdownLimit:  cfg.Search.DropdownLimit,
		Debounce:       cfg.Search.Debounce,
	})
	if err != nil {
		slog.Error("failed to build web server", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// In-flight handlers may still Track events; the collector is closed
	// only after Shutdown has drained them.
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("blog listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-drained

	slog.Info("blog stopped")
}

// openSessionStore connects the configured session backend and registers its
// readiness check. The returned func releases the connection.
func openSessionStore(ctx context.Context, cfg *config.Config, checker *health.Checker) (session.Store, func(), error) {
	switch cfg.Session.Backend {
	case "redis":
		rdb, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		checker.Register("redis", health.PingCheck(rdb.Ping, health.StatusDown))
		slog.Info("connected to redis", "addr", cfg.Redis.Addr)
		return session.NewRedisStore(rdb), func() { rdb.Close() }, nil

	case "postgres":
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		store := session.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		checker.Register("postgres", health.PingCheck(db.Ping, health.StatusDown))
		go purgeExpiredSessions(ctx, store, time.Hour)
		slog.Info("connected to postgres", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		return store, func() { db.Close() }, nil

	default:
		return session.NewMemoryStore(), func() {}, nil
	}
}

func purgeExpiredSessions(ctx context.Context, store *session.PostgresStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				slog.Error("purging expired sessions failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("purged expired sessions", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
