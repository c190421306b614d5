// Package postgrestest opens a test database from TEST_POSTGRES_* variables
// and skips the calling test when none is available.
package postgrestest

import (
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/postgres"
)

// Open connects to the test database or skips t.
func Open(t testing.TB) *postgres.Client {
	t.Helper()
	host := os.Getenv("TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("skipping: TEST_POSTGRES_HOST not set")
	}
	db, err := postgres.New(Config(host))
	if err != nil {
		t.Skipf("skipping: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func Config(host string) config.PostgresConfig {
	return config.PostgresConfig{
		Host:            host,
		Port:            envInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOr("TEST_POSTGRES_DB", "blog_test"),
		User:            envOr("TEST_POSTGRES_USER", "blog"),
		Password:        envOr("TEST_POSTGRES_PASSWORD", "blog"),
		SSLMode:         "disable",
		MaxOpenConns:    4,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
