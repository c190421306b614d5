// Package config loads and validates application configuration from YAML files
// with .env and environment-variable overrides. It provides typed structs for
// every subsystem (Server, CMS, Auth, Session, Redis, Postgres, Kafka, Search,
// etc.).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	CMS       CMSConfig       `yaml:"cms"`
	Auth      AuthConfig      `yaml:"auth"`
	Session   SessionConfig   `yaml:"session"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Search    SearchConfig    `yaml:"search"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	Environment     string        `yaml:"environment"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	AllowOrigins    []string      `yaml:"allowOrigins"`
}

// IsProduction reports whether the server runs with production settings
// (secure cookies, published-only content).
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// CMSConfig identifies the Cosmic bucket and its API credentials.
type CMSConfig struct {
	APIURL        string        `yaml:"apiUrl"`
	WorkersURL    string        `yaml:"workersUrl"`
	BucketSlug    string        `yaml:"bucketSlug"`
	ReadKey       string        `yaml:"readKey"`
	WriteKey      string        `yaml:"writeKey"`
	Timeout       time.Duration `yaml:"timeout"`
	CoalesceReads bool          `yaml:"coalesceReads"`
	RetryAttempts int           `yaml:"retryAttempts"`
	RetryDelay    time.Duration `yaml:"retryDelay"`
	BreakerFails  int           `yaml:"breakerFailures"`
	BreakerReset  time.Duration `yaml:"breakerReset"`
}

// AuthConfig holds the admin credentials. AdminPasswordHash is a bcrypt hash;
// AdminPassword is accepted for local development and hashed at startup.
type AuthConfig struct {
	AdminEmail        string `yaml:"adminEmail"`
	AdminPassword     string `yaml:"adminPassword"`
	AdminPasswordHash string `yaml:"adminPasswordHash"`
	LoginRateLimit    int    `yaml:"loginRateLimit"`
}

// SessionConfig selects the admin session backend and cookie lifetime.
type SessionConfig struct {
	Backend    string        `yaml:"backend"`
	CookieName string        `yaml:"cookieName"`
	TTL        time.Duration `yaml:"ttl"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	AnalyticsEvents string `yaml:"analyticsEvents"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	PoolSize  int    `yaml:"poolSize"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// SearchConfig controls the search endpoint and the typeahead dropdown.
type SearchConfig struct {
	MinQueryLength int           `yaml:"minQueryLength"`
	DropdownLimit  int           `yaml:"dropdownLimit"`
	Debounce       time.Duration `yaml:"debounce"`
	Timeout        time.Duration `yaml:"timeout"`
}

// AnalyticsConfig controls the in-process event buffer and the analytics
// service. A zero SnapshotInterval disables Postgres snapshots.
type AnalyticsConfig struct {
	BufferSize       int           `yaml:"bufferSize"`
	Port             int           `yaml:"port"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig toggles per-request span trees in the logs.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	SampleRate float64 `yaml:"sampleRate"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads an optional .env file, a YAML config file (if provided) and
// applies environment-variable overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reading config file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	switch c.Session.Backend {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("session.backend must be memory, redis or postgres, got %q", c.Session.Backend)
	}
	if c.Search.MinQueryLength < 2 {
		return fmt.Errorf("search.minQueryLength must be at least 2, got %d", c.Search.MinQueryLength)
	}
	if c.Search.DropdownLimit < 1 {
		return fmt.Errorf("search.dropdownLimit must be positive")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3000,
			Environment:     "development",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  20 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			AllowOrigins:    []string{"*"},
		},
		CMS: CMSConfig{
			APIURL:        "https://api.cosmicjs.com",
			WorkersURL:    "https://workers.cosmicjs.com",
			Timeout:       10 * time.Second,
			CoalesceReads: true,
			RetryAttempts: 3,
			RetryDelay:    200 * time.Millisecond,
			BreakerFails:  5,
			BreakerReset:  30 * time.Second,
		},
		Auth: AuthConfig{
			AdminEmail:     "admin@test.com",
			LoginRateLimit: 10,
		},
		Session: SessionConfig{
			Backend:    "memory",
			CookieName: "admin-session",
			TTL:        7 * 24 * time.Hour,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "blog",
			User:            "blog",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Enabled:       false,
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "blog-analytics",
			Topics: KafkaTopics{
				AnalyticsEvents: "analytics.events",
			},
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			PoolSize:  10,
			KeyPrefix: "blog:",
		},
		Search: SearchConfig{
			MinQueryLength: 2,
			DropdownLimit:  5,
			Debounce:       300 * time.Millisecond,
			Timeout:        10 * time.Second,
		},
		Analytics: AnalyticsConfig{
			BufferSize:       10000,
			Port:             8090,
			SnapshotInterval: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads COSMIC_* and BLOG_* environment variables and
// overrides the corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("COSMIC_BUCKET_SLUG"); v != "" {
		cfg.CMS.BucketSlug = v
	}
	if v := os.Getenv("COSMIC_READ_KEY"); v != "" {
		cfg.CMS.ReadKey = v
	}
	if v := os.Getenv("COSMIC_WRITE_KEY"); v != "" {
		cfg.CMS.WriteKey = v
	}
	if v := os.Getenv("BLOG_CMS_API_URL"); v != "" {
		cfg.CMS.APIURL = v
	}
	if v := os.Getenv("BLOG_CMS_WORKERS_URL"); v != "" {
		cfg.CMS.WorkersURL = v
	}
	if v := os.Getenv("BLOG_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("BLOG_ENV"); v != "" {
		cfg.Server.Environment = v
	}
	if v := os.Getenv("BLOG_ADMIN_EMAIL"); v != "" {
		cfg.Auth.AdminEmail = v
	}
	if v := os.Getenv("BLOG_ADMIN_PASSWORD"); v != "" {
		cfg.Auth.AdminPassword = v
	}
	if v := os.Getenv("BLOG_ADMIN_PASSWORD_HASH"); v != "" {
		cfg.Auth.AdminPasswordHash = v
	}
	if v := os.Getenv("BLOG_SESSION_BACKEND"); v != "" {
		cfg.Session.Backend = v
	}
	if v := os.Getenv("BLOG_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("BLOG_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("BLOG_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("BLOG_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("BLOG_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("BLOG_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
		cfg.Kafka.Enabled = true
	}
	if v := os.Getenv("BLOG_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("BLOG_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("BLOG_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BLOG_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
