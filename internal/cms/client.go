// Package cms is the Cosmic headless CMS client. Reads go to the objects
// query API and writes to the workers insert endpoint; every call runs
// through a circuit breaker, and reads are retried on transient failures.
package cms

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/tracing"
	"golang.org/x/sync/singleflight"
)

const maxResponseBytes = 16 << 20

type Config struct {
	APIURL        string
	WorkersURL    string
	BucketSlug    string
	ReadKey       string
	WriteKey      string
	Environment   string
	Timeout       time.Duration
	CoalesceReads bool
	Retry         resilience.RetryConfig
	Breaker       resilience.CircuitBreakerConfig
	HTTPClient    *http.Client
	Metrics       *metrics.Metrics
}

// ConfigFrom maps the file/env configuration onto a client Config.
func ConfigFrom(cfg config.CMSConfig, environment string) Config {
	return Config{
		APIURL:        cfg.APIURL,
		WorkersURL:    cfg.WorkersURL,
		BucketSlug:    cfg.BucketSlug,
		ReadKey:       cfg.ReadKey,
		WriteKey:      cfg.WriteKey,
		Environment:   environment,
		Timeout:       cfg.Timeout,
		CoalesceReads: cfg.CoalesceReads,
		Retry: resilience.RetryConfig{
			MaxAttempts:  cfg.RetryAttempts,
			InitialDelay: cfg.RetryDelay,
			MaxDelay:     2 * time.Second,
		},
		Breaker: resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.BreakerFails,
			ResetTimeout:     cfg.BreakerReset,
		},
	}
}

type Client struct {
	cfg     Config
	http    *http.Client
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.WorkersURL = strings.TrimRight(cfg.WorkersURL, "/")
	cfg.Retry.Retryable = transient

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		cfg:     cfg,
		http:    httpClient,
		metrics: cfg.Metrics,
		logger:  slog.Default().With("component", "cms-client", "bucket", cfg.BucketSlug),
	}

	breakerCfg := cfg.Breaker
	breakerCfg.IsFailure = countsAsFailure
	breakerCfg.OnStateChange = func(name string, _, to resilience.State) {
		if c.metrics != nil {
			c.metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		}
	}
	c.breaker = resilience.NewCircuitBreaker("cms", breakerCfg)
	if c.metrics != nil {
		c.metrics.CircuitBreakerState.WithLabelValues("cms").Set(0)
	}
	return c
}

// Configured reports whether the bucket slug and read key are present.
func (c *Client) Configured() bool {
	return c.cfg.BucketSlug != "" && c.cfg.ReadKey != ""
}

// BreakerState exposes the circuit breaker for readiness checks.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.GetState()
}

// HealthCheck reports the CMS as degraded while the breaker is not closed.
func (c *Client) HealthCheck(context.Context) health.ComponentHealth {
	if !c.Configured() {
		return health.ComponentHealth{Status: health.StatusDegraded, Message: "cms not configured"}
	}
	state := c.breaker.GetState()
	if state != resilience.StateClosed {
		return health.ComponentHealth{Status: health.StatusDegraded, Message: "circuit " + state.String()}
	}
	return health.ComponentHealth{Status: health.StatusUp}
}

func (c *Client) status() string {
	if c.cfg.Environment == "development" {
		return "any"
	}
	return "published"
}

// Find runs q against the objects endpoint. An empty match is reported by
// the CMS as 404 and surfaces as an error for which IsNotFound is true.
func (c *Client) Find(ctx context.Context, q Query) (*FindResult, error) {
	if !c.Configured() {
		return nil, apperrors.ErrNotConfigured
	}
	ctx, span := tracing.StartChildSpan(ctx, "cms.find")
	defer span.End()
	span.SetAttr("type", string(q.Type))

	params, err := q.encode(c.cfg.ReadKey, c.status())
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/v3/buckets/%s/objects?%s", c.cfg.APIURL, c.cfg.BucketSlug, params.Encode())

	body, err := c.read(ctx, endpoint)
	if err != nil {
		span.SetAttr("error", err.Error())
		return nil, err
	}
	var result FindResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding find response: %w", err)
	}
	span.SetAttr("total", result.Total)
	return &result, nil
}

// FindOne returns the first object matching q.
func (c *Client) FindOne(ctx context.Context, q Query) (json.RawMessage, error) {
	q.Limit = 1
	result, err := c.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(result.Objects) == 0 {
		return nil, newAPIError(http.StatusNotFound, "no objects found")
	}
	return result.Objects[0], nil
}

// InsertOne creates an object through the workers API. Inserts are never
// retried.
func (c *Client) InsertOne(ctx context.Context, req InsertRequest) (json.RawMessage, error) {
	if c.cfg.BucketSlug == "" || c.cfg.WriteKey == "" {
		return nil, apperrors.New(apperrors.ErrNotConfigured, http.StatusServiceUnavailable, "cms write key not configured")
	}
	ctx, span := tracing.StartChildSpan(ctx, "cms.insert")
	defer span.End()
	span.SetAttr("type", string(req.Type))

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding insert request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v3/buckets/%s/objects/insert-one", c.cfg.WorkersURL, c.cfg.BucketSlug)

	start := time.Now()
	var body []byte
	err = c.breaker.Execute(func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("building insert request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.WriteKey)
		body, err = c.do(httpReq)
		return err
	})
	c.observe("insert", start, err)
	err = breakerError(err)
	if err != nil {
		span.SetAttr("error", err.Error())
		c.logger.Error("insert failed", "type", req.Type, "error", err)
		return nil, err
	}

	var envelope struct {
		Object json.RawMessage `json:"object"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding insert response: %w", err)
	}
	return envelope.Object, nil
}

// read fetches endpoint, coalescing identical concurrent reads when enabled.
// Coalesced calls run on a context detached from any single caller so one
// cancelled request cannot fail the others.
func (c *Client) read(ctx context.Context, endpoint string) ([]byte, error) {
	if !c.cfg.CoalesceReads {
		return c.readOnce(ctx, endpoint)
	}
	sum := sha256.Sum256([]byte(endpoint))
	key := fmt.Sprintf("%x", sum[:16])
	v, err, shared := c.group.Do(key, func() (any, error) {
		return c.readOnce(context.WithoutCancel(ctx), endpoint)
	})
	if shared {
		c.logger.Debug("coalesced cms read", "key", key)
	}
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Client) readOnce(ctx context.Context, endpoint string) ([]byte, error) {
	start := time.Now()
	var body []byte
	err := c.breaker.Execute(func() error {
		return resilience.Retry(ctx, "cms.find", c.cfg.Retry, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return resilience.Permanent(fmt.Errorf("building find request: %w", err))
			}
			body, err = c.do(req)
			return err
		})
	})
	c.observe("find", start, err)
	return body, breakerError(err)
}

// breakerError marks an open circuit as an upstream failure.
func breakerError(err error) error {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return fmt.Errorf("%w: %w", apperrors.ErrUpstream, err)
	}
	return err
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return nil, resilience.Permanent(fmt.Errorf("cms request: %w", req.Context().Err()))
		}
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", apperrors.ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, errorMessage(body, resp.Status))
	}
	return body, nil
}

func errorMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return fallback
}

func (c *Client) observe(operation string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	status := "ok"
	switch {
	case err == nil:
	case IsNotFound(err):
		status = "not_found"
	case errors.Is(err, resilience.ErrCircuitOpen):
		status = "circuit_open"
	default:
		status = "error"
	}
	c.metrics.CMSRequestsTotal.WithLabelValues(operation, status).Inc()
	c.metrics.CMSRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
