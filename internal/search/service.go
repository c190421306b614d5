package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/model"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/tracing"
)

// CorpusSource supplies the full, current set of posts.
type CorpusSource interface {
	ListPosts(ctx context.Context) ([]model.Post, error)
}

// Tracker receives one analytics event per search.
type Tracker interface {
	Track(event analytics.Typed)
}

type Options struct {
	MinQueryLength int
	Timeout        time.Duration
	Tracker        Tracker
	Metrics        *metrics.Metrics
}

// Service runs searches against a fresh copy of the corpus each time.
type Service struct {
	source  CorpusSource
	minLen  int
	timeout time.Duration
	tracker Tracker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(source CorpusSource, opts Options) *Service {
	// The minimum can be raised but never lowered below two characters.
	if opts.MinQueryLength < MinQueryLength {
		opts.MinQueryLength = MinQueryLength
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Service{
		source:  source,
		minLen:  opts.MinQueryLength,
		timeout: opts.Timeout,
		tracker: opts.Tracker,
		metrics: opts.Metrics,
		logger:  slog.Default().With("component", "search"),
	}
}

// MinQueryLength is the configured minimum trimmed query length.
func (s *Service) MinQueryLength() int {
	return s.minLen
}

// Search answers raw. A query that is too short returns an empty result
// without touching the corpus. source labels the caller ("api" or "page")
// for metrics and analytics.
func (s *Service) Search(ctx context.Context, raw, source string) (Result, error) {
	start := time.Now()
	query := strings.TrimSpace(raw)
	key, ok := normalize(raw, s.minLen)
	if !ok {
		s.record(ctx, analytics.SearchEvent{Query: query, Short: true, Source: source}, start, "short")
		return emptyResult(query), nil
	}

	ctx, span := tracing.StartChildSpan(ctx, "search")
	defer span.End()
	span.SetAttr("match_key", key)

	posts, err := resilience.WithTimeout(ctx, s.timeout, "search.corpus", s.source.ListPosts)
	if err != nil {
		span.SetAttr("error", err.Error())
		logger.FromContext(ctx).Error("search corpus fetch failed", "query", query, "error", err)
		s.record(ctx, analytics.SearchEvent{Query: query, MatchKey: key, Source: source, Error: err.Error()}, start, "error")
		return emptyResult(query), fmt.Errorf("loading search corpus: %w", err)
	}

	result := searchKey(posts, query, key)
	span.SetAttr("total", result.Total)

	outcome := "hit"
	if result.Total == 0 {
		outcome = "zero_result"
	}
	s.record(ctx, analytics.SearchEvent{Query: query, MatchKey: key, Total: result.Total, Source: source}, start, outcome)
	logger.FromContext(ctx).Info("search completed",
		"query", query,
		"corpus", len(posts),
		"total", result.Total,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (s *Service) record(ctx context.Context, event analytics.SearchEvent, start time.Time, outcome string) {
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.SearchQueriesTotal.WithLabelValues(outcome, event.Source).Inc()
		if outcome == "hit" || outcome == "zero_result" {
			s.metrics.SearchLatency.Observe(elapsed.Seconds())
			s.metrics.SearchResultsCount.Observe(float64(event.Total))
		}
	}
	if s.tracker == nil {
		return
	}
	event.Type = analytics.EventSearch
	event.LatencyMs = elapsed.Milliseconds()
	event.Timestamp = time.Now().UTC()
	event.RequestID = middleware.GetRequestID(ctx)
	s.tracker.Track(event)
}
