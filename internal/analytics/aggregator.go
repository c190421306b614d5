package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/kafka"
)

const maxLatencySamples = 10000

type AggregatedStats struct {
	TotalSearches     int64        `json:"total_searches"`
	ZeroResultCount   int64        `json:"zero_result_count"`
	ShortQueryCount   int64        `json:"short_query_count"`
	ErrorCount        int64        `json:"error_count"`
	APISearches       int64        `json:"api_searches"`
	PageSearches      int64        `json:"page_searches"`
	PostsCreated      int64        `json:"posts_created"`
	AvgLatencyMs      float64      `json:"avg_latency_ms"`
	P50LatencyMs      int64        `json:"p50_latency_ms"`
	P95LatencyMs      int64        `json:"p95_latency_ms"`
	P99LatencyMs      int64        `json:"p99_latency_ms"`
	TopQueries        []QueryCount `json:"top_queries"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries"`
	RecentPosts       []string     `json:"recent_posts"`
	QueriesPerMinute  float64      `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator folds events into running counters. Queries are counted by
// their match key so "Go " and "go" land in the same bucket.
type Aggregator struct {
	mu                sync.RWMutex
	stats             AggregatedStats
	latencies         []int64
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	recentPosts       []string
	startTime         time.Time

	logger *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:         make([]int64, 0, 1024),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		startTime:         time.Now(),
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// Consume feeds the aggregator from consumer until ctx is cancelled. The
// consumer must have been built with HandleEvent(a).
func (a *Aggregator) Consume(ctx context.Context, consumer *kafka.Consumer) error {
	a.logger.Info("analytics aggregator starting")
	return consumer.Start(ctx)
}

// HandleEvent returns the Kafka message handler feeding agg. Undecodable
// messages are logged and skipped so they are still committed.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := decodeEvent(value)
		if err != nil {
			agg.logger.Error("failed to decode analytics event", "key", string(key), "error", err)
			return nil
		}
		agg.Record(event)
		return nil
	}
}

// Record folds one event into the counters.
func (a *Aggregator) Record(event Typed) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch e := event.(type) {
	case SearchEvent:
		a.recordSearch(e)
	case PostCreatedEvent:
		a.stats.PostsCreated++
		a.recentPosts = append(a.recentPosts, e.Slug)
		if len(a.recentPosts) > 10 {
			a.recentPosts = a.recentPosts[len(a.recentPosts)-10:]
		}
	}
}

func (a *Aggregator) recordSearch(e SearchEvent) {
	a.stats.TotalSearches++
	switch e.Source {
	case SourceAPI:
		a.stats.APISearches++
	case SourcePage:
		a.stats.PageSearches++
	}
	switch {
	case e.Short:
		a.stats.ShortQueryCount++
		return
	case e.Error != "":
		a.stats.ErrorCount++
		return
	}

	if len(a.latencies) >= maxLatencySamples {
		a.latencies = a.latencies[1:]
	}
	a.latencies = append(a.latencies, e.LatencyMs)
	a.queryCounts[e.MatchKey]++
	if e.Total == 0 {
		a.stats.ZeroResultCount++
		a.zeroResultQueries[e.MatchKey]++
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := a.stats
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, 10)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, 10)
	stats.RecentPosts = append([]string{}, a.recentPosts...)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count, then query, so ties are deterministic.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

// Snapshot is a point-in-time copy of the stats.
type Snapshot struct {
	Stats      AggregatedStats `json:"stats"`
	CapturedAt time.Time       `json:"captured_at"`
}
