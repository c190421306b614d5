package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.Event
}

func (p *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *fakePublisher) snapshot() []kafka.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]kafka.Event(nil), p.events...)
}

func TestCollectorFlushesOnClose(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 10)
	c.Start(context.Background())

	c.Track(SearchEvent{Type: EventSearch, Query: "go", MatchKey: "go", Total: 2})
	c.Track(PostCreatedEvent{Type: EventPostCreated, Slug: "hello"})
	c.Close()

	events := pub.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, "search", events[0].Key)
	assert.Equal(t, "post_created", events[1].Key)
}

func TestCollectorFlushesOnCancel(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 10)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	c.Track(SearchEvent{Type: EventSearch, Query: "go"})
	cancel()
	assert.Eventually(t, func() bool { return len(pub.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	c.Close()
	assert.Len(t, pub.snapshot(), 1)
}

func TestCollectorPublishesEventsTrackedAfterCancel(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 10)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	c.Track(SearchEvent{Type: EventSearch, Query: "go"})
	cancel()
	require.Eventually(t, func() bool { return len(pub.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	// Handlers still draining after the shutdown signal keep tracking.
	c.Track(SearchEvent{Type: EventSearch, Query: "late"})
	c.Close()

	events := pub.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, "late", events[1].Value.(SearchEvent).Query)
}

func TestCollectorDropsWhenFull(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 1)
	c.Track(SearchEvent{Query: "a"})
	c.Track(SearchEvent{Query: "b"})
	assert.Len(t, c.eventCh, 1)
}

func TestAggregatorStats(t *testing.T) {
	agg := NewAggregator()
	agg.Record(SearchEvent{Query: "Go", MatchKey: "go", Total: 2, LatencyMs: 10, Source: SourceAPI})
	agg.Record(SearchEvent{Query: "go ", MatchKey: "go", Total: 2, LatencyMs: 30, Source: SourcePage})
	agg.Record(SearchEvent{Query: "xyz", MatchKey: "xyz", Total: 0, LatencyMs: 20, Source: SourceAPI})
	agg.Record(SearchEvent{Query: "x", Short: true, Source: SourceAPI})
	agg.Record(SearchEvent{Query: "rust", MatchKey: "rust", Error: "upstream", Source: SourceAPI})
	agg.Record(PostCreatedEvent{Slug: "hello"})

	stats := agg.Stats()
	assert.EqualValues(t, 5, stats.TotalSearches)
	assert.EqualValues(t, 4, stats.APISearches)
	assert.EqualValues(t, 1, stats.PageSearches)
	assert.EqualValues(t, 1, stats.ZeroResultCount)
	assert.EqualValues(t, 1, stats.ShortQueryCount)
	assert.EqualValues(t, 1, stats.ErrorCount)
	assert.EqualValues(t, 1, stats.PostsCreated)
	assert.InDelta(t, 20.0, stats.AvgLatencyMs, 0.001)
	assert.Equal(t, []QueryCount{{Query: "go", Count: 2}, {Query: "xyz", Count: 1}}, stats.TopQueries)
	assert.Equal(t, []QueryCount{{Query: "xyz", Count: 1}}, stats.ZeroResultQueries)
	assert.Equal(t, []string{"hello"}, stats.RecentPosts)
}

func TestHandleEventDecodesByType(t *testing.T) {
	agg := NewAggregator()
	handle := HandleEvent(agg)

	search, _ := json.Marshal(SearchEvent{Type: EventSearch, MatchKey: "go", Total: 1, Timestamp: time.Now()})
	created, _ := json.Marshal(PostCreatedEvent{Type: EventPostCreated, Slug: "s"})
	require.NoError(t, handle(context.Background(), []byte("search"), search))
	require.NoError(t, handle(context.Background(), []byte("post_created"), created))
	require.NoError(t, handle(context.Background(), nil, []byte(`{"type":"mystery"}`)))
	require.NoError(t, handle(context.Background(), nil, []byte(`not json`)))

	stats := agg.Stats()
	assert.EqualValues(t, 1, stats.TotalSearches)
	assert.EqualValues(t, 1, stats.PostsCreated)
}

type fakeSnapshots struct{ snaps []Snapshot }

func (f fakeSnapshots) ListSnapshots(_ context.Context, limit int) ([]Snapshot, error) {
	if limit < len(f.snaps) {
		return f.snaps[:limit], nil
	}
	return f.snaps, nil
}

func TestHandler(t *testing.T) {
	agg := NewAggregator()
	agg.Record(SearchEvent{MatchKey: "go", Total: 1})

	h := NewHandler(agg, nil)
	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats AggregatedStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.EqualValues(t, 1, stats.TotalSearches)

	rec = httptest.NewRecorder()
	h.Snapshots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h = NewHandler(agg, fakeSnapshots{snaps: []Snapshot{{}, {}, {}}})
	rec = httptest.NewRecorder()
	h.Snapshots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Snapshots []Snapshot `json:"snapshots"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Snapshots, 2)

	rec = httptest.NewRecorder()
	h.Snapshots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
