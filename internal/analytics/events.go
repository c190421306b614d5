// Package analytics records what readers search for and what editors publish.
// The blog tracks events through a Collector that publishes them to Kafka;
// the analytics service consumes them into an in-memory Aggregator.
package analytics

import (
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/kafka"
)

type EventType string

const (
	EventSearch      EventType = "search"
	EventPostCreated EventType = "post_created"
)

// Search sources.
const (
	SourceAPI  = "api"
	SourcePage = "page"
)

type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	MatchKey  string    `json:"match_key"`
	Total     int       `json:"total"`
	Short     bool      `json:"short,omitempty"`
	LatencyMs int64     `json:"latency_ms"`
	Source    string    `json:"source"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

type PostCreatedEvent struct {
	Type      EventType `json:"type"`
	PostID    string    `json:"post_id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Typed is implemented by every event so the collector can key messages by
// event type.
type Typed interface {
	EventType() EventType
}

func (e SearchEvent) EventType() EventType      { return EventSearch }
func (e PostCreatedEvent) EventType() EventType { return EventPostCreated }

// decodeEvent picks the concrete event type from the "type" field.
func decodeEvent(value []byte) (Typed, error) {
	head, err := kafka.DecodeJSON[struct {
		Type EventType `json:"type"`
	}](value)
	if err != nil {
		return nil, err
	}
	switch head.Type {
	case EventSearch:
		e, err := kafka.DecodeJSON[SearchEvent](value)
		return e, err
	case EventPostCreated:
		e, err := kafka.DecodeJSON[PostCreatedEvent](value)
		return e, err
	default:
		return nil, fmt.Errorf("unknown event type %q", head.Type)
	}
}
