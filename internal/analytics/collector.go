package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/kafka"
)

// Publisher is the subset of *kafka.Producer the collector needs.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Collector buffers events in a channel and publishes them in batches from a
// single goroutine. Track never blocks: when the buffer is full the event is
// dropped.
type Collector struct {
	publisher     Publisher
	eventCh       chan Typed
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	done          chan struct{}
}

func NewCollector(publisher Publisher, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		publisher:     publisher,
		eventCh:       make(chan Typed, bufferSize),
		batchSize:     100,
		flushInterval: time.Second,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start launches the publish loop. It flushes when a batch fills up, on every
// flush interval, and when ctx is cancelled. Cancelling ctx does not stop the
// loop: events tracked afterwards are still published, and only Close ends it
// with a final flush.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()

		batch := make([]kafka.Event, 0, c.batchSize)
		flush := func(ctx context.Context) {
			if len(batch) == 0 {
				return
			}
			if err := c.publisher.PublishBatch(ctx, batch); err != nil {
				c.logger.Error("failed to publish analytics batch", "events", len(batch), "error", err)
			}
			batch = batch[:0]
		}

		pubCtx := ctx
		cancelled := ctx.Done()
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					c.finalFlush(flush)
					return
				}
				batch = append(batch, kafka.Event{Key: string(event.EventType()), Value: event})
				if len(batch) >= c.batchSize {
					flush(pubCtx)
				}
			case <-ticker.C:
				flush(pubCtx)
			case <-cancelled:
				c.drainRemaining(&batch)
				c.finalFlush(flush)
				pubCtx = context.WithoutCancel(ctx)
				cancelled = nil
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

// Track enqueues event without blocking.
func (c *Collector) Track(event Typed) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)", "type", event.EventType())
	}
}

// Close stops the publish loop and waits for the final flush. Track must not
// be called after Close.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) finalFlush(flush func(context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	flush(ctx)
}

func (c *Collector) drainRemaining(batch *[]kafka.Event) {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			*batch = append(*batch, kafka.Event{Key: string(event.EventType()), Value: event})
		default:
			return
		}
	}
}
