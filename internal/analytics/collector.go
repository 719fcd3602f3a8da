// Package analytics publishes search and index events to Kafka. Events are
// buffered and flushed in batches; a full buffer drops events rather than
// slowing down queries.
package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/kafka"
)

// Publisher writes a batch of events. *kafka.Producer satisfies it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Options tunes a Collector. Zero values select the defaults.
type Options struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// Collector buffers events and publishes them from a background goroutine.
// A nil *Collector accepts and discards events, so callers never need to
// check whether analytics is enabled.
type Collector struct {
	pub           Publisher
	events        chan kafka.Event
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger

	mu      sync.RWMutex
	closed  bool
	started atomic.Bool
	done    chan struct{}
	dropped atomic.Int64
}

// NewCollector creates a Collector publishing through pub.
func NewCollector(pub Publisher, opts Options) *Collector {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 10000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 2 * time.Second
	}
	return &Collector{
		pub:           pub,
		events:        make(chan kafka.Event, opts.BufferSize),
		batchSize:     opts.BatchSize,
		flushInterval: opts.FlushInterval,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start launches the flush loop. It runs until ctx is cancelled or Close is
// called, flushing whatever is buffered before it exits.
func (c *Collector) Start(ctx context.Context) {
	if c == nil || !c.started.CompareAndSwap(false, true) {
		return
	}
	go c.run(ctx)
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.events),
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
	)
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.batchSize)
	for {
		select {
		case ev, ok := <-c.events:
			if !ok {
				c.flush(batch)
				return
			}
			batch = append(batch, ev)
			if len(batch) >= c.batchSize {
				c.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			c.flush(batch)
			batch = batch[:0]
		case <-ctx.Done():
			for {
				select {
				case ev, ok := <-c.events:
					if !ok {
						c.flush(batch)
						return
					}
					batch = append(batch, ev)
				default:
					c.flush(batch)
					return
				}
			}
		}
	}
}

func (c *Collector) flush(batch []kafka.Event) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.pub.PublishBatch(ctx, batch); err != nil {
		c.logger.Error("failed to publish analytics batch",
			"batch_size", len(batch),
			"error", err,
		)
	}
}

// TrackSearch enqueues a search event keyed by its query.
func (c *Collector) TrackSearch(ev SearchEvent) {
	c.track(kafka.Event{Key: ev.Query, Type: string(ev.Type), Value: ev})
}

// TrackIndex enqueues an index event keyed by its generation.
func (c *Collector) TrackIndex(ev IndexEvent) {
	c.track(kafka.Event{Key: ev.Generation, Type: string(ev.Type), Value: ev})
}

func (c *Collector) track(ev kafka.Event) {
	if c == nil {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.events <- ev:
	default:
		if n := c.dropped.Add(1); n%1000 == 1 {
			c.logger.Warn("analytics event dropped (buffer full)", "dropped_total", n)
		}
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (c *Collector) Dropped() int64 {
	if c == nil {
		return 0
	}
	return c.dropped.Load()
}

// Close stops accepting events and waits for buffered ones to be flushed.
func (c *Collector) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.events)
	c.mu.Unlock()
	if c.started.Load() {
		<-c.done
	}
}
