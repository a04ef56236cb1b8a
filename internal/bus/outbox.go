package bus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/vani/internal/events"
)

// PublishFunc delivers a single event downstream.
type PublishFunc func(ctx context.Context, e events.Event) error

// Outbox buffers events so publishing never sits on a caller's turn path.
// Events are flushed in order on an interval or when the threshold is hit.
type Outbox struct {
	publish        PublishFunc
	flushInterval  time.Duration
	flushThreshold int
	bufferMax      int

	mu              sync.Mutex
	buffer          []events.Event
	consecutiveFail int
	alert           func(subject string, data []byte) error

	flushMu sync.Mutex
	done    chan struct{}
}

type OutboxConfig struct {
	FlushInterval  time.Duration
	FlushThreshold int
	BufferMax      int
}

func NewOutbox(publish PublishFunc, cfg OutboxConfig) *Outbox {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	if cfg.FlushThreshold <= 0 {
		cfg.FlushThreshold = 50
	}
	if cfg.BufferMax <= 0 {
		cfg.BufferMax = 1000
	}
	return &Outbox{
		publish:        publish,
		flushInterval:  cfg.FlushInterval,
		flushThreshold: cfg.FlushThreshold,
		bufferMax:      cfg.BufferMax,
		buffer:         make([]events.Event, 0, cfg.FlushThreshold),
		done:           make(chan struct{}),
	}
}

// SetAlertPublisher sets the function used to raise system alerts.
func (o *Outbox) SetAlertPublisher(fn func(subject string, data []byte) error) {
	o.alert = fn
}

// Add enqueues an event for publishing.
func (o *Outbox) Add(e events.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Backpressure: drop oldest if buffer full.
	if len(o.buffer) >= o.bufferMax {
		dropped := len(o.buffer) - o.bufferMax + 1
		o.buffer = o.buffer[dropped:]
		slog.Warn("outbox overflow, dropping oldest events", "dropped", dropped, "buffer_size", o.bufferMax)
		o.publishAlert("vani.system.outbox_overflow", []byte(`{"message":"outbox overflow, dropping events"}`))
	}

	o.buffer = append(o.buffer, e)

	if len(o.buffer) >= o.flushThreshold {
		go o.flush()
	}
}

// Start begins the periodic flush ticker.
func (o *Outbox) Start(ctx context.Context) {
	ticker := time.NewTicker(o.flushInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				o.flush()
			case <-ctx.Done():
				// Final flush on shutdown.
				o.flush()
				close(o.done)
				return
			}
		}
	}()
}

// Wait blocks until the outbox has completed its final flush.
func (o *Outbox) Wait() {
	<-o.done
}

// Len returns the number of events waiting to be published.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.buffer)
}

func (o *Outbox) flush() {
	o.flushMu.Lock()
	defer o.flushMu.Unlock()

	o.mu.Lock()
	if len(o.buffer) == 0 {
		o.mu.Unlock()
		return
	}
	batch := o.buffer
	o.buffer = make([]events.Event, 0, o.flushThreshold)
	o.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for i, e := range batch {
		if err := o.publish(ctx, e); err != nil {
			slog.Error("failed to publish event", "event", e.Event, "event_id", e.EventID, "error", err)
			o.handlePublishFailure(batch[i:])
			return
		}
	}

	o.mu.Lock()
	o.consecutiveFail = 0
	o.mu.Unlock()

	slog.Debug("outbox flushed", "count", len(batch))
}

func (o *Outbox) handlePublishFailure(rest []events.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.consecutiveFail++

	// Re-queue ahead of anything added meanwhile so order is kept.
	o.buffer = append(append(make([]events.Event, 0, len(rest)+len(o.buffer)), rest...), o.buffer...)

	if len(o.buffer) > o.bufferMax {
		o.buffer = o.buffer[len(o.buffer)-o.bufferMax:]
	}

	if o.consecutiveFail >= 3 {
		slog.Error("3 consecutive publish failures", "buffer_size", len(o.buffer))
		o.publishAlert("vani.system.publish_failure", []byte(`{"message":"3 consecutive JetStream publish failures"}`))
	}
}

func (o *Outbox) publishAlert(subject string, data []byte) {
	if o.alert != nil {
		if err := o.alert(subject, data); err != nil {
			slog.Error("failed to publish alert", "subject", subject, "error", err)
		}
	}
}
