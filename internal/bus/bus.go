package bus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/vani/internal/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	StreamName    = "VANI_EVENTS"
	StreamSubject = "vani.events.>"
)

// streamPublisher is the part of jetstream.JetStream the bus publishes through.
type streamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Bus mirrors call events onto a JetStream stream for downstream consumers.
type Bus struct {
	nc  *nats.Conn
	js  jetstream.JetStream
	pub streamPublisher
	out *Outbox
}

func New(natsURL string, cfg OutboxConfig) (*Bus, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("vani"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			slog.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	b := &Bus{nc: nc, js: js, pub: js}
	b.out = NewOutbox(b.publishEvent, cfg)
	b.out.SetAlertPublisher(b.Publish)
	return b, nil
}

// Start ensures the event stream exists and begins flushing the outbox.
func (b *Bus) Start(ctx context.Context) error {
	if err := b.ensureStream(ctx, StreamName, []string{StreamSubject}); err != nil {
		return err
	}
	b.out.Start(ctx)
	return nil
}

func (b *Bus) ensureStream(ctx context.Context, name string, subjects []string) error {
	_, err := b.js.Stream(ctx, name)
	if err == nil {
		return nil
	}

	_, err = b.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:      name,
		Subjects:  subjects,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   jetstream.FileStorage,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", name, err)
	}

	slog.Info("created stream", "name", name, "subjects", subjects)
	return nil
}

// Notify queues the event for publishing. It never blocks on the network.
func (b *Bus) Notify(_ context.Context, e events.Event) error {
	b.out.Add(e)
	return nil
}

func (b *Bus) publishEvent(ctx context.Context, e events.Event) error {
	data, err := e.Marshal()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	var opts []jetstream.PublishOpt
	if e.EventID != "" {
		opts = append(opts, jetstream.WithMsgID(e.EventID))
	}
	if _, err := b.pub.Publish(ctx, e.Subject(), data, opts...); err != nil {
		return fmt.Errorf("publish %s: %w", e.Subject(), err)
	}
	return nil
}

// Publish sends a plain NATS message (lifecycle announcements, alerts).
func (b *Bus) Publish(subject string, data []byte) error {
	return b.nc.Publish(subject, data)
}

// Pending returns the number of events waiting in the outbox.
func (b *Bus) Pending() int {
	return b.out.Len()
}

// Wait blocks until the outbox has finished its final flush after Start's
// context is cancelled.
func (b *Bus) Wait() {
	b.out.Wait()
}

// Close drains the NATS connection.
func (b *Bus) Close() {
	if err := b.nc.Drain(); err != nil {
		slog.Warn("NATS drain failed", "error", err)
	}
}
