// Package telemetry exposes the OpenTelemetry instruments recorded by the
// call path. A nil *Metrics is valid and records nothing.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/MikeSquared-Agency/vani"

type Options struct {
	// Stdout periodically prints collected metrics as JSON.
	Stdout   bool
	Interval time.Duration
}

type Metrics struct {
	turns       metric.Int64Counter
	turnLatency metric.Float64Histogram
	tools       metric.Int64Counter
	activeCalls metric.Int64UpDownCounter
}

// Setup installs a meter provider and returns the instruments plus a
// shutdown func that flushes any exporter.
func Setup(opts Options) (*Metrics, func(context.Context) error, error) {
	var providerOpts []sdkmetric.Option
	if opts.Stdout {
		exp, err := stdoutmetric.New()
		if err != nil {
			return nil, nil, fmt.Errorf("create stdout metric exporter: %w", err)
		}
		interval := opts.Interval
		if interval <= 0 {
			interval = 30 * time.Second
		}
		providerOpts = append(providerOpts,
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))))
	}

	provider := sdkmetric.NewMeterProvider(providerOpts...)
	otel.SetMeterProvider(provider)

	m, err := New(provider.Meter(meterName))
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, nil, err
	}
	return m, provider.Shutdown, nil
}

// New creates the instruments on the given meter.
func New(meter metric.Meter) (*Metrics, error) {
	turns, err := meter.Int64Counter("vani.turns", metric.WithDescription("Conversation turns processed"))
	if err != nil {
		return nil, fmt.Errorf("create turn counter: %w", err)
	}
	latency, err := meter.Float64Histogram("vani.turn.latency_ms", metric.WithDescription("Turn latency (ms)"))
	if err != nil {
		return nil, fmt.Errorf("create turn latency histogram: %w", err)
	}
	tools, err := meter.Int64Counter("vani.tool.executions", metric.WithDescription("Tool dispatch outcomes"))
	if err != nil {
		return nil, fmt.Errorf("create tool counter: %w", err)
	}
	active, err := meter.Int64UpDownCounter("vani.calls.active", metric.WithDescription("Live call connections"))
	if err != nil {
		return nil, fmt.Errorf("create active call counter: %w", err)
	}
	return &Metrics{turns: turns, turnLatency: latency, tools: tools, activeCalls: active}, nil
}

// RecordTurn counts a finished turn by outcome (ok, timeout, error).
func (m *Metrics) RecordTurn(ctx context.Context, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.turns.Add(ctx, 1, attrs)
	m.turnLatency.Record(ctx, float64(d.Microseconds())/1000, attrs)
}

// RecordTool counts one dispatcher outcome.
func (m *Metrics) RecordTool(ctx context.Context, tool, status string) {
	if m == nil {
		return
	}
	m.tools.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	))
}

func (m *Metrics) CallStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeCalls.Add(ctx, 1)
}

func (m *Metrics) CallEnded(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeCalls.Add(ctx, -1)
}
