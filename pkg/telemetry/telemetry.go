// Package telemetry is the ambient logging/tracing layer shared by the
// core algebra packages (pkg/compose, pkg/invert, pkg/rebase) and the
// cmd/fieldctl and cmd/fieldmcp binaries. It wraps go.uber.org/zap for
// structured logs and go.opentelemetry.io/otel for operator-call spans
// and counters. The core packages log through the small Logger interface
// below, never through zap directly, and trace through the *Tracer
// struct, whose Start takes otel attribute.KeyValue span attributes (so
// they import go.opentelemetry.io/otel/attribute). A caller that doesn't
// want telemetry keeps NoOpLogger and a nil *Tracer, which log and trace
// nothing.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Logger is the minimal structured-logging surface the core packages
// call into. Field values are logged as key/value pairs, matching the
// convention of mock.MockLogger's printf-style calls in the teacher's
// test harness, but structured rather than formatted.
type Logger interface {
	Debugw(msg string, kv ...any)
	Infow(msg string, kv ...any)
	Warnw(msg string, kv ...any)
}

// zapLogger adapts *zap.SugaredLogger to the Logger interface.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (z zapLogger) Debugw(msg string, kv ...any) { z.s.Debugw(msg, kv...) }
func (z zapLogger) Infow(msg string, kv ...any)  { z.s.Infow(msg, kv...) }
func (z zapLogger) Warnw(msg string, kv ...any)  { z.s.Warnw(msg, kv...) }

// NewLogger builds a zap-backed Logger at the given level ("debug",
// "info", "warn", "error") in either "json" or "console" format,
// mirrering pkg/config's LogConfig.Level/Format fields in the teacher.
func NewLogger(level, format string) (Logger, error) {
	var zcfg zap.Config
	if format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = lvl
	l, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return zapLogger{s: l.Sugar()}, nil
}

// NoOpLogger discards every call; the default for packages that never
// had telemetry wired in explicitly.
type NoOpLogger struct{}

func (NoOpLogger) Debugw(string, ...any) {}
func (NoOpLogger) Infow(string, ...any)  {}
func (NoOpLogger) Warnw(string, ...any)  {}

// Tracer wraps the otel tracer/meter pair used to bracket one operator
// call (compose/invert/rebase) with a span and a call counter.
type Tracer struct {
	tracer trace.Tracer
	calls  metric.Int64Counter
}

// NewTracer builds a Tracer named scope, registering an "operator calls"
// counter against the otel global MeterProvider.
func NewTracer(scope string) (*Tracer, error) {
	meter := otel.Meter(scope)
	calls, err := meter.Int64Counter(
		"seqfield.operator.calls",
		metric.WithDescription("number of compose/invert/rebase operator calls"),
	)
	if err != nil {
		return nil, err
	}
	return &Tracer{tracer: otel.Tracer(scope), calls: calls}, nil
}

// Start begins a span for the named operator, tagging it with attrs (mark
// counts and the like), and increments its call counter. The returned func
// stamps the span with its elapsed-time attribute and ends it; call it via
// defer.
func (t *Tracer) Start(ctx context.Context, operator string, attrs ...attribute.KeyValue) (context.Context, func()) {
	if t == nil {
		return ctx, func() {}
	}
	started := time.Now()
	ctx, span := t.tracer.Start(ctx, operator)
	span.SetAttributes(attrs...)
	t.calls.Add(ctx, 1, metric.WithAttributes())
	return ctx, func() {
		span.SetAttributes(attribute.Int64("seqfield.elapsed_ms", time.Since(started).Milliseconds()))
		span.End()
	}
}
