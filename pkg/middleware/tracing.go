package middleware

import (
	"context"
	"fmt"
	"sync"

	"github.com/vango-dev/atoms/pkg/atom"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for atom stores.
const defaultTracerName = "atoms"

// TracingConfig configures the OpenTelemetry tracing observer.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "atoms").
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: the global provider from otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// Filter determines which events to trace.
	// Return true to trace the event, false to skip.
	// If nil, all events are traced.
	Filter func(ev atom.Event) bool

	// Attributes are added to every span, e.g. the store's name.
	Attributes []attribute.KeyValue
}

// TracingOption configures the OpenTelemetry tracing observer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.TracerProvider = tp
	}
}

// WithEventFilter sets a filter function for events.
func WithEventFilter(filter func(ev atom.Event) bool) TracingOption {
	return func(c *TracingConfig) {
		c.Filter = filter
	}
}

// WithAttributes adds attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) TracingOption {
	return func(c *TracingConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// defaultTracingConfig returns the default OpenTelemetry configuration.
func defaultTracingConfig() TracingConfig {
	return TracingConfig{
		TracerName: defaultTracerName,
	}
}

// Tracing is a store observer that records OpenTelemetry spans.
//
// It records:
//   - one "atoms.tx" span per transaction that changed state, covering the
//     time the store lock was held, with changed and listener counts
//   - one "atoms.async <atom>" span per async computation, from start to
//     settlement or supersession, with the error recorded on failure
type Tracing struct {
	config TracingConfig
	tracer trace.Tracer

	mu    sync.Mutex
	async map[asyncKey]trace.Span
}

type asyncKey struct {
	atom uint64
	gen  uint64
}

// NewTracing creates a tracing observer.
//
// Example:
//
//	store := atom.NewStore(atom.WithObserver(middleware.NewTracing(
//	    middleware.WithTracerName("checkout"),
//	)))
//
// The tracer uses the global OpenTelemetry tracer provider unless one is
// given. Configure it in your main() before creating stores:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func NewTracing(opts ...TracingOption) *Tracing {
	config := defaultTracingConfig()
	for _, opt := range opts {
		opt(&config)
	}

	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Tracing{
		config: config,
		tracer: tp.Tracer(config.TracerName),
		async:  make(map[asyncKey]trace.Span),
	}
}

// OnEvent implements atom.Observer.
func (t *Tracing) OnEvent(ev atom.Event) {
	if t.config.Filter != nil && !t.config.Filter(ev) {
		return
	}

	switch ev.Kind {
	case atom.EventTxEnd:
		t.traceTx(ev)
	case atom.EventAsyncStart:
		t.startAsync(ev)
	case atom.EventAsyncSettle:
		t.endAsync(ev, false)
	case atom.EventAsyncSupersede:
		t.endAsync(ev, true)
	}
}

func (t *Tracing) traceTx(ev atom.Event) {
	attrs := append([]attribute.KeyValue{
		attribute.Int("atoms.changed", ev.Changed),
		attribute.Int("atoms.listeners", ev.Listeners),
	}, t.config.Attributes...)

	_, span := t.tracer.Start(
		context.Background(),
		"atoms.tx",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(ev.Time.Add(-ev.Duration)),
	)
	span.End(trace.WithTimestamp(ev.Time))
}

func (t *Tracing) startAsync(ev atom.Event) {
	attrs := append([]attribute.KeyValue{
		attribute.String("atoms.atom", ev.Atom),
		attribute.Int64("atoms.atom_id", int64(ev.AtomID)),
		attribute.Int64("atoms.gen", int64(ev.Gen)),
	}, t.config.Attributes...)

	_, span := t.tracer.Start(
		context.Background(),
		fmt.Sprintf("atoms.async %s", ev.Atom),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(ev.Time),
	)

	t.mu.Lock()
	t.async[asyncKey{ev.AtomID, ev.Gen}] = span
	t.mu.Unlock()
}

func (t *Tracing) endAsync(ev atom.Event, superseded bool) {
	key := asyncKey{ev.AtomID, ev.Gen}
	t.mu.Lock()
	span, ok := t.async[key]
	delete(t.async, key)
	t.mu.Unlock()
	if !ok {
		return
	}

	span.SetAttributes(attribute.Bool("atoms.superseded", superseded))
	switch {
	case superseded:
		span.SetStatus(codes.Unset, "")
	case ev.Err != nil:
		span.RecordError(ev.Err)
		span.SetStatus(codes.Error, ev.Err.Error())
	default:
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(ev.Time))
}

// InFlight returns the number of async spans not yet ended.
func (t *Tracing) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.async)
}
