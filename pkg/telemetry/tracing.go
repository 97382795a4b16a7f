package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTracerName is the instrumentation name used with the global provider.
const DefaultTracerName = "github.com/vango-dev/democrat"

// TracingConfig configures render tracing.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: DefaultTracerName).
	TracerName string

	// Tracer overrides the tracer resolved from the global provider.
	Tracer trace.Tracer
}

// TracingOption configures render tracing.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracer uses tracer instead of the global provider.
func WithTracer(tracer trace.Tracer) TracingOption {
	return func(c *TracingConfig) {
		c.Tracer = tracer
	}
}

// Tracer starts one span per settled store render.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer resolves a tracer. Without WithTracer it uses the global
// OpenTelemetry provider, which is a no-op until the application installs one:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func NewTracer(opts ...TracingOption) *Tracer {
	config := TracingConfig{TracerName: DefaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Tracer == nil {
		config.Tracer = otel.Tracer(config.TracerName)
	}
	return &Tracer{tracer: config.Tracer}
}

// RenderSpan is an in-flight render span.
type RenderSpan struct {
	span trace.Span
}

// StartRender opens a "democrat.render" span for store.
func (t *Tracer) StartRender(ctx context.Context, store, reason string) (context.Context, *RenderSpan) {
	if t == nil {
		return ctx, nil
	}
	ctx, span := t.tracer.Start(ctx, "democrat.render",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("democrat.store", store),
			attribute.String("democrat.reason", reason),
		),
	)
	return ctx, &RenderSpan{span: span}
}

// End closes the span, recording the convergence passes and emitted patches.
// A non-nil err marks the span as failed.
func (s *RenderSpan) End(passes, patches int, err error) {
	if s == nil {
		return
	}
	s.span.SetAttributes(
		attribute.Int("democrat.passes", passes),
		attribute.Int("democrat.patches", patches),
	)
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}
