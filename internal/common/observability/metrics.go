package observability

import (
	"context"
	"fmt"
	"time"

	"property-chat/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Options configures New.
type Options struct {
	ServiceName string
	// TracingEndpoint is a Jaeger collector URL. Empty disables tracing.
	TracingEndpoint string
	SampleRatio     float64
}

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer

	turnCounter  otelmetric.Int64Counter
	turnDuration otelmetric.Float64Histogram
	jobCounter   otelmetric.Int64Counter
	jobDuration  otelmetric.Float64Histogram
}

// New wires the otel meter provider to the Prometheus registry and, when an
// endpoint is configured, a Jaeger tracer provider. Failures degrade to no-op
// instruments and are logged.
func New(opts Options, log logger.Logger) *Observability {
	o := &Observability{
		tracer: noop.NewTracerProvider().Tracer(opts.ServiceName),
	}
	res := resource.NewSchemaless(attribute.String("service.name", opts.ServiceName))

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("Failed to create Prometheus exporter", map[string]interface{}{"error": err.Error()})
	} else {
		o.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
		otel.SetMeterProvider(o.meterProvider)
		o.meter = o.meterProvider.Meter(opts.ServiceName)
		o.initInstruments()
	}

	if opts.TracingEndpoint != "" {
		tp, err := newTracerProvider(opts, res)
		if err != nil {
			log.Warn("Tracing disabled", map[string]interface{}{"error": err.Error(), "endpoint": opts.TracingEndpoint})
		} else {
			o.tracerProvider = tp
			otel.SetTracerProvider(tp)
			o.tracer = tp.Tracer(opts.ServiceName)
		}
	}

	return o
}

func newTracerProvider(opts Options, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(opts.TracingEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("jaeger exporter: %w", err)
	}

	ratio := opts.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	), nil
}

func (o *Observability) initInstruments() {
	o.turnCounter, _ = o.meter.Int64Counter(
		"chat.turns",
		otelmetric.WithDescription("Number of chat turns processed"),
	)
	o.turnDuration, _ = o.meter.Float64Histogram(
		"chat.turn.duration",
		otelmetric.WithDescription("Chat turn processing duration"),
		otelmetric.WithUnit("ms"),
	)
	o.jobCounter, _ = o.meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	o.jobDuration, _ = o.meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
}

// StartSpan starts a span on the configured tracer. Callers must End it.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := o.tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordTurn(ctx context.Context, intent string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(attribute.String("intent", intent))
	if o.turnCounter != nil {
		o.turnCounter.Add(ctx, 1, attrs)
	}
	if o.turnDuration != nil {
		o.turnDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
