package instrument

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Instrumentation hands out tracers and meters to the modules.
type Instrumentation interface {
	Tracer(name string) trace.Tracer
	Meter(name string) metric.Meter
	Shutdown(ctx context.Context) error
}

// Config drives OpenTelemetry initialization. When Enabled is false only
// the process logger is installed.
type Config struct {
	Enabled          bool
	ServiceName      string
	ServiceVersion   string
	Environment      string
	OTLPEndpoint     string
	OTLPSecure       bool
	TraceSampleRatio float64
	MetricsInterval  time.Duration
	// MaskFields names log keys whose values are replaced with "***".
	MaskFields []string
	// LogLevel is debug, info, warn or error. Anything else means info.
	LogLevel string
}

func (c *Config) sampleRatio() float64 {
	return min(max(c.TraceSampleRatio, 0), 1)
}

// New wires the OTLP gRPC exporters for traces, metrics and logs.
func New(ctx context.Context, cfg *Config) (Instrumentation, error) {
	if cfg == nil {
		return NewNoop(), nil
	}
	if !cfg.Enabled {
		initLogging(cfg.ServiceName, nil, cfg.MaskFields, cfg.LogLevel)
		return NewNoop(), nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("env", cfg.Environment),
	))
	if err != nil {
		return nil, err
	}

	p := &providers{}
	if p.tracer, err = newTracerProvider(ctx, cfg, res); err != nil {
		return nil, err
	}
	if p.meter, err = newMeterProvider(ctx, cfg, res); err != nil {
		return nil, errors.Join(err, p.Shutdown(ctx))
	}
	if p.logger, err = newLoggerProvider(ctx, cfg, res); err != nil {
		return nil, errors.Join(err, p.Shutdown(ctx))
	}

	initLogging(cfg.ServiceName, p.logger, cfg.MaskFields, cfg.LogLevel)

	return p, nil
}

func newTracerProvider(ctx context.Context, cfg *Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if !cfg.OTLPSecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.sampleRatio()))),
		sdktrace.WithBatcher(exp),
	), nil
}

func newMeterProvider(ctx context.Context, cfg *Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if !cfg.OTLPSecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.MetricsInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricsInterval))
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, readerOpts...)),
	), nil
}

func newLoggerProvider(ctx context.Context, cfg *Config, res *resource.Resource) (*sdklog.LoggerProvider, error) {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if !cfg.OTLPSecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}

	exp, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
	), nil
}

type providers struct {
	tracer *sdktrace.TracerProvider
	meter  *sdkmetric.MeterProvider
	logger *sdklog.LoggerProvider
}

func (p *providers) Tracer(name string) trace.Tracer { return p.tracer.Tracer(name) }

func (p *providers) Meter(name string) metric.Meter { return p.meter.Meter(name) }

// Shutdown flushes whatever providers were started.
func (p *providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.tracer != nil {
		errs = append(errs, p.tracer.Shutdown(ctx))
	}
	if p.meter != nil {
		errs = append(errs, p.meter.Shutdown(ctx))
	}
	if p.logger != nil {
		errs = append(errs, p.logger.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// NewNoop returns instrumentation that records nothing.
func NewNoop() Instrumentation { return noop{} }

type noop struct{}

func (noop) Tracer(name string) trace.Tracer { return tracenoop.NewTracerProvider().Tracer(name) }

func (noop) Meter(name string) metric.Meter { return metricnoop.NewMeterProvider().Meter(name) }

func (noop) Shutdown(context.Context) error { return nil }
