package telemetry

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"github.com/uamyangel/potter/internal/config"
)

// InitTracer configures the global OpenTelemetry tracer provider for a
// single routing run, identified by runID (e.g. the input netlist's base
// name). It returns a shutdown function that must be deferred by the
// caller; when tracing is disabled it is a no-op.
func InitTracer(cfg config.TelemetryConfig, serviceName, runID string) func(context.Context) error {
	if !cfg.Tracing.Enabled {
		log.Println("tracing disabled")
		return func(context.Context) error { return nil }
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("potter.run.id", runID),
		),
	)
	if err != nil {
		log.Fatalf("failed to create resource: %v", err)
	}

	var tp *sdktrace.TracerProvider

	switch cfg.Tracing.Exporter {
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			log.Fatalf("failed to initialize stdout exporter: %v", err)
		}
		tp = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		)
	case "otlp":
		exp, err := otlptracegrpc.New(
			context.Background(),
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(cfg.Tracing.Endpoint),
		)
		if err != nil {
			log.Fatalf("failed to initialize OTLP exporter: %v", err)
		}
		tp = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		)
	default:
		panic(fmt.Sprintf("unsupported exporter: %s", cfg.Tracing.Exporter))
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	return tp.Shutdown
}
