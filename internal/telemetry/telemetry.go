// Package telemetry installs the OpenTelemetry providers of the quasi CLI.
//
// Metrics go to an sdk MeterProvider read by the Prometheus exporter; the
// gathered families can be written to a node-exporter textfile when the
// process ends. Spans go to a stdout exporter.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Config selects the providers to install.
type Config struct {
	ServiceVersion string
	// Metrics installs the meter provider. Setting MetricsFile implies it.
	Metrics     bool
	MetricsFile string
	// Trace installs the tracer provider writing spans to TraceOutput,
	// standard error when nil.
	Trace       bool
	TraceOutput io.Writer
}

// Shutdown flushes and stops what Init installed.
type Shutdown func(context.Context) error

// Init installs the configured providers globally.
func Init(ctx context.Context, cfg Config) (Shutdown, error) {
	var shutdownFuncs []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdownFuncs {
			if err := fn(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", "quasi"),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	if cfg.Trace {
		out := cfg.TraceOutput
		if out == nil {
			out = os.Stderr
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create trace exporter: %w", err)
		}
		tp := trace.NewTracerProvider(
			trace.WithSyncer(exporter),
			trace.WithResource(res),
			trace.WithSampler(trace.AlwaysSample()),
		)
		otel.SetTracerProvider(tp)
		shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
	}

	if cfg.Metrics || cfg.MetricsFile != "" {
		registry := prometheus.NewRegistry()
		exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
		if err != nil {
			return nil, fmt.Errorf("create prometheus exporter: %w", err)
		}
		mp := metric.NewMeterProvider(metric.WithResource(res), metric.WithReader(exporter))
		otel.SetMeterProvider(mp)
		if cfg.MetricsFile != "" {
			file := cfg.MetricsFile
			shutdownFuncs = append(shutdownFuncs, func(context.Context) error {
				if err := prometheus.WriteToTextfile(file, registry); err != nil {
					return fmt.Errorf("write metrics file: %w", err)
				}
				return nil
			})
		}
		shutdownFuncs = append(shutdownFuncs, mp.Shutdown)
	}

	return shutdown, nil
}
