package preprocess

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("quasi.preprocess")
	meter  = otel.Meter("quasi.preprocess")
)

var (
	fileLatency    metric.Float64Histogram
	constructTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		fileLatency, err = meter.Float64Histogram(
			"preprocess_file_duration_seconds",
			metric.WithDescription("Duration of preprocessing one file"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		constructTotal, err = meter.Int64Counter(
			"preprocess_constructs_total",
			metric.WithDescription("Quotations and macro constructs processed, by kind and outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordFile(ctx context.Context, d time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	fileLatency.Record(ctx, d.Seconds())
}

func recordConstruct(ctx context.Context, kind, outcome string) {
	if err := initMetrics(); err != nil {
		return
	}
	constructTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

func startFileSpan(ctx context.Context, file string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "preprocess.File",
		trace.WithAttributes(attribute.String("file", file)),
	)
}
