package macro

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
	tracer = otel.Tracer("quasi.macro")
	meter  = otel.Meter("quasi.macro")
)

var (
	invocationLatency metric.Float64Histogram
	invocationTotal   metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		invocationLatency, err = meter.Float64Histogram(
			"macro_invocation_duration_seconds",
			metric.WithDescription("Duration of macro invocations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		invocationTotal, err = meter.Int64Counter(
			"macro_invocations_total",
			metric.WithDescription("Total macro invocations by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordInvocation records one invocation. outcome is "ok" or the kind of
// the failure.
func recordInvocation(ctx context.Context, class, outcome string, d time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("class", class),
		attribute.String("outcome", outcome),
	)
	invocationLatency.Record(ctx, d.Seconds(), attrs)
	invocationTotal.Add(ctx, 1, attrs)
}

func startInvokeSpan(ctx context.Context, annotation string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "macro.Run",
		trace.WithAttributes(attribute.String("macro.annotation", annotation)),
	)
}
