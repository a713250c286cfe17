package telemetry

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestMetricsFile(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "quasi.prom")
	shutdown, err := Init(ctx, Config{MetricsFile: file})
	require.NoError(t, err)

	counter, err := otel.Meter("telemetry_test").Int64Counter("quasi_test_events")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	require.NoError(t, shutdown(ctx))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "quasi_test_events")
}

func TestTrace(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	shutdown, err := Init(ctx, Config{Trace: true, TraceOutput: &out})
	require.NoError(t, err)

	_, span := otel.Tracer("telemetry_test").Start(ctx, "quasi.test.span")
	span.End()

	require.NoError(t, shutdown(ctx))
	assert.Contains(t, out.String(), "quasi.test.span")
}

func TestNothingInstalled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
