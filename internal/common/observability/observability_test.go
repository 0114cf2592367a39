package observability

import (
	"context"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"matching-workers/internal/common/logger"
)

func TestObservability_RecordsThroughPrometheusExporter(t *testing.T) {
	reg := promclient.NewRegistry()
	o := New("matching-test", logger.NewTestLogger(t), WithPrometheusOptions(prometheus.WithRegisterer(reg)))
	t.Cleanup(o.Shutdown)

	ctx := context.Background()
	o.RecordJobProcessed(ctx, "success")
	o.RecordJobDuration(ctx, 120*time.Millisecond, "success")
	o.RecordScore(ctx, 87.5)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "jobs_processed_total")
}

func TestStartSpan_WithoutProviderIsNoop(t *testing.T) {
	o := &Observability{}
	ctx, span := o.StartSpan(context.Background(), "matching.fetch", "projectId", "p-1", "dangling")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())
}

func TestStartSpan_RecordsThroughSpanProcessor(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	o := New("matching-test", logger.NewTestLogger(t),
		WithPrometheusOptions(prometheus.WithRegisterer(promclient.NewRegistry())),
		WithSpanProcessor(recorder))
	t.Cleanup(o.Shutdown)

	_, span := o.StartSpan(context.Background(), "matching.fetch", "projectId", "p-1")
	assert.True(t, span.IsRecording())
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "matching.fetch", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("projectId", "p-1"))
}
