package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	byName := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			byName[m.Name] = m
		}
	}
	return byName
}

func TestInstruments_ExportThroughSDK(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	inst, err := New(mp.Meter(instrumentationName))
	require.NoError(t, err)

	ctx := context.Background()
	inst.RecordEvaluation(ctx, "late", "on_time")
	inst.RecordEvaluation(ctx, "late", "on_time")
	inst.RecordCacheLookup(ctx, true)
	inst.RecordAcquisition(ctx, "precise", "resolved", 1500*time.Millisecond)
	inst.SubscriptionOpened(ctx)
	inst.SubscriptionOpened(ctx)
	inst.SubscriptionClosed(ctx)

	got := collect(t, reader)

	evaluations, ok := got["attendance_evaluations_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, evaluations.DataPoints, 1)
	assert.Equal(t, int64(2), evaluations.DataPoints[0].Value)
	status, _ := evaluations.DataPoints[0].Attributes.Value("check_in_status")
	assert.Equal(t, "late", status.AsString())

	duration, ok := got["location_acquisition_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, duration.DataPoints, 1)
	assert.Equal(t, uint64(1), duration.DataPoints[0].Count)
	assert.InDelta(t, 1.5, duration.DataPoints[0].Sum, 1e-9)

	active, ok := got["location_active_subscriptions"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, active.DataPoints, 1)
	assert.Equal(t, int64(1), active.DataPoints[0].Value)
}

func TestSetup_WithoutEndpointKeepsGlobalProvider(t *testing.T) {
	before := otel.GetMeterProvider()

	shutdown, err := Setup(context.Background(), ProviderConfig{ServiceName: "attendance-core"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.Same(t, before, otel.GetMeterProvider())
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_InstallsSDKProvider(t *testing.T) {
	before := otel.GetMeterProvider()
	t.Cleanup(func() { otel.SetMeterProvider(before) })

	shutdown, err := Setup(context.Background(), ProviderConfig{
		ServiceName:    "attendance-core",
		ServiceVersion: "test",
		Environment:    "test",
		OTLPEndpoint:   "http://127.0.0.1:4317",
		Insecure:       true,
		ExportInterval: time.Hour,
	})
	require.NoError(t, err)

	_, ok := otel.GetMeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	// Nothing listens on the endpoint; only the provider swap is checked here.
	_ = shutdown(ctx)
}
