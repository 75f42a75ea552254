package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/cmlabs-hris/attendance-core-go"

// Instruments groups the OpenTelemetry instruments of the attendance core.
type Instruments struct {
	Evaluations         metric.Int64Counter
	PolicyCacheLookups  metric.Int64Counter
	PolicyInvalidations metric.Int64Counter
	Acquisitions        metric.Int64Counter
	AcquisitionDuration metric.Float64Histogram
	ActiveSubscriptions metric.Int64UpDownCounter
}

var (
	defaultOnce        sync.Once
	defaultInstruments *Instruments
)

// Default returns instruments bound to the global meter provider. Until a
// provider is installed the global one is a no-op.
func Default() *Instruments {
	defaultOnce.Do(func() {
		inst, err := New(otel.Meter(instrumentationName))
		if err != nil {
			slog.Warn("Failed to create metric instruments, using no-op meter", "error", err)
			inst, _ = New(noop.NewMeterProvider().Meter(instrumentationName))
		}
		defaultInstruments = inst
	})
	return defaultInstruments
}

// New creates the instruments on meter.
func New(meter metric.Meter) (*Instruments, error) {
	var (
		inst Instruments
		err  error
	)

	inst.Evaluations, err = meter.Int64Counter(
		"attendance_evaluations_total",
		metric.WithDescription("Attendance records evaluated, by check-in and check-out status"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	inst.PolicyCacheLookups, err = meter.Int64Counter(
		"office_timing_cache_lookups_total",
		metric.WithDescription("Office timing policy cache lookups, by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	inst.PolicyInvalidations, err = meter.Int64Counter(
		"office_timing_cache_invalidations_total",
		metric.WithDescription("Office timing policy cache invalidations, by source"),
		metric.WithUnit("{invalidation}"),
	)
	if err != nil {
		return nil, err
	}

	inst.Acquisitions, err = meter.Int64Counter(
		"location_acquisitions_total",
		metric.WithDescription("Location acquisitions, by mode and final state"),
		metric.WithUnit("{acquisition}"),
	)
	if err != nil {
		return nil, err
	}

	inst.AcquisitionDuration, err = meter.Float64Histogram(
		"location_acquisition_duration_seconds",
		metric.WithDescription("Time spent acquiring a location"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	inst.ActiveSubscriptions, err = meter.Int64UpDownCounter(
		"location_active_subscriptions",
		metric.WithDescription("Open positioning sensor subscriptions"),
		metric.WithUnit("{subscription}"),
	)
	if err != nil {
		return nil, err
	}

	return &inst, nil
}

func (i *Instruments) RecordEvaluation(ctx context.Context, checkIn, checkOut string) {
	i.Evaluations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check_in_status", checkIn),
		attribute.String("check_out_status", checkOut),
	))
}

func (i *Instruments) RecordCacheLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	i.PolicyCacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (i *Instruments) RecordInvalidation(ctx context.Context, source string) {
	i.PolicyInvalidations.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

func (i *Instruments) RecordAcquisition(ctx context.Context, mode, state string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("state", state),
	)
	i.Acquisitions.Add(ctx, 1, attrs)
	i.AcquisitionDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func (i *Instruments) SubscriptionOpened(ctx context.Context) {
	i.ActiveSubscriptions.Add(ctx, 1)
}

func (i *Instruments) SubscriptionClosed(ctx context.Context) {
	i.ActiveSubscriptions.Add(ctx, -1)
}
