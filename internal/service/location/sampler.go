package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/location"
	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/metrics"
)

// SamplerImpl acquires positions from one sensor. At most one acquisition runs
// per query Target; starting another cancels the previous one with
// location.ErrSuperseded.
type SamplerImpl struct {
	sensor  location.Sensor
	cfg     Config
	clock   Clock
	metrics *metrics.Instruments

	mu       sync.Mutex
	inflight map[string]*inflight
}

type inflight struct {
	cancel context.CancelCauseFunc
}

func NewSampler(sensor location.Sensor, cfg Config) *SamplerImpl {
	return NewSamplerWithClock(sensor, cfg, realClock{})
}

// NewSamplerWithClock is NewSampler with the deadline and elapsed time taken
// from clock.
func NewSamplerWithClock(sensor location.Sensor, cfg Config, clock Clock) *SamplerImpl {
	return &SamplerImpl{
		sensor:   sensor,
		cfg:      cfg.withDefaults(),
		clock:    clock,
		metrics:  metrics.Default(),
		inflight: make(map[string]*inflight),
	}
}

// Acquire implements location.Sampler.
func (s *SamplerImpl) Acquire(ctx context.Context, q location.Query) (location.Result, error) {
	if q.Mode != location.ModeFast && q.Mode != location.ModePrecise {
		return location.Result{}, fmt.Errorf("%w: unknown mode %q", location.ErrInvalidQuery, q.Mode)
	}
	if q.TargetAccuracyMeters <= 0 {
		q.TargetAccuracyMeters = s.cfg.TargetAccuracyMeters
	}
	if q.MaxWait <= 0 {
		q.MaxWait = s.cfg.MaxWait
	}

	ctx, release := s.begin(ctx, q.Target)
	defer release()

	start := s.clock.Now()

	var (
		res location.Result
		err error
	)
	if q.Mode == location.ModeFast {
		res, err = s.acquireFast(ctx, q)
	} else {
		res, err = s.acquirePrecise(ctx, q)
	}

	elapsed := s.clock.Now().Sub(start)
	state := res.State
	if err != nil {
		state = location.StateFailed
	}
	s.metrics.RecordAcquisition(ctx, string(q.Mode), string(state), elapsed)

	if err != nil {
		slog.Debug("Location acquisition failed",
			"target", q.Target,
			"mode", q.Mode,
			"elapsed", elapsed,
			"error", err,
		)
		return location.Result{}, err
	}

	res.Elapsed = elapsed
	slog.Debug("Location acquired",
		"target", q.Target,
		"mode", q.Mode,
		"state", res.State,
		"accuracy_meters", res.Sample.AccuracyMeters,
		"met_target", res.MetTarget,
		"readings", res.Readings,
		"elapsed", elapsed,
	)
	return res, nil
}

// begin registers an acquisition for target, superseding the previous one.
// The returned release must be called when the acquisition ends.
func (s *SamplerImpl) begin(parent context.Context, target string) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(parent)
	if target == "" {
		return ctx, func() { cancel(nil) }
	}

	own := &inflight{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.inflight[target]; ok {
		prev.cancel(location.ErrSuperseded)
	}
	s.inflight[target] = own
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		if s.inflight[target] == own {
			delete(s.inflight, target)
		}
		s.mu.Unlock()
		cancel(nil)
	}
}

func (s *SamplerImpl) acquireFast(ctx context.Context, q location.Query) (location.Result, error) {
	sample, err := s.sensor.GetOnce(ctx, location.SensorOptions{
		EnableHighAccuracy: false,
		Timeout:            s.cfg.FastTimeout,
		MaxCachedAge:       s.cfg.FastMaxCachedAge,
	})
	if err != nil {
		if ctx.Err() != nil {
			return location.Result{}, cancelled(ctx)
		}
		return location.Result{}, location.Unavailable(err, nil)
	}

	return location.Result{
		Sample:    sample,
		State:     location.StateResolved,
		MetTarget: sample.AccuracyMeters <= q.TargetAccuracyMeters,
		Readings:  1,
	}, nil
}

func (s *SamplerImpl) acquirePrecise(ctx context.Context, q location.Query) (location.Result, error) {
	readings := make(chan location.Sample)
	sensorErrs := make(chan error)
	done := make(chan struct{})
	defer close(done)

	// A callback returns once the loop has taken its event. Callbacks may still
	// fire after Unsubscribe; done keeps them from blocking.
	onReading := func(sample location.Sample) {
		select {
		case readings <- sample:
		case <-done:
		}
	}
	onError := func(err error) {
		select {
		case sensorErrs <- err:
		case <-done:
		}
	}

	handle, err := s.sensor.Subscribe(location.SensorOptions{
		EnableHighAccuracy: true,
		Timeout:            q.MaxWait,
	}, onReading, onError)
	if err != nil {
		return location.Result{}, location.Unavailable(err, nil)
	}
	s.metrics.SubscriptionOpened(ctx)
	defer func() {
		s.sensor.Unsubscribe(handle)
		s.metrics.SubscriptionClosed(context.WithoutCancel(ctx))
	}()

	deadline := s.clock.NewTimer(q.MaxWait)
	defer deadline.Stop()

	var (
		best    *location.Sample
		lastErr error
		n       int
	)

	for {
		select {
		case <-ctx.Done():
			return location.Result{}, cancelled(ctx)

		case sample := <-readings:
			n++
			if best == nil || sample.BetterThan(*best) {
				b := sample
				best = &b
			}
			if sample.AccuracyMeters <= q.TargetAccuracyMeters {
				return location.Result{
					Sample:    sample,
					State:     location.StateResolved,
					MetTarget: true,
					Readings:  n,
				}, nil
			}

		case err := <-sensorErrs:
			if errors.Is(err, location.ErrPermissionDenied) {
				return location.Result{}, location.Unavailable(err, best)
			}
			lastErr = err
			slog.Debug("Location sensor reported an error, still waiting",
				"target", q.Target,
				"error", err,
			)

		case <-deadline.C():
			if best != nil {
				return location.Result{
					Sample:   *best,
					State:    location.StateTimedOutWithBest,
					Readings: n,
				}, nil
			}
			if lastErr != nil {
				return location.Result{}, location.Unavailable(lastErr, nil)
			}
			return location.Result{}, location.Unavailable(location.ErrSensorTimeout, nil)
		}
	}
}

func cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", location.ErrAcquisitionCancelled, context.Cause(ctx))
}
