package location

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/location"
	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/validator"
)

// LocationServiceImpl runs acquisitions against device sensors. Each device
// gets its own sampler so that supersede tracking stays per device.
type LocationServiceImpl struct {
	provider location.SensorProvider
	sink     location.ReadingSink
	cfg      Config

	mu       sync.Mutex
	samplers map[string]*samplerEntry
}

// samplerEntry lives while at least one acquisition runs on the device.
type samplerEntry struct {
	sampler *SamplerImpl
	active  int
}

func NewLocationService(provider location.SensorProvider, sink location.ReadingSink, cfg Config) location.LocationService {
	return &LocationServiceImpl{
		provider: provider,
		sink:     sink,
		cfg:      cfg.withDefaults(),
		samplers: make(map[string]*samplerEntry),
	}
}

// Locate implements location.LocationService.
func (s *LocationServiceImpl) Locate(ctx context.Context, deviceID string, req location.LocateRequest) (location.LocateResponse, error) {
	deviceID = strings.TrimSpace(deviceID)
	if validator.IsEmpty(deviceID) {
		return location.LocateResponse{}, validator.ValidationErrors{{Field: "device_id", Message: "device_id is required"}}
	}

	defaults := s.cfg.QueryDefaults()
	if err := req.Validate(defaults); err != nil {
		return location.LocateResponse{}, err
	}

	q := req.ToQuery(deviceID, defaults)
	sampler, release := s.acquireSampler(deviceID)
	res, err := sampler.Acquire(ctx, q)
	release()
	if err != nil {
		return location.LocateResponse{}, err
	}

	resp := location.LocateResponse{
		Sample:    location.NewSampleResponse(res.Sample),
		State:     string(res.State),
		MetTarget: res.MetTarget,
		Readings:  res.Readings,
		ElapsedMs: res.Elapsed.Milliseconds(),
	}

	if req.Geofence != nil {
		check := VerifyGeofence(res.Sample, location.Geofence{
			Latitude:     req.Geofence.Latitude,
			Longitude:    req.Geofence.Longitude,
			RadiusMeters: req.Geofence.RadiusMeters,
		})
		resp.Geofence = &location.GeofenceResponse{
			DistanceMeters: check.DistanceMeters,
			Within:         check.Within,
		}
	}

	return resp, nil
}

// PushReading implements location.LocationService.
func (s *LocationServiceImpl) PushReading(ctx context.Context, deviceID string, req location.PushReadingRequest) error {
	deviceID = strings.TrimSpace(deviceID)
	if validator.IsEmpty(deviceID) {
		return validator.ValidationErrors{{Field: "device_id", Message: "device_id is required"}}
	}
	if err := req.Validate(); err != nil {
		return err
	}

	if req.Error != "" {
		err := location.SensorError(location.Reason(req.Error))
		slog.Info("Device reported location error", "device_id", deviceID, "reason", req.Error)
		s.sink.PushError(deviceID, err)
		return nil
	}

	s.sink.PushReading(deviceID, *req.Sample)
	return nil
}

// acquireSampler returns the device sampler, creating it on first use. The
// entry is dropped once the last acquisition calls release.
func (s *LocationServiceImpl) acquireSampler(deviceID string) (*SamplerImpl, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.samplers[deviceID]
	if !ok {
		e = &samplerEntry{sampler: NewSampler(s.provider.Sensor(deviceID), s.cfg)}
		s.samplers[deviceID] = e
	}
	e.active++

	return e.sampler, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		e.active--
		if e.active == 0 && s.samplers[deviceID] == e {
			delete(s.samplers, deviceID)
		}
	}
}
