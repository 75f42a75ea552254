package location

import "context"

// Sampler acquires a position that converges on a target accuracy.
type Sampler interface {
	Acquire(ctx context.Context, q Query) (Result, error)
}

// LocationService is the device-facing surface over the sampler.
type LocationService interface {
	// Locate runs an acquisition against the device's sensor.
	Locate(ctx context.Context, deviceID string, req LocateRequest) (LocateResponse, error)

	// PushReading forwards a reading or an error reported by the device.
	PushReading(ctx context.Context, deviceID string, req PushReadingRequest) error
}
