package location

import (
	"context"
	"time"
)

// SensorOptions mirrors the options of a device positioning API.
type SensorOptions struct {
	EnableHighAccuracy bool
	Timeout            time.Duration
	MaxCachedAge       time.Duration
}

// SubscriptionHandle identifies one open sensor subscription.
type SubscriptionHandle string

// Sensor is the positioning source. Callbacks may run on any goroutine.
type Sensor interface {
	// GetOnce returns a single reading, honoring opts.Timeout and opts.MaxCachedAge.
	GetOnce(ctx context.Context, opts SensorOptions) (Sample, error)

	// Subscribe starts continuous delivery of readings until Unsubscribe.
	Subscribe(opts SensorOptions, onReading func(Sample), onError func(error)) (SubscriptionHandle, error)

	// Unsubscribe releases the subscription. Unknown handles are ignored.
	Unsubscribe(handle SubscriptionHandle)
}

// SensorProvider returns the sensor of one device.
type SensorProvider interface {
	Sensor(deviceID string) Sensor
}

// ReadingSink accepts readings and errors pushed by devices.
type ReadingSink interface {
	PushReading(deviceID string, sample Sample)
	PushError(deviceID string, err error)
}
