package location

import (
	"time"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/location"
)

// Config holds the sampler tunables.
type Config struct {
	// FastTimeout and FastMaxCachedAge are the sensor options of a fast acquisition.
	FastTimeout      time.Duration
	FastMaxCachedAge time.Duration

	// TargetAccuracyMeters and MaxWait apply when a query leaves them unset.
	TargetAccuracyMeters float64
	MaxWait              time.Duration

	// MaxAllowedWait caps the max wait a caller may ask for.
	MaxAllowedWait time.Duration
}

func DefaultConfig() Config {
	return Config{
		FastTimeout:          5 * time.Second,
		FastMaxCachedAge:     60 * time.Second,
		TargetAccuracyMeters: 25,
		MaxWait:              20 * time.Second,
		MaxAllowedWait:       2 * time.Minute,
	}
}

// QueryDefaults returns the request defaults derived from c.
func (c Config) QueryDefaults() location.QueryDefaults {
	return location.QueryDefaults{
		TargetAccuracyMeters: c.TargetAccuracyMeters,
		MaxWait:              c.MaxWait,
		MaxAllowedWait:       c.MaxAllowedWait,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FastTimeout <= 0 {
		c.FastTimeout = d.FastTimeout
	}
	if c.FastMaxCachedAge <= 0 {
		c.FastMaxCachedAge = d.FastMaxCachedAge
	}
	if c.TargetAccuracyMeters <= 0 {
		c.TargetAccuracyMeters = d.TargetAccuracyMeters
	}
	if c.MaxWait <= 0 {
		c.MaxWait = d.MaxWait
	}
	if c.MaxAllowedWait <= 0 {
		c.MaxAllowedWait = d.MaxAllowedWait
	}
	return c
}
