package location

import (
	"time"

	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/geo"
)

// Sample is one position fix. Lower AccuracyMeters means a more precise fix.
type Sample struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
	CapturedAt     time.Time
}

func (s Sample) Point() geo.Point {
	return geo.Point{Latitude: s.Latitude, Longitude: s.Longitude}
}

// BetterThan reports whether s is strictly more precise than other.
func (s Sample) BetterThan(other Sample) bool {
	return s.AccuracyMeters < other.AccuracyMeters
}

type Mode string

const (
	// ModeFast returns the first available reading, possibly cached. Display only.
	ModeFast Mode = "fast"
	// ModePrecise samples until the target accuracy is met or the wait expires.
	ModePrecise Mode = "precise"
)

var ModeValues = []string{string(ModeFast), string(ModePrecise)}

// Query describes one acquisition. Target identifies the logical consumer (a UI
// widget, a device); a new acquisition for the same Target cancels the previous one.
type Query struct {
	Target               string
	Mode                 Mode
	TargetAccuracyMeters float64
	MaxWait              time.Duration
}

// State is the acquisition state machine:
// Idle -> Subscribed -> Resolved | TimedOutWithBest | Failed.
type State string

const (
	StateIdle             State = "idle"
	StateSubscribed       State = "subscribed"
	StateResolved         State = "resolved"
	StateTimedOutWithBest State = "timed_out_with_best"
	StateFailed           State = "failed"
)

// Result is the outcome of a successful acquisition. MetTarget is true only when
// a real reading with accuracy <= the requested target was observed.
type Result struct {
	Sample    Sample
	State     State
	MetTarget bool
	Readings  int
	Elapsed   time.Duration
}

// Geofence is a circular allowed area around a site.
type Geofence struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

func (g Geofence) Center() geo.Point {
	return geo.Point{Latitude: g.Latitude, Longitude: g.Longitude}
}

type GeofenceCheck struct {
	DistanceMeters float64
	Within         bool
}
