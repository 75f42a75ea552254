package location

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/validator"
)

// QueryDefaults fills the parts of a LocateRequest the caller left out.
type QueryDefaults struct {
	TargetAccuracyMeters float64
	MaxWait              time.Duration
	MaxAllowedWait       time.Duration
}

type GeofenceRequest struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
}

type LocateRequest struct {
	Mode                 string           `json:"mode"`
	Widget               string           `json:"widget,omitempty"`
	TargetAccuracyMeters *float64         `json:"target_accuracy_meters,omitempty"`
	MaxWaitMs            *int64           `json:"max_wait_ms,omitempty"`
	Geofence             *GeofenceRequest `json:"geofence,omitempty"`
}

func (r *LocateRequest) Validate(defaults QueryDefaults) error {
	var errs validator.ValidationErrors

	r.Mode = strings.ToLower(strings.TrimSpace(r.Mode))
	if r.Mode == "" {
		r.Mode = string(ModePrecise)
	}
	if !validator.IsInSlice(r.Mode, ModeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "mode",
			Message: "mode must be 'fast' or 'precise'",
		})
	}

	if r.TargetAccuracyMeters != nil && *r.TargetAccuracyMeters <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "target_accuracy_meters",
			Message: "target_accuracy_meters must be positive",
		})
	}

	if r.MaxWaitMs != nil {
		// Compared in milliseconds so huge values cannot overflow a Duration.
		limit := defaults.MaxAllowedWait
		if limit <= 0 {
			limit = time.Duration(math.MaxInt64)
		}
		if *r.MaxWaitMs <= 0 {
			errs = append(errs, validator.ValidationError{
				Field:   "max_wait_ms",
				Message: "max_wait_ms must be positive",
			})
		} else if *r.MaxWaitMs > limit.Milliseconds() {
			errs = append(errs, validator.ValidationError{
				Field:   "max_wait_ms",
				Message: "max_wait_ms must not exceed " + strconv.FormatInt(limit.Milliseconds(), 10),
			})
		}
	}

	// Fast readings may be cached and coarse, so they never gate a geofence.
	if r.Geofence != nil && r.Mode == string(ModeFast) {
		errs = append(errs, validator.ValidationError{
			Field:   "geofence",
			Message: "geofence requires precise mode",
		})
	}

	if r.Geofence != nil {
		if !validator.IsValidLatitude(r.Geofence.Latitude) {
			errs = append(errs, validator.ValidationError{
				Field:   "geofence.latitude",
				Message: "latitude must be between -90 and 90",
			})
		}
		if !validator.IsValidLongitude(r.Geofence.Longitude) {
			errs = append(errs, validator.ValidationError{
				Field:   "geofence.longitude",
				Message: "longitude must be between -180 and 180",
			})
		}
		if r.Geofence.RadiusMeters <= 0 {
			errs = append(errs, validator.ValidationError{
				Field:   "geofence.radius_meters",
				Message: "radius_meters must be positive",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToQuery builds the sampler query for a validated request.
func (r LocateRequest) ToQuery(target string, defaults QueryDefaults) Query {
	q := Query{
		Target:               target,
		Mode:                 Mode(r.Mode),
		TargetAccuracyMeters: defaults.TargetAccuracyMeters,
		MaxWait:              defaults.MaxWait,
	}
	if r.Widget != "" {
		q.Target = target + "/" + r.Widget
	}
	if r.TargetAccuracyMeters != nil {
		q.TargetAccuracyMeters = *r.TargetAccuracyMeters
	}
	if r.MaxWaitMs != nil {
		q.MaxWait = time.Duration(*r.MaxWaitMs) * time.Millisecond
	}
	return q
}

type PushReadingRequest struct {
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	AccuracyMeters *float64 `json:"accuracy_meters,omitempty"`
	CapturedAt     string   `json:"captured_at,omitempty"`
	Error          string   `json:"error,omitempty"`

	// Parsed by Validate
	Sample *Sample `json:"-"`
}

var errorReasons = []string{
	string(ReasonPermissionDenied),
	string(ReasonPositionUnavailable),
	string(ReasonTimeout),
	string(ReasonGeneric),
}

func (r *PushReadingRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Error != "" {
		if !validator.IsInSlice(r.Error, errorReasons) {
			errs = append(errs, validator.ValidationError{
				Field:   "error",
				Message: "error must be one of permission_denied, position_unavailable, timeout, generic",
			})
		}
		if len(errs) > 0 {
			return errs
		}
		return nil
	}

	if r.Latitude == nil || !validator.IsValidLatitude(*r.Latitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}
	if r.Longitude == nil || !validator.IsValidLongitude(*r.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}
	if r.AccuracyMeters == nil || *r.AccuracyMeters < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "accuracy_meters",
			Message: "accuracy_meters is required and must not be negative",
		})
	}

	capturedAt := time.Now().UTC()
	if r.CapturedAt != "" {
		t, ok := validator.IsValidDateTime(r.CapturedAt)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "captured_at",
				Message: "captured_at must be an RFC3339 timestamp",
			})
		}
		capturedAt = t.UTC()
		if now := time.Now().UTC(); capturedAt.After(now) {
			capturedAt = now
		}
	}

	if len(errs) > 0 {
		return errs
	}

	r.Sample = &Sample{
		Latitude:       *r.Latitude,
		Longitude:      *r.Longitude,
		AccuracyMeters: *r.AccuracyMeters,
		CapturedAt:     capturedAt,
	}
	return nil
}

type SampleResponse struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AccuracyMeters float64 `json:"accuracy_meters"`
	CapturedAt     string  `json:"captured_at"`
}

func NewSampleResponse(s Sample) SampleResponse {
	return SampleResponse{
		Latitude:       s.Latitude,
		Longitude:      s.Longitude,
		AccuracyMeters: s.AccuracyMeters,
		CapturedAt:     s.CapturedAt.UTC().Format(time.RFC3339),
	}
}

type GeofenceResponse struct {
	DistanceMeters float64 `json:"distance_meters"`
	Within         bool    `json:"within"`
}

type LocateResponse struct {
	Sample    SampleResponse    `json:"sample"`
	State     string            `json:"state"`
	MetTarget bool              `json:"met_target"`
	Readings  int               `json:"readings"`
	ElapsedMs int64             `json:"elapsed_ms"`
	Geofence  *GeofenceResponse `json:"geofence,omitempty"`
}
