package location

import (
	"errors"
	"fmt"
)

var (
	// ErrLocationUnavailable matches every UnavailableError.
	ErrLocationUnavailable = errors.New("location not available")

	// Sensor errors
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrSensorTimeout       = errors.New("location request timed out")

	// Acquisition errors
	ErrAcquisitionCancelled = errors.New("location acquisition cancelled")
	ErrSuperseded           = errors.New("superseded by a newer acquisition for the same target")
	ErrInvalidQuery         = errors.New("invalid location query")
)

type Reason string

const (
	ReasonPermissionDenied    Reason = "permission_denied"
	ReasonPositionUnavailable Reason = "position_unavailable"
	ReasonTimeout             Reason = "timeout"
	ReasonGeneric             Reason = "generic"
)

// UnavailableError is returned when no usable reading could be produced. Best
// carries the last best-effort reading when one exists.
type UnavailableError struct {
	Reason Reason
	Best   *Sample
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("location not available (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("location not available (%s)", e.Reason)
}

func (e *UnavailableError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLocationUnavailable}
	}
	return []error{ErrLocationUnavailable, e.Err}
}

// Unavailable wraps a sensor error, classifying it by reason.
func Unavailable(err error, best *Sample) *UnavailableError {
	return &UnavailableError{Reason: ReasonFor(err), Best: best, Err: err}
}

// ReasonFor classifies a sensor error.
func ReasonFor(err error) Reason {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return ReasonPermissionDenied
	case errors.Is(err, ErrPositionUnavailable):
		return ReasonPositionUnavailable
	case errors.Is(err, ErrSensorTimeout):
		return ReasonTimeout
	default:
		return ReasonGeneric
	}
}

// SensorError returns the sensor sentinel for a reason reported by a device.
func SensorError(reason Reason) error {
	switch reason {
	case ReasonPermissionDenied:
		return ErrPermissionDenied
	case ReasonPositionUnavailable:
		return ErrPositionUnavailable
	case ReasonTimeout:
		return ErrSensorTimeout
	default:
		return errors.New("location sensor error")
	}
}
