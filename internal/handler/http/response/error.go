package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-core-go/internal/domain/location"
	"github.com/cmlabs-hris/attendance-core-go/internal/domain/timing"
	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var unavailable *location.UnavailableError
	if errors.As(err, &unavailable) {
		handleUnavailable(w, unavailable)
		return
	}

	switch {
	// Timing domain errors
	case errors.Is(err, timing.ErrPolicyNotConfigured):
		Fail(w, http.StatusNotFound, "POLICY_NOT_CONFIGURED", "No active office timing policy configured", nil)
	case errors.Is(err, timing.ErrPolicyNotFound):
		NotFound(w, "Office timing policy not found")
	case errors.Is(err, timing.ErrPolicyInvalid),
		errors.Is(err, timing.ErrInvalidClockTime),
		errors.Is(err, timing.ErrInvalidOffset):
		Fail(w, http.StatusUnprocessableEntity, "POLICY_INVALID", err.Error(), nil)

	// Attendance domain errors
	case errors.Is(err, attendance.ErrCheckInRequired),
		errors.Is(err, attendance.ErrCheckOutBeforeCheckIn),
		errors.Is(err, attendance.ErrBatchTooLarge):
		BadRequest(w, err.Error(), nil)

	// Location domain errors
	case errors.Is(err, location.ErrInvalidQuery):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, location.ErrSuperseded):
		Fail(w, http.StatusConflict, "ACQUISITION_SUPERSEDED", "Superseded by a newer location request for the same target", nil)
	case errors.Is(err, location.ErrAcquisitionCancelled):
		Fail(w, http.StatusRequestTimeout, "ACQUISITION_CANCELLED", "Location request cancelled", nil)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}

type unavailableData struct {
	Best *location.SampleResponse `json:"best,omitempty"`
}

func handleUnavailable(w http.ResponseWriter, err *location.UnavailableError) {
	details := map[string]string{"reason": string(err.Reason)}

	var data interface{}
	if err.Best != nil {
		best := location.NewSampleResponse(*err.Best)
		data = unavailableData{Best: &best}
	}

	status := http.StatusServiceUnavailable
	if err.Reason == location.ReasonPermissionDenied {
		status = http.StatusForbidden
	}
	FailWithData(w, status, "LOCATION_UNAVAILABLE", "Location not available", details, data)
}
