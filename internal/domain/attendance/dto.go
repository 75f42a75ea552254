package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/validator"
)

// MaxBatchSize bounds a single batch evaluation request.
const MaxBatchSize = 500

// ========================================
// EVALUATION DTOs
// ========================================

type EvaluateRequest struct {
	EmployeeID      string  `json:"employee_id,omitempty"`
	CheckInInstant  string  `json:"check_in_instant"`
	CheckOutInstant *string `json:"check_out_instant"`
	Department      *string `json:"department"`

	// Parsed by Validate
	CheckIn  time.Time  `json:"-"`
	CheckOut *time.Time `json:"-"`
}

func (r *EvaluateRequest) Validate() error {
	return r.validate("")
}

func (r *EvaluateRequest) validate(prefix string) error {
	var errs validator.ValidationErrors

	checkIn, ok := validator.IsValidDateTime(r.CheckInInstant)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   prefix + "check_in_instant",
			Message: "check_in_instant must be an RFC3339 timestamp",
		})
	} else {
		r.CheckIn = checkIn.UTC()
	}

	if r.CheckOutInstant != nil && *r.CheckOutInstant != "" {
		checkOut, ok := validator.IsValidDateTime(*r.CheckOutInstant)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   prefix + "check_out_instant",
				Message: "check_out_instant must be an RFC3339 timestamp",
			})
		} else {
			utc := checkOut.UTC()
			r.CheckOut = &utc
		}
	}

	if r.CheckOut != nil && !r.CheckIn.IsZero() && r.CheckOut.Before(r.CheckIn) {
		errs = append(errs, validator.ValidationError{
			Field:   prefix + "check_out_instant",
			Message: ErrCheckOutBeforeCheckIn.Error(),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToRecord returns the record view of a validated request.
func (r EvaluateRequest) ToRecord() Record {
	rec := Record{
		EmployeeID: r.EmployeeID,
		CheckIn:    r.CheckIn,
		CheckOut:   r.CheckOut,
	}
	if r.Department != nil && !validator.IsEmpty(*r.Department) {
		rec.Department = r.Department
	}
	return rec
}

type BatchEvaluateRequest struct {
	Records []EvaluateRequest `json:"records"`
}

func (r *BatchEvaluateRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.Records) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "records",
			Message: "at least one record is required",
		})
	}

	if len(r.Records) > MaxBatchSize {
		errs = append(errs, validator.ValidationError{
			Field:   "records",
			Message: fmt.Sprintf("%s: at most %d records", ErrBatchTooLarge, MaxBatchSize),
		})
		return errs
	}

	for i := range r.Records {
		if err := r.Records[i].validate(fmt.Sprintf("records[%d].", i)); err != nil {
			if vErrs, ok := err.(validator.ValidationErrors); ok {
				errs = append(errs, vErrs...)
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type EvaluationResponse struct {
	EmployeeID        string `json:"employee_id,omitempty"`
	CheckInStatus     string `json:"check_in_status"`
	CheckOutStatus    string `json:"check_out_status"`
	IsLate            *bool  `json:"is_late,omitempty"`
	IsEarlyLeave      *bool  `json:"is_early_leave,omitempty"`
	LateMinutes       *int   `json:"late_minutes,omitempty"`
	EarlyLeaveMinutes *int   `json:"early_leave_minutes,omitempty"`
	PolicyID          string `json:"policy_id,omitempty"`
	PolicyScope       string `json:"policy_scope,omitempty"`
	Error             string `json:"error,omitempty"`
}

// Summary aggregates a batch the way the admin dashboard reports a day.
type Summary struct {
	Total            int     `json:"total"`
	OnTime           int     `json:"on_time"`
	LateArrivals     int     `json:"late_arrivals"`
	EarlyDepartures  int     `json:"early_departures"`
	PendingCheckOuts int     `json:"pending_check_outs"`
	Unknown          int     `json:"unknown"`
	AverageWorkHours float64 `json:"average_work_hours"`
}

type BatchEvaluationResponse struct {
	Results []EvaluationResponse `json:"results"`
	Summary Summary              `json:"summary"`
}
