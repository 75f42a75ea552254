package timing

import (
	"strings"

	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/validator"
)

type SavePolicyRequest struct {
	ID                   *string `json:"id,omitempty"`
	Department           *string `json:"department"`
	StartTime            string  `json:"start_time"`
	EndTime              string  `json:"end_time"`
	CheckInGraceMinutes  int     `json:"check_in_grace_minutes"`
	CheckOutGraceMinutes int     `json:"check_out_grace_minutes"`
	IsActive             *bool   `json:"is_active,omitempty"`
	TimezoneOffset       string  `json:"timezone_offset"`
}

func (r *SavePolicyRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.ID != nil && !validator.IsValidUUID(*r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id must be a valid UUIDv7",
		})
	}

	if r.Department != nil {
		trimmed := strings.TrimSpace(*r.Department)
		if trimmed == "" {
			// blank department means global scope
			r.Department = nil
		} else {
			r.Department = &trimmed
		}
	}

	if !validator.IsValidClock(r.StartTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "start_time",
			Message: "start_time must be HH:MM",
		})
	}

	if !validator.IsValidClock(r.EndTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must be HH:MM",
		})
	}

	if r.CheckInGraceMinutes < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "check_in_grace_minutes",
			Message: "check_in_grace_minutes must not be negative",
		})
	}

	if r.CheckOutGraceMinutes < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "check_out_grace_minutes",
			Message: "check_out_grace_minutes must not be negative",
		})
	}

	if r.TimezoneOffset == "" {
		r.TimezoneOffset = "Z"
	}
	if !validator.IsValidOffset(r.TimezoneOffset) {
		errs = append(errs, validator.ValidationError{
			Field:   "timezone_offset",
			Message: "timezone_offset must be Z or +HH:MM",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToPolicy converts a validated request into a policy. The result still has to
// pass OfficeTimingPolicy.Validate.
func (r SavePolicyRequest) ToPolicy() (OfficeTimingPolicy, error) {
	start, err := ParseClock(r.StartTime)
	if err != nil {
		return OfficeTimingPolicy{}, err
	}
	end, err := ParseClock(r.EndTime)
	if err != nil {
		return OfficeTimingPolicy{}, err
	}
	offset, err := ParseUTCOffset(r.TimezoneOffset)
	if err != nil {
		return OfficeTimingPolicy{}, err
	}

	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}

	p := OfficeTimingPolicy{
		Department:           r.Department,
		StartTime:            start,
		EndTime:              end,
		CheckInGraceMinutes:  r.CheckInGraceMinutes,
		CheckOutGraceMinutes: r.CheckOutGraceMinutes,
		IsActive:             active,
		Offset:               offset,
	}
	if r.ID != nil {
		p.ID = *r.ID
	}
	return p, nil
}

type PolicyFilter struct {
	Department *string `json:"department,omitempty"`
	ActiveOnly bool    `json:"active_only"`
}

type PolicyResponse struct {
	ID                   string  `json:"id"`
	Department           *string `json:"department"`
	Scope                string  `json:"scope"`
	StartTime            string  `json:"start_time"`
	EndTime              string  `json:"end_time"`
	CheckInGraceMinutes  int     `json:"check_in_grace_minutes"`
	CheckOutGraceMinutes int     `json:"check_out_grace_minutes"`
	IsActive             bool    `json:"is_active"`
	TimezoneOffset       string  `json:"timezone_offset"`
	CreatedAt            string  `json:"created_at,omitempty"`
	UpdatedAt            string  `json:"updated_at,omitempty"`
}

func NewPolicyResponse(p OfficeTimingPolicy) PolicyResponse {
	resp := PolicyResponse{
		ID:                   p.ID,
		Department:           p.Department,
		Scope:                p.Scope(),
		StartTime:            p.StartTime.String(),
		EndTime:              p.EndTime.String(),
		CheckInGraceMinutes:  p.CheckInGraceMinutes,
		CheckOutGraceMinutes: p.CheckOutGraceMinutes,
		IsActive:             p.IsActive,
		TimezoneOffset:       p.Offset.String(),
	}
	if !p.CreatedAt.IsZero() {
		resp.CreatedAt = p.CreatedAt.UTC().Format("2006-01-02 15:04:05")
	}
	if !p.UpdatedAt.IsZero() {
		resp.UpdatedAt = p.UpdatedAt.UTC().Format("2006-01-02 15:04:05")
	}
	return resp
}
