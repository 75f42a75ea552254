package timing

import "errors"

var (
	// Resolution errors
	ErrPolicyNotConfigured = errors.New("no active office timing policy configured")
	ErrPolicyNotFound      = errors.New("office timing policy not found")

	// Policy shape errors
	ErrPolicyInvalid    = errors.New("office timing policy is invalid")
	ErrInvalidClockTime = errors.New("invalid time of day, use HH:MM")
	ErrInvalidOffset    = errors.New("invalid timezone offset, use +HH:MM")
)
