package attendance

import "errors"

var (
	ErrCheckInRequired       = errors.New("check-in instant is required")
	ErrCheckOutBeforeCheckIn = errors.New("check-out must not be before check-in")
	ErrBatchTooLarge         = errors.New("too many records in batch")
)
