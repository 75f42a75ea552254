package timing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/validator"
)

// OfficeTimingPolicy is the office-hours rule for one department, or for the
// whole company when Department is nil.
type OfficeTimingPolicy struct {
	ID                   string
	Department           *string
	StartTime            ClockTime
	EndTime              ClockTime
	CheckInGraceMinutes  int
	CheckOutGraceMinutes int
	IsActive             bool
	Offset               UTCOffset
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsGlobal reports whether the policy is the company-wide default.
func (p OfficeTimingPolicy) IsGlobal() bool {
	return p.Department == nil
}

// Scope returns "global" or the department name.
func (p OfficeTimingPolicy) Scope() string {
	if p.Department == nil {
		return ScopeGlobal
	}
	return *p.Department
}

// Validate checks the invariants the evaluator relies on. Overnight shifts
// (end before start) are rejected rather than interpreted.
func (p OfficeTimingPolicy) Validate() error {
	if !p.StartTime.Valid() || !p.EndTime.Valid() {
		return fmt.Errorf("%w: time of day out of range", ErrPolicyInvalid)
	}
	if p.EndTime <= p.StartTime {
		return fmt.Errorf("%w: end_time %s must be after start_time %s", ErrPolicyInvalid, p.EndTime, p.StartTime)
	}
	if p.CheckInGraceMinutes < 0 || p.CheckOutGraceMinutes < 0 {
		return fmt.Errorf("%w: grace minutes must not be negative", ErrPolicyInvalid)
	}
	if !p.Offset.Valid() {
		return fmt.Errorf("%w: timezone offset %d minutes out of range", ErrPolicyInvalid, int(p.Offset))
	}
	return nil
}

const ScopeGlobal = "global"

// ClockTime is a civil time of day in whole minutes since midnight.
type ClockTime int

const minutesPerDay = 24 * 60

func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClock parses "HH:MM" or "HH:MM:SS". Seconds must be zero: policy
// bounds are defined to the minute.
func ParseClock(s string) (ClockTime, error) {
	if !validator.IsValidClock(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}
	parts := strings.Split(s, ":")
	if len(parts) == 3 && parts[2] != "00" {
		return 0, fmt.Errorf("%w: %q has non-zero seconds", ErrInvalidClockTime, s)
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return NewClockTime(h, m), nil
}

func (c ClockTime) Valid() bool {
	return c >= 0 && c < minutesPerDay
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

// Duration returns the offset of c from midnight.
func (c ClockTime) Duration() time.Duration {
	return time.Duration(c) * time.Minute
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// UTCOffset is a fixed offset from UTC in minutes, east positive. There is no
// DST handling: the policy is evaluated in exactly this offset.
type UTCOffset int

const maxOffsetMinutes = 14 * 60

// ParseUTCOffset parses "Z", "+05:30" or "-03:00".
func ParseUTCOffset(s string) (UTCOffset, error) {
	if !validator.IsValidOffset(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
	}
	if s == "Z" {
		return 0, nil
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	h, _ := strconv.Atoi(s[1:3])
	m, _ := strconv.Atoi(s[4:6])
	o := UTCOffset(sign * (h*60 + m))
	if !o.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
	}
	return o, nil
}

func (o UTCOffset) Valid() bool {
	return o >= -maxOffsetMinutes && o <= maxOffsetMinutes
}

func (o UTCOffset) String() string {
	sign := '+'
	m := int(o)
	if m < 0 {
		sign = '-'
		m = -m
	}
	return fmt.Sprintf("%c%02d:%02d", sign, m/60, m%60)
}

// Location returns a fixed zone for the offset. The host's local zone is never consulted.
func (o UTCOffset) Location() *time.Location {
	return time.FixedZone("UTC"+o.String(), int(o)*60)
}
