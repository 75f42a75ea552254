package attendance

import (
	"math"
	"time"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-core-go/internal/domain/timing"
)

// Evaluate classifies a check-in and optional check-out against policy. The
// instants are read in the policy's fixed offset and compared at second
// resolution against whole-minute thresholds; landing exactly on a threshold
// is on time. A nil checkOut yields CheckOutPending.
//
// Second resolution is a product decision: with a 10:00 start and 15 minutes
// of grace, 10:15:00 is on time and 10:15:01 is late, and 18:49:59 leaves
// early against an 18:50 threshold. Truncating to the minute instead would
// make both on time; changing it needs product sign-off.
func Evaluate(checkIn time.Time, checkOut *time.Time, policy timing.OfficeTimingPolicy) (attendance.EvaluatedStatus, error) {
	if err := policy.Validate(); err != nil {
		return attendance.EvaluatedStatus{}, err
	}
	if checkIn.IsZero() {
		return attendance.EvaluatedStatus{}, attendance.ErrCheckInRequired
	}

	loc := policy.Offset.Location()
	status := attendance.EvaluatedStatus{
		CheckIn:  attendance.CheckInOnTime,
		CheckOut: attendance.CheckOutPending,
	}

	inLocal := checkIn.In(loc).Truncate(time.Second)
	scheduledIn := atClock(inLocal, policy.StartTime)
	lateAfter := scheduledIn.Add(time.Duration(policy.CheckInGraceMinutes) * time.Minute)

	if inLocal.After(lateAfter) {
		status.CheckIn = attendance.CheckInLate
		status.LateMinutes = int(math.Floor(inLocal.Sub(scheduledIn).Minutes()))
	}

	if checkOut == nil {
		return status, nil
	}

	outLocal := checkOut.In(loc).Truncate(time.Second)
	scheduledOut := atClock(outLocal, policy.EndTime)
	earlyBefore := scheduledOut.Add(-time.Duration(policy.CheckOutGraceMinutes) * time.Minute)

	status.CheckOut = attendance.CheckOutOnTime
	if outLocal.Before(earlyBefore) {
		status.CheckOut = attendance.CheckOutEarly
		status.EarlyLeaveMinutes = int(math.Floor(scheduledOut.Sub(outLocal).Minutes()))
	}

	return status, nil
}

// atClock anchors a time of day on the calendar date of t, in t's location.
func atClock(t time.Time, c timing.ClockTime) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour(), c.Minute(), 0, 0, t.Location())
}
