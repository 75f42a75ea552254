package attendance

import (
	"time"
)

// Record is the slice of an attendance record this core reads. It is owned by
// the attendance record service and never written here.
type Record struct {
	EmployeeID string
	CheckIn    time.Time
	CheckOut   *time.Time
	Department *string
}

type CheckInStatus string

const (
	CheckInOnTime CheckInStatus = "on_time"
	CheckInLate   CheckInStatus = "late"
)

type CheckOutStatus string

const (
	CheckOutOnTime  CheckOutStatus = "on_time"
	CheckOutEarly   CheckOutStatus = "early"
	CheckOutPending CheckOutStatus = "pending"
)

// StatusUnknown marks a record whose policy could not be resolved or was invalid.
const StatusUnknown = "unknown"

// EvaluatedStatus is the compliance verdict for one record. It is computed per
// request and never persisted by this core.
type EvaluatedStatus struct {
	CheckIn           CheckInStatus
	CheckOut          CheckOutStatus
	LateMinutes       int
	EarlyLeaveMinutes int
}

func (s EvaluatedStatus) IsLate() bool {
	return s.CheckIn == CheckInLate
}

func (s EvaluatedStatus) IsEarlyLeave() bool {
	return s.CheckOut == CheckOutEarly
}
