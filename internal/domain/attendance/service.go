package attendance

import (
	"context"
)

// AttendanceService evaluates attendance records against the resolved office timing policy.
type AttendanceService interface {
	// EvaluateRecord resolves the policy for the record's department and evaluates it.
	EvaluateRecord(ctx context.Context, req EvaluateRequest) (EvaluationResponse, error)

	// EvaluateBatch evaluates many records. Records whose policy cannot be
	// resolved are reported as unknown instead of failing the batch.
	EvaluateBatch(ctx context.Context, req BatchEvaluateRequest) (BatchEvaluationResponse, error)
}
