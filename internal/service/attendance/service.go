package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-core-go/internal/domain/timing"
	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// batchConcurrency bounds the goroutines of one batch evaluation.
const batchConcurrency = 16

type AttendanceServiceImpl struct {
	resolver timing.Resolver
	metrics  *metrics.Instruments
}

func NewAttendanceService(resolver timing.Resolver) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		resolver: resolver,
		metrics:  metrics.Default(),
	}
}

// EvaluateRecord implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) EvaluateRecord(ctx context.Context, req attendance.EvaluateRequest) (attendance.EvaluationResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.EvaluationResponse{}, err
	}

	rec := req.ToRecord()
	policy, status, err := s.evaluate(ctx, rec)
	if err != nil {
		return attendance.EvaluationResponse{}, err
	}

	return newEvaluationResponse(rec, policy, status), nil
}

// EvaluateBatch implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) EvaluateBatch(ctx context.Context, req attendance.BatchEvaluateRequest) (attendance.BatchEvaluationResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.BatchEvaluationResponse{}, err
	}

	results := make([]attendance.EvaluationResponse, len(req.Records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for i := range req.Records {
		rec := req.Records[i].ToRecord()
		g.Go(func() error {
			policy, status, err := s.evaluate(gctx, rec)
			switch {
			case err == nil:
				results[i] = newEvaluationResponse(rec, policy, status)
			case errors.Is(err, timing.ErrPolicyNotConfigured), errors.Is(err, timing.ErrPolicyInvalid):
				results[i] = unknownResponse(rec, err)
			default:
				return fmt.Errorf("failed to evaluate record %d: %w", i, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return attendance.BatchEvaluationResponse{}, err
	}

	summary := Summarize(req.Records, results)

	slog.Info("Attendance batch evaluated",
		"total", summary.Total,
		"late_arrivals", summary.LateArrivals,
		"early_departures", summary.EarlyDepartures,
		"unknown", summary.Unknown,
	)

	return attendance.BatchEvaluationResponse{
		Results: results,
		Summary: summary,
	}, nil
}

func (s *AttendanceServiceImpl) evaluate(ctx context.Context, rec attendance.Record) (timing.OfficeTimingPolicy, attendance.EvaluatedStatus, error) {
	department := ""
	if rec.Department != nil {
		department = *rec.Department
	}

	policy, err := s.resolver.Resolve(ctx, department)
	if err != nil {
		s.metrics.RecordEvaluation(ctx, attendance.StatusUnknown, attendance.StatusUnknown)
		return timing.OfficeTimingPolicy{}, attendance.EvaluatedStatus{}, err
	}

	status, err := Evaluate(rec.CheckIn, rec.CheckOut, policy)
	if err != nil {
		s.metrics.RecordEvaluation(ctx, attendance.StatusUnknown, attendance.StatusUnknown)
		slog.Warn("Office timing policy rejected during evaluation",
			"policy_id", policy.ID,
			"scope", policy.Scope(),
			"error", err,
		)
		return policy, attendance.EvaluatedStatus{}, err
	}

	s.metrics.RecordEvaluation(ctx, string(status.CheckIn), string(status.CheckOut))
	return policy, status, nil
}

// Summarize counts a batch the way the daily dashboard does. Average work
// hours only cover records with both a check-in and a check-out.
func Summarize(requests []attendance.EvaluateRequest, results []attendance.EvaluationResponse) attendance.Summary {
	var (
		summary   attendance.Summary
		worked    time.Duration
		completed int
	)

	summary.Total = len(results)
	for i, res := range results {
		if res.CheckInStatus == attendance.StatusUnknown {
			summary.Unknown++
			continue
		}

		late := res.CheckInStatus == string(attendance.CheckInLate)
		early := res.CheckOutStatus == string(attendance.CheckOutEarly)
		if late {
			summary.LateArrivals++
		}
		if early {
			summary.EarlyDepartures++
		}
		if res.CheckOutStatus == string(attendance.CheckOutPending) {
			summary.PendingCheckOuts++
		}
		if !late && !early {
			summary.OnTime++
		}

		if i < len(requests) && requests[i].CheckOut != nil {
			worked += requests[i].CheckOut.Sub(requests[i].CheckIn)
			completed++
		}
	}

	if completed > 0 {
		avg := worked.Hours() / float64(completed)
		summary.AverageWorkHours = float64(int(avg*100+0.5)) / 100
	}

	return summary
}

func newEvaluationResponse(rec attendance.Record, policy timing.OfficeTimingPolicy, status attendance.EvaluatedStatus) attendance.EvaluationResponse {
	isLate := status.IsLate()
	resp := attendance.EvaluationResponse{
		EmployeeID:     rec.EmployeeID,
		CheckInStatus:  string(status.CheckIn),
		CheckOutStatus: string(status.CheckOut),
		IsLate:         &isLate,
		LateMinutes:    &status.LateMinutes,
		PolicyID:       policy.ID,
		PolicyScope:    policy.Scope(),
	}

	if status.CheckOut != attendance.CheckOutPending {
		isEarlyLeave := status.IsEarlyLeave()
		resp.IsEarlyLeave = &isEarlyLeave
		resp.EarlyLeaveMinutes = &status.EarlyLeaveMinutes
	}

	return resp
}

func unknownResponse(rec attendance.Record, err error) attendance.EvaluationResponse {
	return attendance.EvaluationResponse{
		EmployeeID:     rec.EmployeeID,
		CheckInStatus:  attendance.StatusUnknown,
		CheckOutStatus: attendance.StatusUnknown,
		Error:          err.Error(),
	}
}
