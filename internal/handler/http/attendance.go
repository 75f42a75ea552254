package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-core-go/internal/handler/http/response"
)

// maxBatchBody bounds the JSON body of a batch evaluation.
const maxBatchBody = 1 << 20

type AttendanceHandler interface {
	Evaluate(w http.ResponseWriter, r *http.Request)
	EvaluateBatch(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// Evaluate implements AttendanceHandler.
func (h *attendanceHandlerImpl) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req attendance.EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("Failed to decode evaluate request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.EvaluateRecord(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// EvaluateBatch implements AttendanceHandler.
func (h *attendanceHandlerImpl) EvaluateBatch(w http.ResponseWriter, r *http.Request) {
	var req attendance.BatchEvaluateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBody)).Decode(&req); err != nil {
		slog.Debug("Failed to decode batch evaluate request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.EvaluateBatch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
