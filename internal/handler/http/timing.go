package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/timing"
	"github.com/cmlabs-hris/attendance-core-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type TimingHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Resolve(w http.ResponseWriter, r *http.Request)
	Save(w http.ResponseWriter, r *http.Request)
	Deactivate(w http.ResponseWriter, r *http.Request)
}

type timingHandlerImpl struct {
	policyService timing.PolicyService
}

func NewTimingHandler(policyService timing.PolicyService) TimingHandler {
	return &timingHandlerImpl{
		policyService: policyService,
	}
}

// List implements TimingHandler.
func (h *timingHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	var filter timing.PolicyFilter

	if department := strings.TrimSpace(r.URL.Query().Get("department")); department != "" {
		filter.Department = &department
	}
	if activeOnly := r.URL.Query().Get("active_only"); activeOnly != "" {
		v, err := strconv.ParseBool(activeOnly)
		if err != nil {
			response.BadRequest(w, "active_only must be a boolean", nil)
			return
		}
		filter.ActiveOnly = v
	}

	policies, err := h.policyService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, policies)
}

// Resolve implements TimingHandler.
func (h *timingHandlerImpl) Resolve(w http.ResponseWriter, r *http.Request) {
	policy, err := h.policyService.Resolve(r.Context(), r.URL.Query().Get("department"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, timing.NewPolicyResponse(policy))
}

// Save implements TimingHandler.
func (h *timingHandlerImpl) Save(w http.ResponseWriter, r *http.Request) {
	var req timing.SavePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("Failed to decode office timing request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	policy, err := h.policyService.Save(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Office timing saved successfully", policy)
}

// Deactivate implements TimingHandler.
func (h *timingHandlerImpl) Deactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.policyService.Deactivate(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Office timing deactivated successfully", nil)
}
