package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/location"
	"github.com/cmlabs-hris/attendance-core-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type LocationHandler interface {
	PushReading(w http.ResponseWriter, r *http.Request)
	Locate(w http.ResponseWriter, r *http.Request)
}

type locationHandlerImpl struct {
	locationService location.LocationService
}

func NewLocationHandler(locationService location.LocationService) LocationHandler {
	return &locationHandlerImpl{
		locationService: locationService,
	}
}

// PushReading implements LocationHandler.
func (h *locationHandlerImpl) PushReading(w http.ResponseWriter, r *http.Request) {
	var req location.PushReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("Failed to decode reading", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := h.locationService.PushReading(r.Context(), chi.URLParam(r, "deviceID"), req); err != nil {
		response.HandleError(w, err)
		return
	}

	response.Accepted(w, "Reading accepted")
}

// Locate implements LocationHandler. An empty body runs a precise
// acquisition with the configured defaults.
func (h *locationHandlerImpl) Locate(w http.ResponseWriter, r *http.Request) {
	var req location.LocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		slog.Debug("Failed to decode locate request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.locationService.Locate(r.Context(), chi.URLParam(r, "deviceID"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
