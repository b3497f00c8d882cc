package restapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"transitfinder.org/internal/isochrone"
	"transitfinder.org/internal/logging"
	"transitfinder.org/internal/models"
)

// errorEnvelope is the version 1 body every error response carries.
type errorEnvelope struct {
	Code        int    `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	Text        string `json:"text"`
	Version     int    `json:"version"`
}

func (api *RestAPI) errorResponse(w http.ResponseWriter, r *http.Request, status int, text string) {
	api.writeJSON(w, r, status, errorEnvelope{
		Code:        status,
		CurrentTime: models.ResponseCurrentTime(),
		Text:        text,
		Version:     1,
	})
}

func (api *RestAPI) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	api.errorResponse(w, r, http.StatusUnauthorized, "permission denied")
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(api.Logger, "request failed", err,
		slog.String("component", "http_server"),
		slog.String("path", r.URL.Path))
	api.errorResponse(w, r, http.StatusInternalServerError, "internal server error")
}

// providerUnavailableResponse reports that an upstream data source could not answer.
func (api *RestAPI) providerUnavailableResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(api.Logger, "provider unavailable", err,
		slog.String("component", "http_server"),
		slog.String("path", r.URL.Path))
	w.Header().Set("Retry-After", "30")
	api.errorResponse(w, r, http.StatusServiceUnavailable, "upstream provider unavailable")
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	api.writeJSON(w, r, http.StatusBadRequest, struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}{FieldErrors: fieldErrors})
}

// handleError maps a classified failure to its response.
func (api *RestAPI) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, isochrone.ErrNotFound):
		api.errorResponse(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, isochrone.ErrInvalidRequest):
		api.errorResponse(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, isochrone.ErrProviderUnavailable):
		api.providerUnavailableResponse(w, r, err)
	case errors.Is(err, isochrone.ErrInvalidSchedule):
		api.errorResponse(w, r, http.StatusBadGateway, "schedule data for this stop is invalid")
	case errors.Is(err, isochrone.ErrSuperseded):
		api.errorResponse(w, r, http.StatusConflict, "superseded by a newer request")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		api.errorResponse(w, r, http.StatusRequestTimeout, "request canceled")
	default:
		api.serverErrorResponse(w, r, err)
	}
}
