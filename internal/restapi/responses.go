package restapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"transitfinder.org/internal/logging"
	"transitfinder.org/internal/models"
)

func (api *RestAPI) sendResponse(w http.ResponseWriter, r *http.Request, response models.ResponseModel) {
	api.writeJSON(w, r, http.StatusOK, response)
}

func (api *RestAPI) sendNotFound(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, r, http.StatusNotFound, models.NewResponse(http.StatusNotFound, nil, "resource not found"))
}

func (api *RestAPI) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	setJSONResponseType(w)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to encode response", err,
			slog.String("component", "http_server"),
			slog.String("path", r.URL.Path))
	}
}

func setJSONResponseType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
}
