package restapi

import (
	"net/http"

	"transitfinder.org/internal/models"
	"transitfinder.org/internal/utils"
)

// isochroneEstimateHandler lists the stops a rider could reach from the stop
// in the path judging by distance and average vehicle speed alone.
func (api *RestAPI) isochroneEstimateHandler(w http.ResponseWriter, r *http.Request) {
	queryParams := r.URL.Query()

	stopID := utils.ExtractIDFromParams(r, "id")
	fieldErrors := requireParams(queryParams, nil, "lat", "lon")
	if err := utils.ValidateID(stopID); err != nil {
		fieldErrors["id"] = append(fieldErrors["id"], err.Error())
	}

	lat, fieldErrors := utils.ParseFloatParam(queryParams, "lat", fieldErrors)
	lon, fieldErrors := utils.ParseFloatParam(queryParams, "lon", fieldErrors)
	if _, bad := fieldErrors["lat"]; !bad {
		if err := utils.ValidateLatitude(lat); err != nil {
			fieldErrors["lat"] = append(fieldErrors["lat"], err.Error())
		}
	}
	if _, bad := fieldErrors["lon"]; !bad {
		if err := utils.ValidateLongitude(lon); err != nil {
			fieldErrors["lon"] = append(fieldErrors["lon"], err.Error())
		}
	}

	name, err := utils.ValidateAndSanitizeQuery(queryParams.Get("name"))
	if err != nil {
		fieldErrors["name"] = append(fieldErrors["name"], err.Error())
	}

	mode := models.TransitMode(queryParams.Get("mode"))
	switch mode {
	case "":
		mode = models.ModeTransit
	case models.ModeBus, models.ModeTrain, models.ModeTransit:
	default:
		fieldErrors["mode"] = append(fieldErrors["mode"], "mode must be bus, train or transit")
	}

	minutes, fieldErrors := utils.ParseIntParam(queryParams, "minutes", defaultBudgetMinutes, fieldErrors)
	if _, bad := fieldErrors["minutes"]; !bad {
		if err := utils.ValidateBudget(minutes); err != nil {
			fieldErrors["minutes"] = append(fieldErrors["minutes"], err.Error())
		}
	}

	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	origin := models.NewStop(stopID, name, lat, lon, mode, models.PrimarySource)
	stops, err := api.Nearby.Estimate(r.Context(), origin, minutes)
	if err != nil {
		api.handleError(w, r, err)
		return
	}
	if stops == nil {
		stops = []models.EstimatedStop{}
	}

	api.sendResponse(w, r, models.NewListResponseWithRange(stops, models.NewEmptyReferences(), len(stops) == 0))
}
