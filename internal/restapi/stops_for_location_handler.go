package restapi

import (
	"net/http"
	"net/url"

	"transitfinder.org/internal/models"
	"transitfinder.org/internal/utils"
)

// nearbyStop is a stop as listed by the location searches.
type nearbyStop struct {
	models.Stop
	DistanceLabel string `json:"distanceLabel,omitempty"`
}

func nearbyStops(stops []models.Stop) []nearbyStop {
	list := make([]nearbyStop, len(stops))
	for i, s := range stops {
		list[i] = nearbyStop{Stop: s}
		if s.HasLocation() {
			list[i].DistanceLabel = utils.FormatDistance(s.DistanceMiles)
		}
	}
	return list
}

func requireParams(params url.Values, fieldErrors map[string][]string, keys ...string) map[string][]string {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}
	for _, key := range keys {
		if params.Get(key) == "" {
			fieldErrors[key] = append(fieldErrors[key], "Missing required field \""+key+"\".")
		}
	}
	return fieldErrors
}

func (api *RestAPI) stopsForLocationHandler(w http.ResponseWriter, r *http.Request) {
	queryParams := r.URL.Query()

	fieldErrors := requireParams(queryParams, nil, "lat", "lon")
	lat, fieldErrors := utils.ParseFloatParam(queryParams, "lat", fieldErrors)
	lon, fieldErrors := utils.ParseFloatParam(queryParams, "lon", fieldErrors)
	radius, fieldErrors := utils.ParseFloatParam(queryParams, "radius", fieldErrors)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}
	if fieldErrors := utils.ValidateLocationParams(lat, lon, radius); len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	stops, err := api.Nearby.FindStops(r.Context(), models.LatLng{Lat: lat, Lng: lon}, radius)
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewListResponseWithRange(nearbyStops(stops), models.NewEmptyReferences(), len(stops) == 0))
}
