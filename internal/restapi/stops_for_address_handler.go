package restapi

import (
	"net/http"

	"transitfinder.org/internal/models"
	"transitfinder.org/internal/utils"
)

func (api *RestAPI) stopsForAddressHandler(w http.ResponseWriter, r *http.Request) {
	queryParams := r.URL.Query()

	fieldErrors := requireParams(queryParams, nil, "address")
	radius, fieldErrors := utils.ParseFloatParam(queryParams, "radius", fieldErrors)
	address, err := utils.ValidateAndSanitizeQuery(queryParams.Get("address"))
	if err != nil {
		fieldErrors["address"] = append(fieldErrors["address"], err.Error())
	}
	if radius != 0 {
		if err := utils.ValidateRadius(radius); err != nil {
			fieldErrors["radius"] = append(fieldErrors["radius"], err.Error())
		}
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	center, stops, err := api.Nearby.SearchAddress(r.Context(), address, radius)
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewOKResponse(map[string]interface{}{
		"center":        center,
		"limitExceeded": false,
		"list":          nearbyStops(stops),
		"outOfRange":    len(stops) == 0,
		"references":    models.NewEmptyReferences(),
	}))
}
