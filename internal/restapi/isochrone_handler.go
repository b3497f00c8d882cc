package restapi

import (
	"net/http"

	"transitfinder.org/internal/isochrone"
	"transitfinder.org/internal/models"
	"transitfinder.org/internal/utils"
)

const defaultBudgetMinutes = 30

// isochroneHandler computes the stops reachable from the stop in the path
// within ?minutes of riding.
func (api *RestAPI) isochroneHandler(w http.ResponseWriter, r *http.Request) {
	queryParams := r.URL.Query()
	fieldErrors := make(map[string][]string)

	stopID := utils.ExtractIDFromParams(r, "id")
	if err := utils.ValidateID(stopID); err != nil {
		fieldErrors["id"] = append(fieldErrors["id"], err.Error())
	}

	name, err := utils.ValidateAndSanitizeQuery(queryParams.Get("name"))
	if err != nil {
		fieldErrors["name"] = append(fieldErrors["name"], err.Error())
	} else if name == "" {
		fieldErrors["name"] = append(fieldErrors["name"], `Missing required field "name".`)
	}

	code := queryParams.Get("code")
	if code != "" {
		if err := utils.ValidateID(code); err != nil {
			fieldErrors["code"] = append(fieldErrors["code"], err.Error())
		}
	}

	client := queryParams.Get("client")
	if client != "" {
		if err := utils.ValidateID(client); err != nil {
			fieldErrors["client"] = append(fieldErrors["client"], err.Error())
		}
	}

	minutes, fieldErrors := utils.ParseIntParam(queryParams, "minutes", defaultBudgetMinutes, fieldErrors)
	if _, bad := fieldErrors["minutes"]; !bad {
		if err := utils.ValidateBudget(minutes); err != nil {
			fieldErrors["minutes"] = append(fieldErrors["minutes"], err.Error())
		}
	}

	withContext, fieldErrors := utils.ParseBoolParam(queryParams, "context", fieldErrors)

	start, startErrors, ok := utils.ParseStartParameter(queryParams.Get("start"), api.CurrentTime())
	if !ok {
		for k, v := range startErrors {
			fieldErrors[k] = append(fieldErrors[k], v...)
		}
	}

	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	result, err := api.Engine.Compute(r.Context(), isochrone.Request{
		Origin:        isochrone.Origin{StopID: stopID, StopCode: code, Name: name},
		BudgetMinutes: minutes,
		StartMinutes:  start,
		WithContext:   withContext,
		ClientID:      client,
	})
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	references := models.NewEmptyReferences()
	references.Routes = append(references.Routes, result.Route)
	api.sendResponse(w, r, models.NewEntryResponse(result, references))
}
