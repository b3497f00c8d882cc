package restapi

import (
	"net/http"

	"transitfinder.org/internal/models"
)

func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	data := models.NewCurrentTimeData(api.CurrentTime())
	api.sendResponse(w, r, models.NewOKResponse(data))
}
