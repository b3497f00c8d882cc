package app

import (
	"log/slog"
	"time"

	"transitfinder.org/internal/appconf"
	"transitfinder.org/internal/isochrone"
	"transitfinder.org/internal/metrics"
)

// Application holds the dependencies shared by the HTTP handlers, helpers
// and middleware.
type Application struct {
	Config  appconf.Config
	Logger  *slog.Logger
	Engine  *isochrone.Engine
	Nearby  *isochrone.NearbySearch
	Metrics *metrics.Collector
	// Location is the agency time zone journey start times are read in.
	Location *time.Location
	Now      func() time.Time
}

// CurrentTime is Now in the agency time zone.
func (app *Application) CurrentTime() time.Time {
	now := time.Now
	if app.Now != nil {
		now = app.Now
	}
	if app.Location == nil {
		return now()
	}
	return now().In(app.Location)
}
