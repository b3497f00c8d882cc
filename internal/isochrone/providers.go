package isochrone

import (
	"context"
	"time"

	"transitfinder.org/internal/models"
)

// Geocoder resolves a free-form address. It returns ErrNotFound when nothing matches.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.LatLng, error)
}

// StopFinder is a best-effort source of transit stops around a point.
type StopFinder interface {
	FindNearbyStops(ctx context.Context, center models.LatLng, radiusMeters float64) ([]models.Stop, error)
}

// PlacesFinder returns categorized points of interest around a point.
type PlacesFinder interface {
	FindNearbyPlaces(ctx context.Context, center models.LatLng, category string, radiusMeters float64) ([]models.Place, error)
}

// DepartureWindow bounds the departures a schedule provider should return.
type DepartureWindow struct {
	From     time.Time
	Duration time.Duration
}

// Contains reports whether t falls inside the window.
func (w DepartureWindow) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.From.Add(w.Duration))
}

type ScheduleProvider interface {
	Departures(ctx context.Context, stopID string, window DepartureWindow) ([]models.Departure, error)
	TripStopTimes(ctx context.Context, routeID, tripID, serviceDate string) ([]models.TripStopTime, error)
}

// MarkerCommand replaces the markers a map surface shows for one computation.
type MarkerCommand struct {
	ComputationID string          `json:"computationId"`
	ClientID      string          `json:"clientId,omitempty"`
	Clear         bool            `json:"clear"`
	Markers       []models.Marker `json:"markers"`
}

// MarkerSink delivers marker commands to whatever renders the map.
type MarkerSink interface {
	PublishMarkers(ctx context.Context, cmd MarkerCommand) error
}

// Observer receives per-computation measurements.
type Observer interface {
	ObserveComputation(outcome string, duration time.Duration, reachable int)
}

type nopObserver struct{}

func (nopObserver) ObserveComputation(string, time.Duration, int) {}
