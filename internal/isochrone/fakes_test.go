package isochrone

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"transitfinder.org/internal/models"
)

// makeStopTimes builds n stops starting at 08:00:00, rideSeconds apart.
func makeStopTimes(n int, rideSeconds int) []models.TripStopTime {
	out := make([]models.TripStopTime, n)
	t := 8 * 3600
	for i := 0; i < n; i++ {
		clock := fmt.Sprintf("%02d:%02d:%02d", t/3600, (t/60)%60, t%60)
		out[i] = models.TripStopTime{
			Sequence:  i + 1,
			StopID:    fmt.Sprintf("s-%d", i),
			StopCode:  fmt.Sprintf("%d", 100+i),
			StopName:  fmt.Sprintf("Stop %d", i),
			Location:  &models.LatLng{Lat: 37.70 + float64(i)*0.01, Lng: -122.40},
			Arrival:   clock,
			Departure: clock,
		}
		t += rideSeconds
	}
	return out
}

type fakeSchedule struct {
	departures   []models.Departure
	departureErr error
	stopTimes    map[string][]models.TripStopTime
	tripErr      error
	onDepartures func()

	mu          sync.Mutex
	gotWindow   DepartureWindow
	gotStopID   string
	gotTripArgs []string
}

func (f *fakeSchedule) Departures(_ context.Context, stopID string, window DepartureWindow) ([]models.Departure, error) {
	f.mu.Lock()
	f.gotStopID = stopID
	f.gotWindow = window
	hook := f.onDepartures
	f.onDepartures = nil
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if f.departureErr != nil {
		return nil, f.departureErr
	}
	return f.departures, nil
}

func (f *fakeSchedule) TripStopTimes(_ context.Context, routeID, tripID, serviceDate string) ([]models.TripStopTime, error) {
	f.mu.Lock()
	f.gotTripArgs = []string{routeID, tripID, serviceDate}
	f.mu.Unlock()

	if f.tripErr != nil {
		return nil, f.tripErr
	}
	return f.stopTimes[tripID], nil
}

func scheduleFor(stopTimes []models.TripStopTime) *fakeSchedule {
	return &fakeSchedule{
		departures: []models.Departure{{
			TripID:      "trip-1",
			Route:       models.Route{ID: "r-38", ShortName: "38", LongName: "Geary", Mode: models.ModeBus},
			Headsign:    "Ocean Beach",
			ServiceDate: "2025-05-03",
		}},
		stopTimes: map[string][]models.TripStopTime{"trip-1": stopTimes},
	}
}

type fakePlaces struct {
	fn       func(center models.LatLng, category string) ([]models.Place, error)
	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64
	delay    time.Duration
}

func (f *fakePlaces) FindNearbyPlaces(ctx context.Context, center models.LatLng, category string, _ float64) ([]models.Place, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fn == nil {
		return nil, nil
	}
	return f.fn(center, category)
}

func places(n int) []models.Place {
	out := make([]models.Place, n)
	for i := range out {
		out[i] = models.Place{ID: fmt.Sprintf("p-%d", i), Name: fmt.Sprintf("Place %d", i)}
	}
	return out
}

type fakeFinder struct {
	stops []models.Stop
	err   error
}

func (f fakeFinder) FindNearbyStops(context.Context, models.LatLng, float64) ([]models.Stop, error) {
	return f.stops, f.err
}

type fakeGeocoder struct {
	location models.LatLng
	err      error
}

func (f fakeGeocoder) Geocode(context.Context, string) (models.LatLng, error) {
	return f.location, f.err
}

type recordingSink struct {
	mu       sync.Mutex
	commands []MarkerCommand
	err      error
}

func (r *recordingSink) PublishMarkers(_ context.Context, cmd MarkerCommand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	return r.err
}

type observation struct {
	outcome   string
	reachable int
}

type recordingObserver struct {
	mu           sync.Mutex
	observations []observation
}

func (r *recordingObserver) ObserveComputation(outcome string, _ time.Duration, reachable int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observations = append(r.observations, observation{outcome: outcome, reachable: reachable})
}

func formatSeconds(t int) string {
	return fmt.Sprintf("%02d:%02d:%02d", t/3600, (t/60)%60, t%60)
}
