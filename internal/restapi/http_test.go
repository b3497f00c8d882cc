package restapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"transitfinder.org/internal/app"
	"transitfinder.org/internal/appconf"
	"transitfinder.org/internal/isochrone"
	"transitfinder.org/internal/logging"
	"transitfinder.org/internal/metrics"
	"transitfinder.org/internal/models"
)

var testNow = time.Date(2026, 10, 16, 7, 55, 0, 0, time.UTC)

// testSchedule serves one four-stop trip from Alpha: B at +5, C at +12 and
// D at +20 minutes.
type testSchedule struct {
	departuresErr error
	stopTimes     []models.TripStopTime
}

func (s *testSchedule) Departures(ctx context.Context, stopID string, window isochrone.DepartureWindow) ([]models.Departure, error) {
	if s.departuresErr != nil {
		return nil, s.departuresErr
	}
	return []models.Departure{{
		TripID:        "t-1",
		Route:         models.Route{ID: "r-5", ShortName: "5", LongName: "Fulton", Mode: models.ModeBus},
		Headsign:      "Downtown",
		ServiceDate:   "2026-10-16",
		DepartureTime: "08:00:00",
	}}, nil
}

func (s *testSchedule) TripStopTimes(ctx context.Context, routeID, tripID, serviceDate string) ([]models.TripStopTime, error) {
	if s.stopTimes != nil {
		return s.stopTimes, nil
	}
	row := func(seq int, code, name, clock string, lat float64) models.TripStopTime {
		return models.TripStopTime{
			Sequence: seq, StopID: "s-" + code, StopCode: code, StopName: name,
			Location: &models.LatLng{Lat: lat, Lng: -122.42},
			Arrival:  clock, Departure: clock,
		}
	}
	return []models.TripStopTime{
		row(1, "A", "Alpha", "08:00:00", 37.77),
		row(2, "B", "Bravo", "08:05:00", 37.78),
		row(3, "C", "Charlie", "08:12:00", 37.79),
		row(4, "D", "Delta", "08:20:00", 37.80),
	}, nil
}

type testFinder struct {
	stops []models.Stop
	err   error
}

func (f testFinder) FindNearbyStops(ctx context.Context, center models.LatLng, radiusMeters float64) ([]models.Stop, error) {
	return f.stops, f.err
}

type testGeocoder struct {
	loc models.LatLng
	err error
}

func (g testGeocoder) Geocode(ctx context.Context, address string) (models.LatLng, error) {
	return g.loc, g.err
}

type testDeps struct {
	schedule *testSchedule
	finders  []isochrone.NamedStopFinder
	geocoder isochrone.Geocoder
	config   func(*appconf.Config)
	logger   *slog.Logger
}

func defaultFinders() []isochrone.NamedStopFinder {
	return []isochrone.NamedStopFinder{{
		Name: "transitland",
		Finder: testFinder{stops: []models.Stop{
			models.NewStop("s-far", "Far", 37.7800, -122.4194, models.ModeBus, models.SourceTransitland),
			models.NewStop("s-near", "Near", 37.7750, -122.4194, models.ModeTrain, models.SourceTransitland),
		}},
	}}
}

// createTestApi builds a RestAPI over in-memory providers.
func createTestApi(t *testing.T, deps testDeps) *RestAPI {
	t.Helper()

	if deps.schedule == nil {
		deps.schedule = &testSchedule{}
	}
	if deps.finders == nil {
		deps.finders = defaultFinders()
	}
	if deps.geocoder == nil {
		deps.geocoder = testGeocoder{loc: models.LatLng{Lat: 37.7749, Lng: -122.4194}}
	}

	cfg := appconf.Defaults()
	cfg.EnvName = "test"
	cfg.APIKeys = []string{"TEST"}
	if deps.config != nil {
		deps.config(&cfg)
	}

	collector := metrics.NewCollector()
	now := func() time.Time { return testNow }
	application := &app.Application{
		Config:  cfg,
		Logger:  deps.logger,
		Metrics: collector,
		Engine: isochrone.NewEngine(deps.schedule, isochrone.EngineOptions{
			Observer: collector,
			Now:      now,
		}),
		Nearby:   isochrone.NewNearbySearch(deps.geocoder, deps.finders, isochrone.NearbyConfig{}, nil),
		Location: time.UTC,
		Now:      now,
	}

	api := NewRestAPI(application)
	t.Cleanup(api.Shutdown)
	return api
}

func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, models.ResponseModel) {
	t.Helper()

	server := httptest.NewServer(api.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + endpoint)
	require.NoError(t, err)
	defer logging.SafeCloseWithLogging(resp.Body, slog.Default(), "http_response_body")

	var response models.ResponseModel
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	return resp, response
}

func serveAndRetrieveEndpoint(t *testing.T, endpoint string) (*RestAPI, *http.Response, models.ResponseModel) {
	t.Helper()
	api := createTestApi(t, testDeps{})
	resp, model := serveApiAndRetrieveEndpoint(t, api, endpoint)
	return api, resp, model
}

// fieldErrorsFor requests endpoint and decodes a validation error body.
func fieldErrorsFor(t *testing.T, api *RestAPI, endpoint string) (int, map[string][]string) {
	t.Helper()

	recorder := httptest.NewRecorder()
	api.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, endpoint, nil))

	var body struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	return recorder.Code, body.FieldErrors
}
