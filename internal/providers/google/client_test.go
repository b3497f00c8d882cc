package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitfinder.org/internal/isochrone"
	"transitfinder.org/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "g-key", 5*time.Second, nil, nil)
}

func TestGeocode(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		expected models.LatLng
		err      error
	}{
		{
			name:     "Match",
			body:     `{"status":"OK","results":[{"formatted_address":"1 Dr Carlton B Goodlett Pl","geometry":{"location":{"lat":37.7793,"lng":-122.4193}}}]}`,
			expected: models.LatLng{Lat: 37.7793, Lng: -122.4193},
		},
		{name: "ZeroResults", body: `{"status":"ZERO_RESULTS","results":[]}`, err: isochrone.ErrNotFound},
		{name: "Denied", body: `{"status":"REQUEST_DENIED","error_message":"bad key"}`, err: isochrone.ErrProviderUnavailable},
		{name: "OverQuota", body: `{"status":"OVER_QUERY_LIMIT"}`, err: isochrone.ErrProviderUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/geocode/json", r.URL.Path)
				assert.Equal(t, "City Hall, San Francisco", r.URL.Query().Get("address"))
				assert.Equal(t, "g-key", r.URL.Query().Get("key"))
				_, _ = w.Write([]byte(tc.body))
			})

			loc, err := client.Geocode(context.Background(), "City Hall, San Francisco")
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, loc)
		})
	}
}

func TestFindNearbyPlaces(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/place/nearbysearch/json", r.URL.Path)
		assert.Equal(t, "37.7796,-122.4142", r.URL.Query().Get("location"))
		assert.Equal(t, "500", r.URL.Query().Get("radius"))
		assert.Equal(t, "park", r.URL.Query().Get("type"))
		_, _ = w.Write([]byte(`{"status":"OK","results":[
			{"place_id":"p1","name":"Civic Center Plaza","types":["park"],"geometry":{"location":{"lat":37.7795,"lng":-122.4176}}}
		]}`))
	})

	places, err := client.FindNearbyPlaces(context.Background(), models.LatLng{Lat: 37.7796, Lng: -122.4142}, "park", 500)
	require.NoError(t, err)
	assert.Equal(t, []models.Place{{
		ID:       "p1",
		Name:     "Civic Center Plaza",
		Location: models.LatLng{Lat: 37.7795, Lng: -122.4176},
		Types:    []string{"park"},
	}}, places)
}

func TestFindNearbyStops(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("type") {
		case "transit_station":
			_, _ = w.Write([]byte(`{"status":"OK","results":[
				{"place_id":"civic","name":"Civic Center","types":["subway_station","transit_station"],"vicinity":"Market St","rating":4.1,
				 "geometry":{"location":{"lat":37.7796,"lng":-122.4142}}},
				{"place_id":"stop-5","name":"Market & 8th","types":["transit_station"],
				 "geometry":{"location":{"lat":37.7777,"lng":-122.4156}}}
			]}`))
		case "bus_station":
			_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
		case "subway_station":
			_, _ = w.Write([]byte(`{"status":"OK","results":[
				{"place_id":"civic","name":"Civic Center","types":["subway_station"],"geometry":{"location":{"lat":37.7796,"lng":-122.4142}}}
			]}`))
		}
	})

	stops, err := client.FindNearbyStops(context.Background(), models.LatLng{Lat: 37.7796, Lng: -122.4142}, 2000)
	require.NoError(t, err)
	require.Len(t, stops, 2)

	rating := 4.1
	assert.Equal(t, models.Stop{
		ID:       "civic",
		Name:     "Civic Center",
		Location: &models.LatLng{Lat: 37.7796, Lng: -122.4142},
		Mode:     models.ModeTrain,
		Source:   models.SourceGoogle,
		Address:  "Market St",
		Rating:   &rating,
	}, stops[0])
	assert.Equal(t, models.AddressNotAvailable, stops[1].Address)
	assert.Equal(t, models.ModeTransit, stops[1].Mode)
}

func TestFindNearbyStopsFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("type") == "bus_station" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})

	_, err := client.FindNearbyStops(context.Background(), models.LatLng{}, 2000)
	assert.ErrorIs(t, err, isochrone.ErrProviderUnavailable)
}

func TestTransitMode(t *testing.T) {
	assert.Equal(t, models.ModeTrain, TransitMode([]string{"transit_station", "subway_station"}))
	assert.Equal(t, models.ModeBus, TransitMode([]string{"bus_station"}))
	assert.Equal(t, models.ModeTransit, TransitMode([]string{"transit_station"}))
	assert.Equal(t, models.ModeTransit, TransitMode(nil))
}
