package overpass

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitfinder.org/internal/models"
)

func TestFindNearbyStops(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Contains(t, r.PostForm.Get("data"), `node["highway"="bus_stop"]`)
		_, _ = w.Write([]byte(`{"elements":[
			{"type":"node","id":101,"lat":37.7796,"lon":-122.4142,"tags":{"railway":"station","name":"Civic Center","addr:full":"1150 Market St"}},
			{"type":"node","id":102,"lat":37.7777,"lon":-122.4156,"tags":{"highway":"bus_stop","name":"Market & 8th"}},
			{"type":"node","id":103,"lat":37.7770,"lon":-122.4160,"tags":{"public_transport":"platform"}}
		]}`))
	}))
	defer server.Close()

	stops, err := NewClient(server.URL, 5*time.Second, nil, nil).
		FindNearbyStops(context.Background(), models.LatLng{Lat: 37.7796, Lng: -122.4142}, 1000)
	require.NoError(t, err)
	require.Len(t, stops, 3)

	assert.Equal(t, models.Stop{
		ID:       "osm_101",
		Name:     "Civic Center",
		Location: &models.LatLng{Lat: 37.7796, Lng: -122.4142},
		Mode:     models.ModeTrain,
		Source:   models.SourceOSM,
		Address:  "1150 Market St",
	}, stops[0])

	assert.Equal(t, models.ModeBus, stops[1].Mode)
	assert.Equal(t, "Market & 8th", stops[1].Address)

	assert.Equal(t, "", stops[2].Name)
	assert.Equal(t, models.AddressNotAvailable, stops[2].Address)
	assert.Equal(t, models.ModeTransit, stops[2].Mode)
}

func TestFindNearbyStopsDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer server.Close()

	stops, err := NewClient(server.URL, 5*time.Second, nil, nil).
		FindNearbyStops(context.Background(), models.LatLng{Lat: 37.7796, Lng: -122.4142}, 1000)
	require.NoError(t, err)
	assert.Empty(t, stops)
}

func TestFindNearbyStopsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient("http://127.0.0.1:1", time.Second, nil, nil).FindNearbyStops(ctx, models.LatLng{}, 1000)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQuery(t *testing.T) {
	q := Query(models.LatLng{Lat: 0, Lng: 0}, 1113.2)
	assert.Contains(t, q, "[out:json][timeout:25];")
	assert.Contains(t, q, `node["railway"~"station|halt|tram_stop"](-0.010000,`)
	assert.Contains(t, q, "out body;")
}

func TestTransitMode(t *testing.T) {
	assert.Equal(t, models.ModeTrain, TransitMode(map[string]string{"railway": "halt"}))
	assert.Equal(t, models.ModeBus, TransitMode(map[string]string{"highway": "bus_stop"}))
	assert.Equal(t, models.ModeTransit, TransitMode(map[string]string{"public_transport": "stop_position"}))
	assert.Equal(t, models.ModeTransit, TransitMode(nil))
}
