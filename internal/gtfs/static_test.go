package gtfs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitfinder.org/internal/models"
)

func TestInitGTFSManager_FromLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.zip")
	require.NoError(t, os.WriteFile(path, feedZip(t), 0o600))

	manager, err := InitGTFSManager(context.Background(), Config{Source: path, Location: time.UTC})
	require.NoError(t, err)
	defer manager.Shutdown()

	assert.False(t, manager.LastUpdated().IsZero())

	stops, err := manager.FindNearbyStops(context.Background(), models.LatLng{Lat: 40.5865, Lng: -122.3917}, 1000)
	require.NoError(t, err)
	require.Len(t, stops, 2)
	assert.Equal(t, "Alpha", stops[0].Name)
	assert.Equal(t, []string{"1"}, stops[0].Routes)

	stopTimes, err := manager.TripStopTimes(context.Background(), "R1", "T1", "")
	require.NoError(t, err)
	assert.Len(t, stopTimes, 2)
}

func TestInitGTFSManager_FromURL(t *testing.T) {
	body := feedZip(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(body)
	}))
	defer server.Close()

	manager, err := InitGTFSManager(context.Background(), Config{
		Source:         server.URL + "/feed.zip",
		ReloadInterval: time.Hour,
		Location:       time.UTC,
	})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		manager.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown took too long")
	}

	// idempotent
	manager.Shutdown()
}

func TestInitGTFSManager_Errors(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := InitGTFSManager(context.Background(), Config{Source: server.URL + "/missing.zip"})
	assert.ErrorContains(t, err, "unexpected status 404")

	_, err = InitGTFSManager(context.Background(), Config{Source: filepath.Join(t.TempDir(), "nope.zip")})
	assert.ErrorContains(t, err, "error reading local GTFS file")

	path := filepath.Join(t.TempDir(), "garbage.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o600))
	_, err = InitGTFSManager(context.Background(), Config{Source: path})
	assert.ErrorContains(t, err, "error parsing GTFS data")
}
