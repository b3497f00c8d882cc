package utils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"transitfinder.org/internal/models"
)

func TestBearing(t *testing.T) {
	origin := models.LatLng{Lat: 40.0, Lng: -122.0}

	tests := []struct {
		name      string
		to        models.LatLng
		expected  float64
		tolerance float64
	}{
		{"north", models.LatLng{Lat: 41.0, Lng: -122.0}, 0.0, 1.0},
		{"east", models.LatLng{Lat: 40.0, Lng: -121.0}, 90.0, 1.0},
		{"northeast", models.LatLng{Lat: 40.7, Lng: -121.3}, 45.0, 10.0},
		{"south", models.LatLng{Lat: 39.0, Lng: -122.0}, 180.0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Bearing(origin, tt.to), tt.tolerance)
		})
	}
}

func TestBearingToCompass(t *testing.T) {
	tests := []struct {
		bearing  float64
		expected string
	}{
		{0.0, "N"},
		{45.0, "NE"},
		{135.0, "SE"},
		{225.0, "SW"},
		{315.0, "NW"},
		{360.0, "N"},
		{22.0, "N"},
		{23.0, "NE"},
		{68.0, "E"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.1f degrees", tt.bearing), func(t *testing.T) {
			assert.Equal(t, tt.expected, BearingToCompass(tt.bearing))
		})
	}
}

func TestCompassDirection(t *testing.T) {
	origin := models.LatLng{Lat: 40.0, Lng: -122.0}

	assert.Equal(t, "W", CompassDirection(origin, models.LatLng{Lat: 40.0, Lng: -123.0}))
	assert.Equal(t, "S", CompassDirection(origin, models.LatLng{Lat: 39.0, Lng: -122.0}))
}
