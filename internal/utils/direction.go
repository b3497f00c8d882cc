package utils

import (
	"math"

	"transitfinder.org/internal/models"
)

var compassPoints = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Bearing is the initial great-circle bearing in degrees [0, 360) from one point to another.
func Bearing(from, to models.LatLng) float64 {
	phi1 := from.Lat * math.Pi / 180
	phi2 := to.Lat * math.Pi / 180
	deltaLon := (to.Lng - from.Lng) * math.Pi / 180

	y := math.Sin(deltaLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(deltaLon)

	return math.Mod(math.Atan2(y, x)*180/math.Pi+360, 360)
}

// BearingToCompass converts a bearing to an 8-point compass label.
func BearingToCompass(bearing float64) string {
	index := int((bearing+22.5)/45.0) % len(compassPoints)
	return compassPoints[index]
}

// CompassDirection labels the direction of travel from one point to another.
func CompassDirection(from, to models.LatLng) string {
	return BearingToCompass(Bearing(from, to))
}
