package utils

import (
	"fmt"
	"math"
)

const (
	earthRadiusMeters = 6371000.0
	MetersPerMile     = 1609.344
	feetPerMile       = 5280.0

	// WalkingSpeedMPH is the pace used to turn a distance into a walking time.
	WalkingSpeedMPH = 3.0

	// DedupPrecision is the number of grid cells per degree used when bucketing
	// coordinates; 1000 cells is roughly 111m of latitude.
	DedupPrecision = 1000.0
)

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaPhi := (lat2 - lat1) * math.Pi / 180
	deltaLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// HaversineMiles is Haversine expressed in statute miles.
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	return MetersToMiles(Haversine(lat1, lon1, lat2, lon2))
}

func MetersToMiles(meters float64) float64 {
	return meters / MetersPerMile
}

// WalkingMinutes is the whole number of minutes needed to walk miles at
// WalkingSpeedMPH, rounded up.
func WalkingMinutes(miles float64) int {
	if miles <= 0 {
		return 0
	}
	return int(math.Ceil(miles * 60 / WalkingSpeedMPH))
}

// FormatDistance renders a distance in feet below a tenth of a mile and in
// miles with one decimal otherwise.
func FormatDistance(miles float64) string {
	if miles < 0.1 {
		return fmt.Sprintf("%d ft", int(math.Round(miles*feetPerMile)))
	}
	return fmt.Sprintf("%.1f mi", miles)
}

// BoundingBoxAround returns min/max lat/lon of a box extending radiusKm in
// every direction from the center.
func BoundingBoxAround(lat, lon, radiusKm float64) (minLat, minLon, maxLat, maxLon float64) {
	latOffset := radiusKm / 111.32
	lonOffset := radiusKm / (40075 * math.Cos(lat*math.Pi/180) / 360)
	return lat - latOffset, lon - lonOffset, lat + latOffset, lon + lonOffset
}

// GridKey buckets a coordinate into the dedup grid. Points closer than one
// cell in both axes usually share a key.
func GridKey(lat, lon float64) string {
	return fmt.Sprintf("%d_%d", int64(math.Round(lat*DedupPrecision)), int64(math.Round(lon*DedupPrecision)))
}
