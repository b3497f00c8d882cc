package models

// LocationContext counts nearby places per category.
type LocationContext map[string]int

// Count returns the number of places for category, zero when absent.
func (c LocationContext) Count(category string) int {
	if c == nil {
		return 0
	}
	return c[category]
}

// Place is a categorized point of interest returned by a places provider.
type Place struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location LatLng   `json:"location"`
	Types    []string `json:"types,omitempty"`
}

// ReachableStop is a stop reached by riding a single trip from the origin.
type ReachableStop struct {
	Stop

	FromStop       string          `json:"fromStop"`
	RouteLabel     string          `json:"route"`
	Headsign       string          `json:"headsign"`
	ElapsedMinutes int             `json:"elapsedMinutes"`
	Direction      string          `json:"direction,omitempty"`
	ArrivalTime    string          `json:"arrivalTime,omitempty"`
	DaysLater      int             `json:"daysLater,omitempty"`
	Context        LocationContext `json:"locationContext,omitempty"`
	Score          float64         `json:"score,omitempty"`
	Recommended    bool            `json:"recommended,omitempty"`
}

// EstimatedStop is a stop judged reachable from straight-line distance and
// an average vehicle speed rather than a timetable.
type EstimatedStop struct {
	Stop

	DistanceMeters   float64 `json:"distanceMeters"`
	EstimatedMinutes int     `json:"estimatedMinutes"`
}

// Marker is a placement request for the map surface.
type Marker struct {
	StopID   string `json:"stopId"`
	Title    string `json:"title"`
	Location LatLng `json:"location"`
	Kind     string `json:"kind"`
}

const (
	MarkerSelected    = "selected"
	MarkerReachable   = "reachable"
	MarkerRecommended = "recommended"
)
