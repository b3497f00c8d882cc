package models

import "strings"

// TransitMode is the vehicle type serving a stop.
type TransitMode string

const (
	ModeBus     TransitMode = "bus"
	ModeTrain   TransitMode = "train"
	ModeTransit TransitMode = "transit"
)

// Source tags where a stop record came from.
type Source string

const (
	SourceGoogle      Source = "google"
	SourceOSM         Source = "osm"
	SourceTransitland Source = "transitland"
	SourceGTFS        Source = "gtfs"
)

// PrimarySource is the provider whose records win deduplication ties.
const PrimarySource = SourceGoogle

// Stop is the canonical stop record every provider is normalized into.
// Location is nil when the provider did not return a coordinate.
type Stop struct {
	ID            string      `json:"id"`
	StopCode      string      `json:"stopCode,omitempty"`
	Name          string      `json:"name"`
	Location      *LatLng     `json:"location,omitempty"`
	Mode          TransitMode `json:"type"`
	Source        Source      `json:"source"`
	Address       string      `json:"address,omitempty"`
	Rating        *float64    `json:"rating,omitempty"`
	Routes        []string    `json:"routes,omitempty"`
	DistanceMiles float64     `json:"distance,omitempty"`
	WalkMinutes   int         `json:"walkTime,omitempty"`
}

func NewStop(id, name string, lat, lng float64, mode TransitMode, source Source) Stop {
	return Stop{
		ID:       id,
		Name:     name,
		Location: &LatLng{Lat: lat, Lng: lng},
		Mode:     mode,
		Source:   source,
	}
}

// HasLocation reports whether the stop carries a coordinate.
func (s Stop) HasLocation() bool {
	return s.Location != nil
}

// NormalizeStop fills the defaults every source is expected to honor and
// strips whitespace noise from free-text fields.
func NormalizeStop(s Stop) Stop {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		s.Name = UnnamedStop
	}
	s.Address = strings.TrimSpace(s.Address)
	if s.Mode == "" {
		s.Mode = ModeTransit
	}
	if s.Routes != nil {
		s.Routes = append([]string(nil), s.Routes...)
	}
	if s.Location != nil {
		loc := *s.Location
		s.Location = &loc
	}
	return s
}

type StopsResponse struct {
	List       []Stop `json:"list"`
	OutOfRange bool   `json:"outOfRange"`
}

// ModeForRouteType maps basic and extended GTFS route_type values to a mode.
func ModeForRouteType(routeType int) TransitMode {
	switch {
	case routeType == 3, routeType == 11, routeType >= 700 && routeType < 800:
		return ModeBus
	case routeType == 0, routeType == 1, routeType == 2, routeType == 5, routeType == 7, routeType == 12,
		routeType >= 100 && routeType < 200, routeType >= 400 && routeType < 500, routeType >= 900 && routeType < 1000:
		return ModeTrain
	default:
		return ModeTransit
	}
}

// CommonMode is the mode shared by all of modes, or ModeTransit when they
// differ or there are none.
func CommonMode(modes []TransitMode) TransitMode {
	if len(modes) == 0 {
		return ModeTransit
	}
	for _, m := range modes[1:] {
		if m != modes[0] {
			return ModeTransit
		}
	}
	return modes[0]
}
