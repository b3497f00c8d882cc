package models

// ServiceDateLayout is the layout of service dates exchanged with schedule providers.
const ServiceDateLayout = "2006-01-02"

// Route describes the line a trip runs on.
type Route struct {
	ID        string      `json:"id"`
	ShortName string      `json:"shortName"`
	LongName  string      `json:"longName"`
	Mode      TransitMode `json:"type,omitempty"`
}

// Label is the short name when present, otherwise the long name.
func (r Route) Label() string {
	if r.ShortName != "" {
		return r.ShortName
	}
	return r.LongName
}

// Departure is one scheduled departure from a stop.
type Departure struct {
	TripID        string `json:"tripId"`
	Route         Route  `json:"route"`
	Headsign      string `json:"headsign"`
	ServiceDate   string `json:"serviceDate"`
	DepartureTime string `json:"departureTime"`
}

// TripStopTime is one row of a trip's ordered stop sequence.
// Arrival and Departure are clock strings (HH:MM or HH:MM:SS); hours past 23
// are legal for trips running over midnight.
type TripStopTime struct {
	Sequence  int     `json:"stopSequence"`
	StopID    string  `json:"stopId"`
	StopCode  string  `json:"stopCode"`
	StopName  string  `json:"stopName"`
	Location  *LatLng `json:"location,omitempty"`
	Arrival   string  `json:"arrivalTime"`
	Departure string  `json:"departureTime"`
}
