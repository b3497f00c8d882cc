// Package transitland reads stops, departures and trip stop times from the
// Transitland REST v2 API.
package transitland

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"transitfinder.org/internal/isochrone"
	"transitfinder.org/internal/metrics"
	"transitfinder.org/internal/models"
	"transitfinder.org/internal/providers"
)

const DefaultBaseURL = "https://transit.land/api/v2/rest"

type Client struct {
	baseURL  string
	api      *providers.Client
	location *time.Location
}

var (
	_ isochrone.ScheduleProvider = (*Client)(nil)
	_ isochrone.StopFinder       = (*Client)(nil)
)

// NewClient builds a client authenticating with apiKey. Departure windows are
// expressed in loc, the agency time zone; nil means time.Local.
func NewClient(baseURL, apiKey string, timeout time.Duration, loc *time.Location, collector *metrics.Collector, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if loc == nil {
		loc = time.Local
	}
	headers := http.Header{}
	if apiKey != "" {
		headers.Set("apikey", apiKey)
	}
	return &Client{
		baseURL: baseURL,
		api: &providers.Client{
			Name:   "transitland",
			HTTP:   providers.NewHTTPClient("transitland", timeout, collector, logger, headers),
			Logger: logger,
		},
		location: loc,
	}
}

type geometry struct {
	Coordinates []float64 `json:"coordinates"`
}

func (g *geometry) latLng() *models.LatLng {
	if g == nil || len(g.Coordinates) < 2 {
		return nil
	}
	return &models.LatLng{Lat: g.Coordinates[1], Lng: g.Coordinates[0]}
}

type route struct {
	OnestopID      string `json:"onestop_id"`
	RouteShortName string `json:"route_short_name"`
	RouteLongName  string `json:"route_long_name"`
	RouteType      int    `json:"route_type"`
}

func (r route) model() models.Route {
	return models.Route{
		ID:        r.OnestopID,
		ShortName: r.RouteShortName,
		LongName:  r.RouteLongName,
		Mode:      models.ModeForRouteType(r.RouteType),
	}
}

type stop struct {
	OnestopID  string    `json:"onestop_id"`
	StopID     string    `json:"stop_id"`
	StopName   string    `json:"stop_name"`
	StopDesc   string    `json:"stop_desc"`
	Geometry   *geometry `json:"geometry"`
	RouteStops []struct {
		Route route `json:"route"`
	} `json:"route_stops"`
}

type stopsResponse struct {
	Stops []stop `json:"stops"`
}

type departure struct {
	ServiceDate   string `json:"service_date"`
	DepartureTime string `json:"departure_time"`
	Trip          *struct {
		ID           json.Number `json:"id"`
		TripHeadsign string      `json:"trip_headsign"`
		Route        *route      `json:"route"`
	} `json:"trip"`
}

type departuresResponse struct {
	Stops []struct {
		Departures []departure `json:"departures"`
	} `json:"stops"`
}

type tripResponse struct {
	Trips []struct {
		StopTimes []struct {
			StopSequence  int    `json:"stop_sequence"`
			ArrivalTime   string `json:"arrival_time"`
			DepartureTime string `json:"departure_time"`
			Stop          stop   `json:"stop"`
		} `json:"stop_times"`
	} `json:"trips"`
}

// FindNearbyStops returns the stops Transitland knows within radiusMeters.
func (c *Client) FindNearbyStops(ctx context.Context, center models.LatLng, radiusMeters float64) ([]models.Stop, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(center.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(center.Lng, 'f', -1, 64))
	q.Set("radius", strconv.FormatFloat(radiusMeters, 'f', 0, 64))
	q.Set("limit", "100")

	var body stopsResponse
	if err := c.api.GetJSON(ctx, providers.JoinURL(c.baseURL, "stops")+"?"+q.Encode(), &body); err != nil {
		return nil, err
	}

	stops := make([]models.Stop, 0, len(body.Stops))
	for _, s := range body.Stops {
		out := models.Stop{
			ID:       s.OnestopID,
			StopCode: s.StopID,
			Name:     s.StopName,
			Address:  s.StopDesc,
			Location: s.Geometry.latLng(),
			Source:   models.SourceTransitland,
		}
		modes := make([]models.TransitMode, 0, len(s.RouteStops))
		for _, rs := range s.RouteStops {
			out.Routes = append(out.Routes, rs.Route.model().Label())
			modes = append(modes, models.ModeForRouteType(rs.Route.RouteType))
		}
		out.Mode = models.CommonMode(modes)
		stops = append(stops, out)
	}
	return stops, nil
}

// Departures lists departures from the stop with onestop id stopID inside window.
func (c *Client) Departures(ctx context.Context, stopID string, window isochrone.DepartureWindow) ([]models.Departure, error) {
	from := window.From.In(c.location)
	q := url.Values{}
	q.Set("date", from.Format(models.ServiceDateLayout))
	q.Set("start_time", from.Format("15:04:05"))
	q.Set("next", strconv.Itoa(int(window.Duration/time.Second)))
	q.Set("limit", "100")

	var body departuresResponse
	if err := c.api.GetJSON(ctx, providers.JoinURL(c.baseURL, "stops", stopID, "departures")+"?"+q.Encode(), &body); err != nil {
		return nil, err
	}
	if len(body.Stops) == 0 {
		return nil, fmt.Errorf("transitland: stop %q: %w", stopID, isochrone.ErrNotFound)
	}

	var departures []models.Departure
	for _, d := range body.Stops[0].Departures {
		out := models.Departure{
			ServiceDate:   d.ServiceDate,
			DepartureTime: d.DepartureTime,
		}
		if d.Trip != nil {
			out.TripID = d.Trip.ID.String()
			out.Headsign = d.Trip.TripHeadsign
			if d.Trip.Route != nil {
				out.Route = d.Trip.Route.model()
			}
		}
		departures = append(departures, out)
	}
	return departures, nil
}

// TripStopTimes fetches a trip with its stops for serviceDate.
func (c *Client) TripStopTimes(ctx context.Context, routeID, tripID, serviceDate string) ([]models.TripStopTime, error) {
	q := url.Values{}
	q.Set("include_stops", "true")
	if serviceDate != "" {
		q.Set("service_date", serviceDate)
	}

	var body tripResponse
	if err := c.api.GetJSON(ctx, providers.JoinURL(c.baseURL, "routes", routeID, "trips", tripID)+"?"+q.Encode(), &body); err != nil {
		return nil, err
	}
	if len(body.Trips) == 0 {
		return nil, fmt.Errorf("transitland: trip %q on %q: %w", tripID, routeID, isochrone.ErrNotFound)
	}

	rows := body.Trips[0].StopTimes
	stopTimes := make([]models.TripStopTime, 0, len(rows))
	for _, st := range rows {
		stopTimes = append(stopTimes, models.TripStopTime{
			Sequence:  st.StopSequence,
			StopID:    st.Stop.OnestopID,
			StopCode:  st.Stop.StopID,
			StopName:  st.Stop.StopName,
			Location:  st.Stop.Geometry.latLng(),
			Arrival:   st.ArrivalTime,
			Departure: st.DepartureTime,
		})
	}
	sort.SliceStable(stopTimes, func(i, j int) bool { return stopTimes[i].Sequence < stopTimes[j].Sequence })
	return stopTimes, nil
}
