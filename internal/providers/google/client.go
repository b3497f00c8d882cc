// Package google wraps the Google Maps Geocoding and Places Nearby Search web services.
package google

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"transitfinder.org/internal/isochrone"
	"transitfinder.org/internal/metrics"
	"transitfinder.org/internal/models"
	"transitfinder.org/internal/providers"
)

const DefaultBaseURL = "https://maps.googleapis.com/maps/api"

// TransitTypes are the place types searched for transit stops.
var TransitTypes = []string{"transit_station", "bus_station", "subway_station"}

type Client struct {
	baseURL string
	apiKey  string
	api     *providers.Client
}

var (
	_ isochrone.Geocoder     = (*Client)(nil)
	_ isochrone.StopFinder   = (*Client)(nil)
	_ isochrone.PlacesFinder = (*Client)(nil)
)

func NewClient(baseURL, apiKey string, timeout time.Duration, collector *metrics.Collector, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		api: &providers.Client{
			Name:   "google",
			HTTP:   providers.NewHTTPClient("google", timeout, collector, logger, nil),
			Logger: logger,
		},
	}
}

type location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location location `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type place struct {
	PlaceID  string   `json:"place_id"`
	Name     string   `json:"name"`
	Types    []string `json:"types"`
	Vicinity string   `json:"vicinity"`
	Rating   *float64 `json:"rating"`
	Geometry struct {
		Location location `json:"location"`
	} `json:"geometry"`
}

type nearbyResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message"`
	Results      []place `json:"results"`
}

// statusError classifies the status field Google returns alongside HTTP 200.
func statusError(status, message string) error {
	switch status {
	case "OK", "ZERO_RESULTS":
		return nil
	case "NOT_FOUND":
		return fmt.Errorf("google: %s: %w", status, isochrone.ErrNotFound)
	case "INVALID_REQUEST":
		return fmt.Errorf("google: %s %s: %w", status, message, isochrone.ErrInvalidRequest)
	default:
		return fmt.Errorf("google: %s %s: %w", status, message, isochrone.ErrProviderUnavailable)
	}
}

// Geocode resolves address to the coordinate of its best match.
func (c *Client) Geocode(ctx context.Context, address string) (models.LatLng, error) {
	q := url.Values{}
	q.Set("address", address)
	q.Set("key", c.apiKey)

	var body geocodeResponse
	if err := c.api.GetJSON(ctx, providers.JoinURL(c.baseURL, "geocode", "json")+"?"+q.Encode(), &body); err != nil {
		return models.LatLng{}, err
	}
	if err := statusError(body.Status, body.ErrorMessage); err != nil {
		return models.LatLng{}, err
	}
	if len(body.Results) == 0 {
		return models.LatLng{}, fmt.Errorf("google: address %q: %w", address, isochrone.ErrNotFound)
	}

	loc := body.Results[0].Geometry.Location
	return models.LatLng{Lat: loc.Lat, Lng: loc.Lng}, nil
}

func (c *Client) nearby(ctx context.Context, center models.LatLng, placeType string, radiusMeters float64) ([]place, error) {
	q := url.Values{}
	q.Set("location", strconv.FormatFloat(center.Lat, 'f', -1, 64)+","+strconv.FormatFloat(center.Lng, 'f', -1, 64))
	q.Set("radius", strconv.FormatFloat(radiusMeters, 'f', 0, 64))
	q.Set("type", placeType)
	q.Set("key", c.apiKey)

	var body nearbyResponse
	if err := c.api.GetJSON(ctx, providers.JoinURL(c.baseURL, "place", "nearbysearch", "json")+"?"+q.Encode(), &body); err != nil {
		return nil, err
	}
	if err := statusError(body.Status, body.ErrorMessage); err != nil {
		return nil, err
	}
	return body.Results, nil
}

// FindNearbyPlaces returns places of category within radiusMeters.
func (c *Client) FindNearbyPlaces(ctx context.Context, center models.LatLng, category string, radiusMeters float64) ([]models.Place, error) {
	results, err := c.nearby(ctx, center, category, radiusMeters)
	if err != nil {
		return nil, err
	}

	places := make([]models.Place, 0, len(results))
	for _, p := range results {
		places = append(places, models.Place{
			ID:       p.PlaceID,
			Name:     p.Name,
			Location: models.LatLng{Lat: p.Geometry.Location.Lat, Lng: p.Geometry.Location.Lng},
			Types:    p.Types,
		})
	}
	return places, nil
}

// FindNearbyStops searches every transit place type at once and merges the
// results by place id, in TransitTypes order.
func (c *Client) FindNearbyStops(ctx context.Context, center models.LatLng, radiusMeters float64) ([]models.Stop, error) {
	results := make([][]place, len(TransitTypes))

	g, gctx := errgroup.WithContext(ctx)
	for i, placeType := range TransitTypes {
		g.Go(func() error {
			found, err := c.nearby(gctx, center, placeType, radiusMeters)
			if err != nil {
				return err
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var stops []models.Stop
	for _, found := range results {
		for _, p := range found {
			if seen[p.PlaceID] {
				continue
			}
			seen[p.PlaceID] = true

			stop := models.NewStop(p.PlaceID, p.Name, p.Geometry.Location.Lat, p.Geometry.Location.Lng, TransitMode(p.Types), models.SourceGoogle)
			stop.Address = p.Vicinity
			if stop.Address == "" {
				stop.Address = models.AddressNotAvailable
			}
			stop.Rating = p.Rating
			stops = append(stops, stop)
		}
	}
	return stops, nil
}

// TransitMode derives a mode from Google place types.
func TransitMode(types []string) models.TransitMode {
	switch {
	case slices.Contains(types, "subway_station"), slices.Contains(types, "train_station"), slices.Contains(types, "light_rail_station"):
		return models.ModeTrain
	case slices.Contains(types, "bus_station"):
		return models.ModeBus
	default:
		return models.ModeTransit
	}
}
