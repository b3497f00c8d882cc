// Package overpass finds OpenStreetMap transit nodes through the Overpass API.
package overpass

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"transitfinder.org/internal/isochrone"
	"transitfinder.org/internal/logging"
	"transitfinder.org/internal/metrics"
	"transitfinder.org/internal/models"
	"transitfinder.org/internal/providers"
	"transitfinder.org/internal/utils"
)

const DefaultURL = "https://overpass-api.de/api/interpreter"

const queryTemplate = `[out:json][timeout:25];
(
  node["public_transport"~"stop_position|platform"]["highway"!="bus_stop"](%[1]s);
  node["railway"~"station|halt|tram_stop"](%[1]s);
  node["highway"="bus_stop"](%[1]s);
);
out body;`

type Client struct {
	endpoint string
	api      *providers.Client
	logger   *slog.Logger
}

var _ isochrone.StopFinder = (*Client)(nil)

func NewClient(endpoint string, timeout time.Duration, collector *metrics.Collector, logger *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	return &Client{
		endpoint: endpoint,
		api: &providers.Client{
			Name:   "overpass",
			HTTP:   providers.NewHTTPClient("overpass", timeout, collector, logger, nil),
			Logger: logger,
		},
		logger: logger,
	}
}

type element struct {
	ID   int64             `json:"id"`
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags"`
}

type response struct {
	Elements []element `json:"elements"`
}

// Query renders the Overpass QL for transit nodes within radiusMeters of center.
func Query(center models.LatLng, radiusMeters float64) string {
	minLat, minLon, maxLat, maxLon := utils.BoundingBoxAround(center.Lat, center.Lng, radiusMeters/1000)
	bbox := fmt.Sprintf("%s,%s,%s,%s", coord(minLat), coord(minLon), coord(maxLat), coord(maxLon))
	return fmt.Sprintf(queryTemplate, bbox)
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// FindNearbyStops logs provider failures and reports them as no stops.
// Only context cancellation is returned as an error.
func (c *Client) FindNearbyStops(ctx context.Context, center models.LatLng, radiusMeters float64) ([]models.Stop, error) {
	var body response
	if err := c.api.PostFormJSON(ctx, c.endpoint, url.Values{"data": {Query(center, radiusMeters)}}, &body); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logging.LogError(c.logger, "overpass lookup failed", err, slog.String("component", "overpass"))
		return []models.Stop{}, nil
	}

	stops := make([]models.Stop, 0, len(body.Elements))
	for _, e := range body.Elements {
		stop := models.NewStop("osm_"+strconv.FormatInt(e.ID, 10), e.Tags["name"], e.Lat, e.Lon, TransitMode(e.Tags), models.SourceOSM)
		stop.Address = firstNonEmpty(e.Tags["addr:full"], e.Tags["name"], models.AddressNotAvailable)
		stops = append(stops, stop)
	}
	return stops, nil
}

// TransitMode derives a mode from OSM tags.
func TransitMode(tags map[string]string) models.TransitMode {
	switch {
	case tags["railway"] != "":
		return models.ModeTrain
	case tags["highway"] == "bus_stop":
		return models.ModeBus
	default:
		return models.ModeTransit
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
