package isochrone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"transitfinder.org/internal/logging"
	"transitfinder.org/internal/models"
	"transitfinder.org/internal/utils"
)

const (
	DefaultSearchRadiusMeters = 2000
	DefaultMaxResults         = 10
)

type NearbyConfig struct {
	RadiusMeters float64
	MaxResults   int
}

// NamedStopFinder pairs a StopFinder with the label used when logging its failures.
type NamedStopFinder struct {
	Name   string
	Finder StopFinder
}

// NearbySearch merges the stops several providers report around a point.
type NearbySearch struct {
	geocoder Geocoder
	finders  []NamedStopFinder
	cfg      NearbyConfig
	logger   *slog.Logger
}

func NewNearbySearch(geocoder Geocoder, finders []NamedStopFinder, cfg NearbyConfig, logger *slog.Logger) *NearbySearch {
	if cfg.RadiusMeters <= 0 {
		cfg.RadiusMeters = DefaultSearchRadiusMeters
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	return &NearbySearch{geocoder: geocoder, finders: finders, cfg: cfg, logger: logger}
}

// FindStops queries every finder concurrently, deduplicates the union and
// returns the closest stops first. Finders that fail are logged and skipped;
// the search only fails when all of them do. radiusMeters <= 0 uses the
// configured default.
func (n *NearbySearch) FindStops(ctx context.Context, center models.LatLng, radiusMeters float64) ([]models.Stop, error) {
	if radiusMeters <= 0 {
		radiusMeters = n.cfg.RadiusMeters
	}
	stops, err := n.search(ctx, center, radiusMeters)
	if err != nil {
		return nil, err
	}
	if len(stops) > n.cfg.MaxResults {
		stops = stops[:n.cfg.MaxResults]
	}
	return stops, nil
}

// search returns every deduplicated stop within radiusMeters, closest first.
func (n *NearbySearch) search(ctx context.Context, center models.LatLng, radiusMeters float64) ([]models.Stop, error) {
	if len(n.finders) == 0 {
		return nil, fmt.Errorf("%w: no stop providers configured", ErrProviderUnavailable)
	}

	results := make([][]models.Stop, len(n.finders))
	failures := make([]error, len(n.finders))

	var g errgroup.Group
	for i, f := range n.finders {
		g.Go(func() error {
			stops, err := f.Finder.FindNearbyStops(ctx, center, radiusMeters)
			if err != nil {
				failures[i] = err
				logging.LogError(n.logger, "stop provider failed", err,
					slog.String("component", "nearby_search"),
					slog.String("provider", f.Name))
				return nil
			}
			results[i] = stops
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if allFailed(failures) {
		return nil, fmt.Errorf("%w: every stop provider failed: %w", ErrProviderUnavailable, errors.Join(failures...))
	}

	var merged []models.Stop
	for _, stops := range results {
		merged = append(merged, stops...)
	}

	stops := Deduplicate(merged)
	for i := range stops {
		if stops[i].Location == nil {
			continue
		}
		miles := utils.HaversineMiles(center.Lat, center.Lng, stops[i].Location.Lat, stops[i].Location.Lng)
		stops[i].DistanceMiles = miles
		stops[i].WalkMinutes = utils.WalkingMinutes(miles)
	}

	sort.SliceStable(stops, func(a, b int) bool {
		la, lb := stops[a].Location != nil, stops[b].Location != nil
		if la != lb {
			return la
		}
		return stops[a].DistanceMiles < stops[b].DistanceMiles
	})
	return stops, nil
}

// SearchAddress geocodes address and searches around the result.
func (n *NearbySearch) SearchAddress(ctx context.Context, address string, radiusMeters float64) (models.LatLng, []models.Stop, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return models.LatLng{}, nil, fmt.Errorf("%w: address is required", ErrInvalidRequest)
	}
	if n.geocoder == nil {
		return models.LatLng{}, nil, fmt.Errorf("%w: no geocoder configured", ErrProviderUnavailable)
	}

	center, err := n.geocoder.Geocode(ctx, address)
	if err != nil {
		return models.LatLng{}, nil, providerError("geocode", err)
	}

	stops, err := n.FindStops(ctx, center, radiusMeters)
	if err != nil {
		return center, nil, err
	}
	return center, stops, nil
}

func allFailed(failures []error) bool {
	for _, err := range failures {
		if err == nil {
			return false
		}
	}
	return true
}
