package isochrone

import (
	"context"
	"fmt"
	"math"
	"sort"

	"transitfinder.org/internal/models"
	"transitfinder.org/internal/utils"
)

// Average vehicle speeds used when no timetable is consulted.
const (
	TrainSpeedKPH   = 40.0
	SurfaceSpeedKPH = 25.0
)

// AverageSpeedKPH is the assumed speed of vehicles leaving a stop of the given mode.
func AverageSpeedKPH(mode models.TransitMode) float64 {
	if mode == models.ModeTrain {
		return TrainSpeedKPH
	}
	return SurfaceSpeedKPH
}

// EstimateRadiusMeters is how far a vehicle of mode travels in budgetMinutes.
func EstimateRadiusMeters(mode models.TransitMode, budgetMinutes int) float64 {
	return AverageSpeedKPH(mode) * float64(budgetMinutes) / 60 * 1000
}

// EstimateReachable keeps the candidates whose ride at the origin's average
// speed plus the walk from the stop fits within budgetMinutes, closest
// first. The origin itself and stops without a coordinate are dropped.
func EstimateReachable(origin models.Stop, candidates []models.Stop, budgetMinutes int) []models.EstimatedStop {
	if origin.Location == nil {
		return nil
	}
	speed := AverageSpeedKPH(origin.Mode)

	var out []models.EstimatedStop
	for _, s := range candidates {
		if s.ID == origin.ID || s.Location == nil {
			continue
		}

		meters := utils.Haversine(origin.Location.Lat, origin.Location.Lng, s.Location.Lat, s.Location.Lng)
		ride := meters / 1000 / speed * 60
		walk := utils.WalkingMinutes(meters / utils.MetersPerMile)
		total := ride + float64(walk)
		if total > float64(budgetMinutes) {
			continue
		}

		out = append(out, models.EstimatedStop{
			Stop:             s,
			DistanceMeters:   meters,
			EstimatedMinutes: int(math.Round(total)),
		})
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].DistanceMeters < out[b].DistanceMeters
	})
	return out
}

// Estimate searches around origin as far as a vehicle could travel within
// the budget and returns the stops EstimateReachable keeps. It needs no
// schedule, so it still answers for stops a timetable cannot serve.
func (n *NearbySearch) Estimate(ctx context.Context, origin models.Stop, budgetMinutes int) ([]models.EstimatedStop, error) {
	if origin.Location == nil {
		return nil, fmt.Errorf("%w: origin has no location", ErrInvalidRequest)
	}
	if budgetMinutes <= 0 {
		return nil, fmt.Errorf("%w: budget must be positive", ErrInvalidRequest)
	}

	candidates, err := n.search(ctx, *origin.Location, EstimateRadiusMeters(origin.Mode, budgetMinutes))
	if err != nil {
		return nil, err
	}
	return EstimateReachable(origin, candidates, budgetMinutes), nil
}
