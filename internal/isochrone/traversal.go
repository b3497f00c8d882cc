package isochrone

import (
	"fmt"
	"math"

	"transitfinder.org/internal/models"
	"transitfinder.org/internal/utils"
)

const (
	// MaxLoops caps how many times a circular trip may be walked around.
	MaxLoops = 10

	// maxSegmentSeconds is the longest believable ride between consecutive
	// stops. Anything longer means the timestamps run backwards.
	maxSegmentSeconds = 12 * 3600
)

// RideSegments returns the seconds from each stop's departure to the next
// stop's arrival. Segments crossing midnight wrap by a day.
func RideSegments(stopTimes []models.TripStopTime) ([]int, error) {
	if len(stopTimes) < 2 {
		return nil, nil
	}

	segments := make([]int, len(stopTimes)-1)
	for i := 0; i < len(stopTimes)-1; i++ {
		from, to := stopTimes[i], stopTimes[i+1]

		departure, err := utils.ParseClock(firstNonEmpty(from.Departure, from.Arrival))
		if err != nil {
			return nil, fmt.Errorf("%w: departure at sequence %d: %w", ErrInvalidSchedule, from.Sequence, err)
		}
		arrival, err := utils.ParseClock(firstNonEmpty(to.Arrival, to.Departure))
		if err != nil {
			return nil, fmt.Errorf("%w: arrival at sequence %d: %w", ErrInvalidSchedule, to.Sequence, err)
		}

		ride := utils.ClockDiffSeconds(departure, arrival)
		if ride > maxSegmentSeconds {
			return nil, fmt.Errorf("%w: %s to %s between sequence %d and %d runs backwards",
				ErrInvalidSchedule, from.Departure, to.Arrival, from.Sequence, to.Sequence)
		}
		segments[i] = ride
	}
	return segments, nil
}

// Traverse walks trip from its origin and returns every stop reached before
// the cumulative ride time exceeds budgetMinutes, in the order visited.
//
// Non-circular trips stop at their last stop. Circular trips continue past
// the end: index 0 is the same physical stop as the last one and is skipped,
// and the hop out of it rides the opening 0->1 segment. Every pass through
// the end counts as a loop; walking stops after MaxLoops.
func Traverse(trip *Trip, budgetMinutes float64) ([]models.ReachableStop, error) {
	if trip == nil || trip.OriginIndex < 0 || trip.OriginIndex >= len(trip.StopTimes) {
		return nil, fmt.Errorf("%w: origin index outside the trip", ErrInvalidRequest)
	}
	if budgetMinutes < 0 || math.IsNaN(budgetMinutes) {
		return nil, fmt.Errorf("%w: negative budget", ErrInvalidRequest)
	}

	stops := trip.StopTimes
	n := len(stops)

	segments, err := RideSegments(stops)
	if err != nil {
		return nil, err
	}

	// whole seconds keep the budget comparison and the floor exact
	budget := math.MaxInt32
	if budgetMinutes*60 < math.MaxInt32 {
		budget = int(math.Floor(budgetMinutes * 60))
	}

	var (
		reachable []models.ReachableStop
		total     int
		loops     int
		i         = trip.OriginIndex
	)

	for total <= budget && loops < MaxLoops {
		next := i + 1
		if next >= n {
			if !trip.Circular {
				break
			}
			i = 0
			loops++
			continue
		}

		total += segments[i]
		if total > budget {
			break
		}

		reachable = append(reachable, reachedStop(trip, stops[i], stops[next], total))
		i = next
	}

	return reachable, nil
}

func reachedStop(trip *Trip, from, to models.TripStopTime, elapsedSeconds int) models.ReachableStop {
	stop := models.NormalizeStop(models.Stop{
		ID:       firstNonEmpty(to.StopID, to.StopCode),
		StopCode: to.StopCode,
		Name:     to.StopName,
		Location: to.Location,
		Mode:     trip.Route.Mode,
		Source:   trip.Source,
		Routes:   []string{trip.Route.Label()},
	})

	return models.ReachableStop{
		Stop:           stop,
		FromStop:       from.StopName,
		RouteLabel:     trip.Route.Label(),
		Headsign:       trip.Headsign,
		ElapsedMinutes: elapsedSeconds / 60,
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
