package isochrone

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"transitfinder.org/internal/models"
)

// DefaultDepartureWindow is how far ahead departures are searched.
const DefaultDepartureWindow = time.Hour

// Origin identifies the stop an isochrone starts from. StopID is the id the
// schedule provider knows the stop by; StopCode is the feed-local stop id
// used inside trips (StopID is used when empty). A trip row only matches when
// both the code and the name agree.
type Origin struct {
	StopID   string
	StopCode string
	Name     string
}

func (o Origin) code() string {
	if o.StopCode != "" {
		return o.StopCode
	}
	return o.StopID
}

func (o Origin) validate() error {
	if strings.TrimSpace(o.StopID) == "" {
		return fmt.Errorf("%w: origin stop id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(o.Name) == "" {
		return fmt.Errorf("%w: origin stop name is required", ErrInvalidRequest)
	}
	return nil
}

// Trip is the single representative trip an isochrone is walked along.
type Trip struct {
	ID          string
	Route       models.Route
	Headsign    string
	ServiceDate string
	StopTimes   []models.TripStopTime
	OriginIndex int
	Circular    bool
	Source      models.Source
}

// OriginStop is the trip row the traversal starts from.
func (t *Trip) OriginStop() models.TripStopTime {
	return t.StopTimes[t.OriginIndex]
}

// GraphBuilder fetches the trip an isochrone is computed on.
type GraphBuilder struct {
	schedule ScheduleProvider
	window   time.Duration
	source   models.Source
}

// NewGraphBuilder builds trips from schedule. source tags the stops the
// resulting isochrone reports.
func NewGraphBuilder(schedule ScheduleProvider, window time.Duration, source models.Source) *GraphBuilder {
	if window <= 0 {
		window = DefaultDepartureWindow
	}
	return &GraphBuilder{schedule: schedule, window: window, source: source}
}

// Build picks the first departure from origin that is bound to a route and
// has a headsign, then loads that trip's ordered stop times and locates the
// origin in them.
func (b *GraphBuilder) Build(ctx context.Context, origin Origin, from time.Time) (*Trip, error) {
	if err := origin.validate(); err != nil {
		return nil, err
	}

	window := DepartureWindow{From: from, Duration: b.window}
	departures, err := b.schedule.Departures(ctx, origin.StopID, window)
	if err != nil {
		return nil, providerError("departures for stop "+origin.StopID, err)
	}

	departure, ok := pickDeparture(departures)
	if !ok {
		return nil, fmt.Errorf("%w: no departure with a route and headsign from stop %s in the next %s",
			ErrNotFound, origin.StopID, b.window)
	}

	stopTimes, err := b.schedule.TripStopTimes(ctx, departure.Route.ID, departure.TripID, departure.ServiceDate)
	if err != nil {
		return nil, providerError("stop times for trip "+departure.TripID, err)
	}

	ordered, err := orderStopTimes(stopTimes)
	if err != nil {
		return nil, fmt.Errorf("trip %s: %w", departure.TripID, err)
	}

	originIndex := findOrigin(ordered, origin)
	if originIndex < 0 {
		return nil, fmt.Errorf("%w: stop %q (%s) is not on trip %s",
			ErrNotFound, origin.Name, origin.code(), departure.TripID)
	}

	return &Trip{
		ID:          departure.TripID,
		Route:       departure.Route,
		Headsign:    departure.Headsign,
		ServiceDate: departure.ServiceDate,
		StopTimes:   ordered,
		OriginIndex: originIndex,
		Circular:    isCircular(ordered),
		Source:      b.source,
	}, nil
}

func pickDeparture(departures []models.Departure) (models.Departure, bool) {
	for _, d := range departures {
		if d.Route.ID != "" && strings.TrimSpace(d.Headsign) != "" && d.TripID != "" {
			return d, true
		}
	}
	return models.Departure{}, false
}

// orderStopTimes returns a copy sorted by sequence.
func orderStopTimes(stopTimes []models.TripStopTime) ([]models.TripStopTime, error) {
	if len(stopTimes) == 0 {
		return nil, fmt.Errorf("%w: trip has no stop times", ErrInvalidSchedule)
	}

	ordered := append([]models.TripStopTime(nil), stopTimes...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Sequence < ordered[j].Sequence
	})

	for i := 1; i < len(ordered); i++ {
		if ordered[i].Sequence == ordered[i-1].Sequence {
			return nil, fmt.Errorf("%w: duplicate stop sequence %d", ErrInvalidSchedule, ordered[i].Sequence)
		}
	}
	return ordered, nil
}

func findOrigin(stopTimes []models.TripStopTime, origin Origin) int {
	code := origin.code()
	for i, st := range stopTimes {
		if st.StopCode != code && st.StopID != code {
			continue
		}
		if sameName(st.StopName, origin.Name) {
			return i
		}
	}
	return -1
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// isCircular reports whether the trip ends where it started.
func isCircular(stopTimes []models.TripStopTime) bool {
	if len(stopTimes) < 3 {
		return false
	}
	first, last := stopTimes[0], stopTimes[len(stopTimes)-1]
	if first.StopCode != "" && first.StopCode == last.StopCode {
		return true
	}
	if first.Location == nil || last.Location == nil || !sameName(first.StopName, last.StopName) {
		return false
	}
	return DedupKey(models.Stop{Location: first.Location}) == DedupKey(models.Stop{Location: last.Location})
}
