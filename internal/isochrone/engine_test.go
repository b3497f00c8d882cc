package isochrone

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"

	"transitfinder.org/internal/models"
)

var engineOrigin = Origin{StopID: "s-0", StopCode: "100", Name: "Stop 0"}

func newTestEngine(schedule ScheduleProvider, opts EngineOptions) *Engine {
	opts.Now = func() time.Time { return time.Date(2025, 5, 3, 8, 0, 0, 0, time.UTC) }
	e := NewEngine(schedule, opts)
	e.newID = func() string { return "computation-1" }
	return e
}

func TestComputeReachableStops(t *testing.T) {
	sink := &recordingSink{}
	observer := &recordingObserver{}
	engine := newTestEngine(scheduleFor(makeStopTimes(5, 600)), EngineOptions{Markers: sink, Observer: observer})

	result, err := engine.Compute(context.Background(), Request{
		Origin:        engineOrigin,
		BudgetMinutes: 25,
		StartMinutes:  23*60 + 50,
	})
	require.NoError(t, err)

	assert.Equal(t, "computation-1", result.ID)
	assert.Equal(t, "trip-1", result.TripID)
	assert.Equal(t, "38", result.Route.Label())
	assert.Equal(t, "Ocean Beach", result.Headsign)
	assert.Equal(t, "23:50", result.StartTime)
	assert.Empty(t, result.Recommended)

	require.Len(t, result.Stops, 2)
	assert.Equal(t, "s-1", result.Stops[0].ID)
	assert.Equal(t, "00:00", result.Stops[0].ArrivalTime)
	assert.Equal(t, 1, result.Stops[0].DaysLater)
	assert.Equal(t, "00:10", result.Stops[1].ArrivalTime)
	assert.Equal(t, "N", result.Stops[0].Direction)

	coords, _, err := polyline.DecodeCoords([]byte(result.Path))
	require.NoError(t, err)
	require.Len(t, coords, 3)
	assert.InDelta(t, 37.70, coords[0][0], 1e-5)
	assert.InDelta(t, 37.72, coords[2][0], 1e-5)

	require.Len(t, sink.commands, 1)
	cmd := sink.commands[0]
	assert.Equal(t, "computation-1", cmd.ComputationID)
	assert.True(t, cmd.Clear)
	require.Len(t, cmd.Markers, 3)
	assert.Equal(t, models.MarkerSelected, cmd.Markers[0].Kind)
	assert.Equal(t, models.MarkerReachable, cmd.Markers[1].Kind)

	assert.Equal(t, []observation{{outcome: "ok", reachable: 2}}, observer.observations)
}

func TestComputeWithContext(t *testing.T) {
	finder := &fakePlaces{fn: func(center models.LatLng, category string) ([]models.Place, error) {
		if category == "park" && center.Lat > 37.705 && center.Lat < 37.715 {
			return places(2), nil
		}
		return nil, nil
	}}
	scorer := newTestScorer(finder)
	sink := &recordingSink{}
	engine := newTestEngine(scheduleFor(makeStopTimes(6, 600)), EngineOptions{Scorer: scorer, Markers: sink})

	result, err := engine.Compute(context.Background(), Request{
		Origin:        engineOrigin,
		BudgetMinutes: 60,
		StartMinutes:  8 * 60,
		WithContext:   true,
	})
	require.NoError(t, err)

	require.Len(t, result.Stops, 5)
	assert.Equal(t, "s-1", result.Stops[0].ID, "stops stay in traversal order")
	require.Len(t, result.Recommended, RecommendedCount)
	assert.Equal(t, "s-1", result.Recommended[0].ID)
	assert.True(t, result.Stops[0].Recommended)

	recommendedMarkers := 0
	for _, m := range sink.commands[0].Markers {
		if m.Kind == models.MarkerRecommended {
			recommendedMarkers++
		}
	}
	assert.Equal(t, RecommendedCount, recommendedMarkers)
}

func TestComputeSupersededByNewerRequest(t *testing.T) {
	schedule := scheduleFor(makeStopTimes(4, 600))
	sink := &recordingSink{}
	engine := newTestEngine(schedule, EngineOptions{Markers: sink})
	ids := []string{"older", "newer"}
	engine.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	var newer *Result
	var newerErr error
	schedule.onDepartures = func() {
		newer, newerErr = engine.Compute(context.Background(), Request{
			Origin: engineOrigin, BudgetMinutes: 30, StartMinutes: 480, ClientID: "browser-1",
		})
	}

	older, err := engine.Compute(context.Background(), Request{
		Origin: engineOrigin, BudgetMinutes: 30, StartMinutes: 480, ClientID: "browser-1",
	})

	assert.ErrorIs(t, err, ErrSuperseded)
	assert.Nil(t, older)
	require.NoError(t, newerErr)
	assert.Equal(t, "newer", newer.ID)

	require.Len(t, sink.commands, 1, "only the current computation reaches the map")
	assert.Equal(t, "newer", sink.commands[0].ComputationID)
}

func TestComputeErrors(t *testing.T) {
	observer := &recordingObserver{}
	engine := newTestEngine(scheduleFor(makeStopTimes(4, 600)), EngineOptions{Observer: observer})

	_, err := engine.Compute(context.Background(), Request{Origin: engineOrigin, BudgetMinutes: 0})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = engine.Compute(context.Background(), Request{Origin: engineOrigin, BudgetMinutes: 10, StartMinutes: 1440})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = engine.Compute(context.Background(), Request{Origin: Origin{StopID: "s-0", Name: "Elsewhere"}, BudgetMinutes: 10})
	assert.ErrorIs(t, err, ErrNotFound)

	broken := makeStopTimes(4, 600)
	broken[2].Arrival = "not a time"
	engine = newTestEngine(scheduleFor(broken), EngineOptions{Observer: observer})
	_, err = engine.Compute(context.Background(), Request{Origin: engineOrigin, BudgetMinutes: 10})
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	outcomes := make([]string, len(observer.observations))
	for i, o := range observer.observations {
		outcomes[i] = o.outcome
	}
	assert.Equal(t, []string{"invalid_request", "invalid_request", "not_found", "invalid_schedule"}, outcomes)
}

func TestComputeIgnoresMarkerFailures(t *testing.T) {
	sink := &recordingSink{err: errors.New("nats: connection closed")}
	engine := newTestEngine(scheduleFor(makeStopTimes(4, 600)), EngineOptions{Markers: sink})

	result, err := engine.Compute(context.Background(), Request{Origin: engineOrigin, BudgetMinutes: 15})
	require.NoError(t, err)
	assert.Len(t, result.Stops, 1)
}

func TestMarkersSkipUnlocatedStops(t *testing.T) {
	result := &Result{
		OriginID:       "o",
		OriginName:     "Origin",
		OriginLocation: &models.LatLng{Lat: 1, Lng: 1},
		Stops: []models.ReachableStop{
			{Stop: models.Stop{ID: "a", Name: "A"}, ElapsedMinutes: 4},
			{Stop: models.NewStop("b", "B", 2, 2, models.ModeBus, models.SourceGTFS), ElapsedMinutes: 9, Recommended: true},
		},
	}

	markers := Markers(result)

	require.Len(t, markers, 2)
	assert.Equal(t, "B (9 min)", markers[1].Title)
	assert.Equal(t, models.MarkerRecommended, markers[1].Kind)
}
