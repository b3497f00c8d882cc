package isochrone

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twpayne/go-polyline"

	"transitfinder.org/internal/logging"
	"transitfinder.org/internal/models"
	"transitfinder.org/internal/utils"
)

// Request describes one isochrone computation.
type Request struct {
	Origin        Origin
	BudgetMinutes int
	// StartMinutes is the journey start as minutes past midnight.
	StartMinutes float64
	WithContext  bool
	// ClientID groups requests from one caller; a newer request from the
	// same client supersedes older ones.
	ClientID string
}

// Result is an isochrone along a single trip. Path is the origin followed by
// the reachable stops as an encoded polyline.
type Result struct {
	ID             string                 `json:"id"`
	OriginID       string                 `json:"originId"`
	OriginName     string                 `json:"originName"`
	OriginLocation *models.LatLng         `json:"originLocation,omitempty"`
	TripID         string                 `json:"tripId"`
	Route          models.Route           `json:"route"`
	Headsign       string                 `json:"headsign"`
	ServiceDate    string                 `json:"serviceDate"`
	Circular       bool                   `json:"circular"`
	BudgetMinutes  int                    `json:"budgetMinutes"`
	StartTime      string                 `json:"startTime"`
	Stops          []models.ReachableStop `json:"stops"`
	Recommended    []models.ReachableStop `json:"recommended,omitempty"`
	Path           string                 `json:"path,omitempty"`
}

type EngineOptions struct {
	DepartureWindow time.Duration
	Source          models.Source
	Scorer          *ContextScorer
	Markers         MarkerSink
	Observer        Observer
	Sessions        *Sessions
	Logger          *slog.Logger
	Now             func() time.Time
}

// Engine computes isochrones against a schedule provider.
type Engine struct {
	builder  *GraphBuilder
	scorer   *ContextScorer
	markers  MarkerSink
	observer Observer
	sessions *Sessions
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

func NewEngine(schedule ScheduleProvider, opts EngineOptions) *Engine {
	if opts.Source == "" {
		opts.Source = models.SourceTransitland
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Sessions == nil {
		opts.Sessions = NewSessions()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Engine{
		builder:  NewGraphBuilder(schedule, opts.DepartureWindow, opts.Source),
		scorer:   opts.Scorer,
		markers:  opts.Markers,
		observer: opts.Observer,
		sessions: opts.Sessions,
		logger:   opts.Logger,
		now:      opts.Now,
		newID:    uuid.NewString,
	}
}

// Compute builds the origin's representative trip, walks it within the
// budget and stamps arrival times. With req.WithContext the stops are also
// scored and the best ones recommended. A computation overtaken by a newer
// one from the same client returns ErrSuperseded.
func (e *Engine) Compute(ctx context.Context, req Request) (result *Result, err error) {
	started := e.now()
	id := e.newID()

	reachable := 0
	defer func() {
		if result != nil {
			reachable = len(result.Stops)
		}
		e.observer.ObserveComputation(Outcome(err), e.now().Sub(started), reachable)
	}()

	if req.BudgetMinutes <= 0 {
		return nil, fmt.Errorf("%w: budget must be positive", ErrInvalidRequest)
	}
	if req.StartMinutes < 0 || req.StartMinutes >= utils.MinutesPerDay {
		return nil, fmt.Errorf("%w: start time outside the day", ErrInvalidRequest)
	}

	e.sessions.Begin(req.ClientID, id)
	result, err = e.compute(ctx, id, req, started)
	if !e.sessions.Finish(req.ClientID, id) {
		return nil, fmt.Errorf("%w: %s", ErrSuperseded, id)
	}
	if err != nil {
		if Outcome(err) == "invalid_schedule" {
			logging.LogError(e.logger, "invalid schedule data", err,
				slog.String("component", "isochrone"),
				slog.String("stop_id", req.Origin.StopID))
		}
		return nil, err
	}

	e.publishMarkers(ctx, req.ClientID, result)

	logging.LogOperation(e.logger, "isochrone_computed",
		slog.String("id", result.ID),
		slog.String("stop_id", req.Origin.StopID),
		slog.String("trip_id", result.TripID),
		slog.Int("reachable", len(result.Stops)),
		slog.Duration("duration", e.now().Sub(started)))

	return result, nil
}

func (e *Engine) compute(ctx context.Context, id string, req Request, started time.Time) (*Result, error) {
	trip, err := e.builder.Build(ctx, req.Origin, started)
	if err != nil {
		return nil, err
	}

	stops, err := Traverse(trip, float64(req.BudgetMinutes))
	if err != nil {
		return nil, fmt.Errorf("trip %s: %w", trip.ID, err)
	}
	stops = Annotate(req.StartMinutes, stops)

	origin := trip.OriginStop()
	if origin.Location != nil {
		for i := range stops {
			if stops[i].Location != nil {
				stops[i].Direction = utils.CompassDirection(*origin.Location, *stops[i].Location)
			}
		}
	}

	result := &Result{
		ID:             id,
		OriginID:       req.Origin.StopID,
		OriginName:     origin.StopName,
		OriginLocation: origin.Location,
		TripID:         trip.ID,
		Route:          trip.Route,
		Headsign:       trip.Headsign,
		ServiceDate:    trip.ServiceDate,
		Circular:       trip.Circular,
		BudgetMinutes:  req.BudgetMinutes,
		StartTime:      utils.FormatClock(req.StartMinutes),
		Stops:          stops,
	}

	if req.WithContext && e.scorer != nil && len(stops) > 0 {
		scored, recommended, err := e.scorer.Score(ctx, stops)
		if err != nil {
			return nil, fmt.Errorf("scoring reachable stops: %w", err)
		}
		result.Stops = scored
		result.Recommended = recommended
	}

	result.Path = encodePath(origin.Location, result.Stops)
	return result, nil
}

// encodePath encodes the origin followed by every located stop in visit order.
func encodePath(origin *models.LatLng, stops []models.ReachableStop) string {
	coords := make([][]float64, 0, len(stops)+1)
	if origin != nil {
		coords = append(coords, []float64{origin.Lat, origin.Lng})
	}
	for _, s := range stops {
		if s.Location != nil {
			coords = append(coords, []float64{s.Location.Lat, s.Location.Lng})
		}
	}
	if len(coords) < 2 {
		return ""
	}
	return string(polyline.EncodeCoords(coords))
}

// Markers lists what a map should show for result: the origin, then every
// reachable stop, recommended ones marked as such.
func Markers(result *Result) []models.Marker {
	markers := make([]models.Marker, 0, len(result.Stops)+1)
	if result.OriginLocation != nil {
		markers = append(markers, models.Marker{
			StopID:   result.OriginID,
			Title:    result.OriginName,
			Location: *result.OriginLocation,
			Kind:     models.MarkerSelected,
		})
	}
	for _, s := range result.Stops {
		if s.Location == nil {
			continue
		}
		kind := models.MarkerReachable
		if s.Recommended {
			kind = models.MarkerRecommended
		}
		markers = append(markers, models.Marker{
			StopID:   s.ID,
			Title:    fmt.Sprintf("%s (%d min)", s.Name, s.ElapsedMinutes),
			Location: *s.Location,
			Kind:     kind,
		})
	}
	return markers
}

func (e *Engine) publishMarkers(ctx context.Context, client string, result *Result) {
	if e.markers == nil {
		return
	}
	cmd := MarkerCommand{
		ComputationID: result.ID,
		ClientID:      client,
		Clear:         true,
		Markers:       Markers(result),
	}
	if err := e.markers.PublishMarkers(ctx, cmd); err != nil {
		logging.LogError(e.logger, "publishing markers failed", err,
			slog.String("component", "isochrone"),
			slog.String("id", result.ID))
	}
}
