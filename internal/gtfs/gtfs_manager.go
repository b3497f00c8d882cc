package gtfs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamespfennell/gtfs"

	"transitfinder.org/internal/isochrone"
	"transitfinder.org/internal/models"
	"transitfinder.org/internal/utils"
)

// Manager serves schedule and stop lookups from a static GTFS feed.
// It implements isochrone.ScheduleProvider and isochrone.StopFinder.
type Manager struct {
	config       Config
	mu           sync.RWMutex
	feed         *feedIndex
	lastUpdated  time.Time
	shutdownChan chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

var (
	_ isochrone.ScheduleProvider = (*Manager)(nil)
	_ isochrone.StopFinder       = (*Manager)(nil)
)

type stopVisit struct {
	trip  *gtfs.ScheduledTrip
	index int
}

type feedIndex struct {
	static     *gtfs.Static
	trips      map[string]*gtfs.ScheduledTrip
	visits     map[string][]stopVisit
	stopRoutes map[string][]*gtfs.Route
}

// buildIndex orders every trip's stop times by sequence and indexes trips by
// ID and stop visits by stop ID.
func buildIndex(static *gtfs.Static) *feedIndex {
	idx := &feedIndex{
		static:     static,
		trips:      make(map[string]*gtfs.ScheduledTrip, len(static.Trips)),
		visits:     make(map[string][]stopVisit),
		stopRoutes: make(map[string][]*gtfs.Route),
	}

	seen := make(map[string]map[string]bool)
	for i := range static.Trips {
		trip := &static.Trips[i]
		sort.SliceStable(trip.StopTimes, func(a, b int) bool {
			return trip.StopTimes[a].StopSequence < trip.StopTimes[b].StopSequence
		})
		idx.trips[trip.ID] = trip
		for j, st := range trip.StopTimes {
			if st.Stop == nil {
				continue
			}
			idx.visits[st.Stop.Id] = append(idx.visits[st.Stop.Id], stopVisit{trip: trip, index: j})
			if trip.Route == nil {
				continue
			}
			if seen[st.Stop.Id] == nil {
				seen[st.Stop.Id] = make(map[string]bool)
			}
			if !seen[st.Stop.Id][trip.Route.Id] {
				seen[st.Stop.Id][trip.Route.Id] = true
				idx.stopRoutes[st.Stop.Id] = append(idx.stopRoutes[st.Stop.Id], trip.Route)
			}
		}
	}
	return idx
}

// InitGTFSManager loads the feed named by config.Source and, for remote
// feeds with a ReloadInterval, keeps it fresh in the background.
func InitGTFSManager(ctx context.Context, config Config) (*Manager, error) {
	staticData, err := loadGTFSData(ctx, config)
	if err != nil {
		return nil, err
	}

	manager := NewManager(staticData, config)
	if !config.isLocalFile() && config.ReloadInterval > 0 {
		manager.wg.Add(1)
		go manager.updateStaticGTFS()
	}
	return manager, nil
}

// NewManager wraps an already parsed feed. No background reloads are started.
func NewManager(staticData *gtfs.Static, config Config) *Manager {
	manager := &Manager{
		config:       config,
		shutdownChan: make(chan struct{}),
	}
	manager.setStaticGTFS(staticData)
	return manager
}

// Shutdown gracefully shuts down the manager and its background goroutines
func (manager *Manager) Shutdown() {
	manager.shutdownOnce.Do(func() {
		close(manager.shutdownChan)
		manager.wg.Wait()
	})
}

func (manager *Manager) index() *feedIndex {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.feed
}

// LastUpdated is when the current feed was loaded.
func (manager *Manager) LastUpdated() time.Time {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.lastUpdated
}

type stopWithDistance struct {
	stop     *gtfs.Stop
	distance float64
}

// FindNearbyStops returns every located stop within radiusMeters of center,
// nearest first.
func (manager *Manager) FindNearbyStops(ctx context.Context, center models.LatLng, radiusMeters float64) ([]models.Stop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx := manager.index()

	var candidates []stopWithDistance
	for i := range idx.static.Stops {
		stop := &idx.static.Stops[i]
		if stop.Latitude == nil || stop.Longitude == nil {
			continue
		}
		distance := utils.Haversine(center.Lat, center.Lng, *stop.Latitude, *stop.Longitude)
		if distance <= radiusMeters {
			candidates = append(candidates, stopWithDistance{stop, distance})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	stops := make([]models.Stop, 0, len(candidates))
	for _, c := range candidates {
		routes := idx.stopRoutes[c.stop.Id]
		stop := models.NewStop(c.stop.Id, c.stop.Name, *c.stop.Latitude, *c.stop.Longitude, stopMode(routes), models.SourceGTFS)
		stop.StopCode = c.stop.Id
		stop.Address = c.stop.Description
		for _, r := range routes {
			stop.Routes = append(stop.Routes, routeModel(r).Label())
		}
		stops = append(stops, stop)
	}
	return stops, nil
}

// Departures lists trips leaving stopID inside window, earliest first.
// Service days starting the day before the window are included so trips
// running past midnight are found.
func (manager *Manager) Departures(ctx context.Context, stopID string, window isochrone.DepartureWindow) ([]models.Departure, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx := manager.index()

	visits, ok := idx.visits[stopID]
	if !ok {
		return nil, fmt.Errorf("stop %q: %w", stopID, isochrone.ErrNotFound)
	}

	loc := manager.config.location()
	from := window.From.In(loc)
	today := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	days := []time.Time{today.AddDate(0, 0, -1), today}
	if end := from.Add(window.Duration); end.Day() != from.Day() {
		days = append(days, today.AddDate(0, 0, 1))
	}

	type timed struct {
		at time.Time
		d  models.Departure
	}
	var found []timed
	for _, day := range days {
		for _, v := range visits {
			// the last stop of a trip is an arrival only
			if v.index == len(v.trip.StopTimes)-1 || !serviceRuns(v.trip.Service, day) {
				continue
			}
			st := v.trip.StopTimes[v.index]
			at := day.Add(departureOffset(st))
			if !window.Contains(at) {
				continue
			}
			found = append(found, timed{at: at, d: models.Departure{
				TripID:        v.trip.ID,
				Route:         routeModel(v.trip.Route),
				Headsign:      headsign(v.trip),
				ServiceDate:   day.Format(models.ServiceDateLayout),
				DepartureTime: formatOffset(departureOffset(st)),
			}})
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].at.Before(found[j].at) })
	departures := make([]models.Departure, len(found))
	for i, f := range found {
		departures[i] = f.d
	}
	return departures, nil
}

// TripStopTimes returns the ordered stop sequence of tripID. routeID, when
// set, must match the trip's route. serviceDate is not needed for a static
// feed and is ignored.
func (manager *Manager) TripStopTimes(ctx context.Context, routeID, tripID, serviceDate string) ([]models.TripStopTime, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx := manager.index()

	trip, ok := idx.trips[tripID]
	if !ok || (routeID != "" && (trip.Route == nil || trip.Route.Id != routeID)) {
		return nil, fmt.Errorf("trip %q on route %q: %w", tripID, routeID, isochrone.ErrNotFound)
	}

	stopTimes := make([]models.TripStopTime, 0, len(trip.StopTimes))
	for _, st := range trip.StopTimes {
		row := models.TripStopTime{
			Sequence:  st.StopSequence,
			Arrival:   formatOffset(arrivalOffset(st)),
			Departure: formatOffset(departureOffset(st)),
		}
		if st.Stop != nil {
			row.StopID = st.Stop.Id
			row.StopCode = st.Stop.Id
			row.StopName = st.Stop.Name
			if st.Stop.Latitude != nil && st.Stop.Longitude != nil {
				row.Location = &models.LatLng{Lat: *st.Stop.Latitude, Lng: *st.Stop.Longitude}
			}
		}
		stopTimes = append(stopTimes, row)
	}
	return stopTimes, nil
}

func departureOffset(st gtfs.ScheduledStopTime) time.Duration {
	if st.DepartureTime == 0 && st.ArrivalTime != 0 {
		return st.ArrivalTime
	}
	return st.DepartureTime
}

func arrivalOffset(st gtfs.ScheduledStopTime) time.Duration {
	if st.ArrivalTime == 0 && st.DepartureTime != 0 {
		return st.DepartureTime
	}
	return st.ArrivalTime
}

// formatOffset renders an offset from the start of the service day as
// HH:MM:SS, keeping hours past 23.
func formatOffset(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}

func headsign(trip *gtfs.ScheduledTrip) string {
	if trip.Headsign != "" {
		return trip.Headsign
	}
	if n := len(trip.StopTimes); n > 0 && trip.StopTimes[n-1].Stop != nil {
		return trip.StopTimes[n-1].Stop.Name
	}
	return ""
}

func routeModel(r *gtfs.Route) models.Route {
	if r == nil {
		return models.Route{}
	}
	return models.Route{
		ID:        r.Id,
		ShortName: r.ShortName,
		LongName:  r.LongName,
		Mode:      models.ModeForRouteType(int(r.Type)),
	}
}

// stopMode is the mode shared by every route at a stop.
func stopMode(routes []*gtfs.Route) models.TransitMode {
	modes := make([]models.TransitMode, len(routes))
	for i, r := range routes {
		modes[i] = models.ModeForRouteType(int(r.Type))
	}
	return models.CommonMode(modes)
}

func serviceRuns(s *gtfs.Service, day time.Time) bool {
	if s == nil {
		return false
	}
	date := day.Format(models.ServiceDateLayout)
	for _, d := range s.RemovedDates {
		if d.Format(models.ServiceDateLayout) == date {
			return false
		}
	}
	for _, d := range s.AddedDates {
		if d.Format(models.ServiceDateLayout) == date {
			return true
		}
	}
	if s.StartDate.IsZero() || s.EndDate.IsZero() {
		return false
	}
	if date < s.StartDate.Format(models.ServiceDateLayout) || date > s.EndDate.Format(models.ServiceDateLayout) {
		return false
	}

	switch day.Weekday() {
	case time.Monday:
		return s.Monday
	case time.Tuesday:
		return s.Tuesday
	case time.Wednesday:
		return s.Wednesday
	case time.Thursday:
		return s.Thursday
	case time.Friday:
		return s.Friday
	case time.Saturday:
		return s.Saturday
	default:
		return s.Sunday
	}
}
