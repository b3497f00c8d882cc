package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"transitfinder.org/internal/app"
	"transitfinder.org/internal/appconf"
	"transitfinder.org/internal/gtfs"
	"transitfinder.org/internal/isochrone"
	"transitfinder.org/internal/logging"
	"transitfinder.org/internal/markers"
	"transitfinder.org/internal/metrics"
	"transitfinder.org/internal/models"
	"transitfinder.org/internal/placescache"
	"transitfinder.org/internal/providers/google"
	"transitfinder.org/internal/providers/overpass"
	"transitfinder.org/internal/providers/transitland"
	"transitfinder.org/internal/restapi"
)

const gtfsReloadInterval = 24 * time.Hour

// services owns everything the server needs and releases it on Close.
type services struct {
	API     *restapi.RestAPI
	App     *app.Application
	closers []func()
}

func newServices(ctx context.Context, cfg appconf.Config, logger *slog.Logger) (*services, error) {
	svc := &services{}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", cfg.TimeZone, err)
	}

	collector := metrics.NewCollector()
	googleClient := google.NewClient(cfg.Google.BaseURL, cfg.Google.APIKey, cfg.Google.Timeout, collector, logger)
	overpassClient := overpass.NewClient(cfg.Overpass.BaseURL, cfg.Overpass.Timeout, collector, logger)

	schedule, finder, source, err := newSchedule(ctx, cfg, loc, collector, logger, svc)
	if err != nil {
		svc.Close()
		return nil, err
	}

	finders := []isochrone.NamedStopFinder{
		{Name: "google", Finder: googleClient},
		{Name: string(source), Finder: finder},
		{Name: "overpass", Finder: overpassClient},
	}

	places := placescache.New(googleClient, cfg.PlacesCacheSize, cfg.PlacesCacheTTL, collector)
	scorer := isochrone.NewContextScorer(places, isochrone.ScorerConfig{
		Concurrency:       cfg.ScorerConcurrency,
		RequestsPerSecond: cfg.ScorerRate,
		Burst:             cfg.ScorerConcurrency,
	}, logger)

	opts := isochrone.EngineOptions{
		DepartureWindow: cfg.DepartureWindow,
		Source:          source,
		Scorer:          scorer,
		Observer:        collector,
		Logger:          logger,
	}
	if cfg.NATSURL != "" {
		publisher, err := markers.Connect(cfg.NATSURL, cfg.MarkersSubject, collector, logger)
		if err != nil {
			svc.Close()
			return nil, err
		}
		opts.Markers = publisher
		svc.closers = append(svc.closers, func() {
			if err := publisher.Close(); err != nil {
				logging.LogError(logger, "failed to drain nats connection", err)
			}
		})
	}

	svc.App = &app.Application{
		Config:   cfg,
		Logger:   logger,
		Engine:   isochrone.NewEngine(schedule, opts),
		Nearby:   isochrone.NewNearbySearch(googleClient, finders, isochrone.NearbyConfig{RadiusMeters: cfg.SearchRadius, MaxResults: cfg.MaxResults}, logger),
		Metrics:  collector,
		Location: loc,
		Now:      time.Now,
	}
	svc.API = restapi.NewRestAPI(svc.App)
	svc.closers = append(svc.closers, svc.API.Shutdown)
	return svc, nil
}

// newSchedule builds the configured schedule provider. Both providers also
// answer nearby stop searches.
func newSchedule(ctx context.Context, cfg appconf.Config, loc *time.Location, collector *metrics.Collector, logger *slog.Logger, svc *services) (isochrone.ScheduleProvider, isochrone.StopFinder, models.Source, error) {
	switch cfg.Schedule {
	case "gtfs":
		manager, err := gtfs.InitGTFSManager(ctx, gtfs.Config{
			Source:         cfg.GTFSPath,
			ReloadInterval: gtfsReloadInterval,
			Location:       loc,
			Client: &http.Client{
				Timeout:   2 * time.Minute,
				Transport: collector.Transport("gtfs", http.DefaultTransport, logger),
			},
			Logger: logger,
		})
		if err != nil {
			return nil, nil, "", fmt.Errorf("loading GTFS feed: %w", err)
		}
		svc.closers = append(svc.closers, manager.Shutdown)
		return manager, manager, models.SourceGTFS, nil
	default:
		client := transitland.NewClient(cfg.Transitland.BaseURL, cfg.Transitland.APIKey, cfg.Transitland.Timeout, loc, collector, logger)
		return client, client, models.SourceTransitland, nil
	}
}

// Close releases resources in reverse order of acquisition.
func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
