package gtfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jamespfennell/gtfs"

	"transitfinder.org/internal/logging"
)

func rawGtfsData(ctx context.Context, config Config) ([]byte, error) {
	if config.isLocalFile() {
		b, err := os.ReadFile(config.Source)
		if err != nil {
			return nil, fmt.Errorf("error reading local GTFS file: %w", err)
		}
		return b, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.Source, nil)
	if err != nil {
		return nil, fmt.Errorf("error building GTFS request: %w", err)
	}
	resp, err := config.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading GTFS data: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, config.Logger, "gtfs_download")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error downloading GTFS data: unexpected status %d", resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading GTFS data: %w", err)
	}
	return b, nil
}

// loadGTFSData loads and parses GTFS data from either a URL or a local file
func loadGTFSData(ctx context.Context, config Config) (*gtfs.Static, error) {
	b, err := rawGtfsData(ctx, config)
	if err != nil {
		return nil, err
	}

	staticData, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("error parsing GTFS data: %w", err)
	}
	return staticData, nil
}

// updateStaticGTFS refetches a remote feed every ReloadInterval until shutdown.
// A failed reload keeps serving the previous feed.
func (manager *Manager) updateStaticGTFS() {
	defer manager.wg.Done()

	ticker := time.NewTicker(manager.config.ReloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			staticData, err := loadGTFSData(ctx, manager.config)
			cancel()

			if err != nil {
				logging.LogError(manager.config.Logger, "Error updating GTFS data", err,
					slog.String("component", "gtfs"),
					slog.String("source", manager.config.Source))
				continue
			}
			manager.setStaticGTFS(staticData)
		case <-manager.shutdownChan:
			logging.LogOperation(manager.config.Logger, "gtfs_reload_stopped")
			return
		}
	}
}

func (manager *Manager) setStaticGTFS(staticData *gtfs.Static) {
	idx := buildIndex(staticData)

	manager.mu.Lock()
	manager.feed = idx
	manager.lastUpdated = time.Now()
	manager.mu.Unlock()

	logging.LogOperation(manager.config.Logger, "gtfs_feed_loaded",
		slog.String("source", manager.config.Source),
		slog.Int("stops", len(staticData.Stops)),
		slog.Int("routes", len(staticData.Routes)),
		slog.Int("trips", len(staticData.Trips)))
}
