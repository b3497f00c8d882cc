package gtfs

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type Config struct {
	// Source is a local path or an http(s) URL of a GTFS zip.
	Source string
	// ReloadInterval is how often a remote feed is fetched again. Zero disables reloads.
	ReloadInterval time.Duration
	// Location is the agency time zone service days are evaluated in.
	Location *time.Location
	Client   *http.Client
	Logger   *slog.Logger
}

func (config Config) isLocalFile() bool {
	return !strings.HasPrefix(config.Source, "http://") && !strings.HasPrefix(config.Source, "https://")
}

func (config Config) location() *time.Location {
	if config.Location == nil {
		return time.Local
	}
	return config.Location
}

func (config Config) client() *http.Client {
	if config.Client == nil {
		return &http.Client{Timeout: 60 * time.Second}
	}
	return config.Client
}
