package appconf

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ProviderConfig locates one external HTTP provider.
type ProviderConfig struct {
	BaseURL string        `yaml:"baseUrl" validate:"omitempty,url"`
	APIKey  string        `yaml:"apiKey"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// Config holds every setting the API server reads at startup.
type Config struct {
	Port          int      `yaml:"port" validate:"min=1,max=65535"`
	EnvName       string   `yaml:"env" validate:"oneof=development test production"`
	APIKeys       []string `yaml:"apiKeys" validate:"min=1,dive,required"`
	ExemptAPIKeys []string `yaml:"exemptApiKeys"`
	// RateLimit is requests per second allowed per API key.
	RateLimit float64 `yaml:"rateLimit" validate:"gt=0"`
	LogLevel  string  `yaml:"logLevel" validate:"oneof=debug info warn error"`

	// Schedule selects the ScheduleProvider: a Transitland account or a local GTFS feed.
	Schedule string `yaml:"schedule" validate:"oneof=transitland gtfs"`
	GTFSPath string `yaml:"gtfsPath" validate:"required_if=Schedule gtfs"`
	TimeZone string `yaml:"timeZone" validate:"required"`

	Transitland ProviderConfig `yaml:"transitland"`
	Google      ProviderConfig `yaml:"google"`
	Overpass    ProviderConfig `yaml:"overpass"`

	NATSURL        string `yaml:"natsUrl" validate:"omitempty,url"`
	MarkersSubject string `yaml:"markersSubject" validate:"required_with=NATSURL"`

	PlacesCacheSize int           `yaml:"placesCacheSize" validate:"gte=0"`
	PlacesCacheTTL  time.Duration `yaml:"placesCacheTTL" validate:"gte=0"`

	SearchRadius      float64       `yaml:"searchRadius" validate:"gt=0,lte=10000"`
	MaxResults        int           `yaml:"maxResults" validate:"gt=0,lte=100"`
	DepartureWindow   time.Duration `yaml:"departureWindow" validate:"gt=0"`
	ScorerConcurrency int           `yaml:"scorerConcurrency" validate:"gt=0"`
	ScorerRate        float64       `yaml:"scorerRate" validate:"gte=0"`
}

// Env is the parsed EnvName.
func (c Config) Env() Environment {
	return EnvFlagToEnvironment(c.EnvName)
}

func Defaults() Config {
	return Config{
		Port:              4000,
		EnvName:           "development",
		APIKeys:           []string{"test"},
		RateLimit:         100,
		LogLevel:          "info",
		Schedule:          "transitland",
		TimeZone:          "America/Los_Angeles",
		Transitland:       ProviderConfig{BaseURL: "https://transit.land/api/v2/rest", Timeout: 10 * time.Second},
		Google:            ProviderConfig{BaseURL: "https://maps.googleapis.com/maps/api", Timeout: 10 * time.Second},
		Overpass:          ProviderConfig{BaseURL: "https://overpass-api.de/api/interpreter", Timeout: 25 * time.Second},
		MarkersSubject:    "transitfinder.markers",
		PlacesCacheSize:   2048,
		PlacesCacheTTL:    15 * time.Minute,
		SearchRadius:      2000,
		MaxResults:        10,
		DepartureWindow:   time.Hour,
		ScorerConcurrency: 6,
		ScorerRate:        10,
	}
}

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads .env style files into the process environment. Missing
// files are skipped; variables already set are not overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load builds the configuration from defaults, then the optional YAML file,
// then the environment, then overrides (command-line flags), and validates
// the result.
func Load(file string, lookup LookupFunc, overrides ...func(*Config)) (Config, error) {
	cfg := Defaults()

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", file, err)
		}
	}

	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	for _, override := range overrides {
		override(&cfg)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate reports every invalid field in cfg.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func applyEnv(cfg *Config, lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = SplitList(v)
		}
	}

	str("TF_ENV", &cfg.EnvName)
	str("LOG_LEVEL", &cfg.LogLevel)
	list("API_KEYS", &cfg.APIKeys)
	list("EXEMPT_API_KEYS", &cfg.ExemptAPIKeys)
	str("SCHEDULE_PROVIDER", &cfg.Schedule)
	str("GTFS_PATH", &cfg.GTFSPath)
	str("TIME_ZONE", &cfg.TimeZone)
	str("TRANSITLAND_API_KEY", &cfg.Transitland.APIKey)
	str("TRANSITLAND_BASE_URL", &cfg.Transitland.BaseURL)
	str("GOOGLE_MAPS_API_KEY", &cfg.Google.APIKey)
	str("GOOGLE_BASE_URL", &cfg.Google.BaseURL)
	str("OVERPASS_URL", &cfg.Overpass.BaseURL)
	str("NATS_URL", &cfg.NATSURL)
	str("NATS_MARKERS_SUBJECT", &cfg.MarkersSubject)

	var errs []error
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid PORT: %q", v))
		}
		cfg.Port = port
	}
	if v, ok := lookup("RATE_LIMIT"); ok && v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid RATE_LIMIT: %q", v))
		}
		cfg.RateLimit = r
	}
	if v, ok := lookup("PLACES_CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid PLACES_CACHE_TTL: %q", v))
		}
		cfg.PlacesCacheTTL = d
	}
	return errors.Join(errs...)
}

// SplitList splits a comma separated value, trimming blanks.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
