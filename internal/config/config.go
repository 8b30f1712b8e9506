// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"go.ngs.io/reanalysis-maps/internal/basemap"
	"go.ngs.io/reanalysis-maps/internal/domain"
	"go.ngs.io/reanalysis-maps/internal/render"
	"go.ngs.io/reanalysis-maps/internal/usecase"
)

// Config is the process configuration.
type Config struct {
	Port string

	URLTemplate string
	Variable    string
	Dates       domain.DateRange

	FontPath   string
	Basemap    basemap.Paths
	Projection string

	// DAPTimeout bounds each HTTP call of the DAP2 backend (0 = none).
	DAPTimeout time.Duration

	AllowedOrigins  []string // empty allows all origins
	PrewarmSchedule string   // cron expression, empty disables prewarming

	LogLevel  zerolog.Level
	LogFormat string // "json" or "console"
}

// Load reads configuration from the environment, after loading .env
// if one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}
	return FromEnv()
}

// FromEnv reads configuration from the environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		URLTemplate: getEnv("DATASET_URL_TEMPLATE", usecase.DefaultURLTemplate),
		Variable:    getEnv("DATASET_VARIABLE", usecase.DefaultVariable),
		FontPath:    getEnv("FONT_PATH", render.DefaultFontPath),
		Basemap: basemap.Paths{
			Land:      os.Getenv("BASEMAP_LAND_PATH"),
			Coastline: os.Getenv("BASEMAP_COASTLINE_PATH"),
			Borders:   os.Getenv("BASEMAP_BORDERS_PATH"),
		},
		Projection:      getEnv("MAP_PROJECTION", render.DefaultProjection),
		PrewarmSchedule: strings.TrimSpace(os.Getenv("PREWARM_SCHEDULE")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "json")),
	}

	if !strings.Contains(cfg.URLTemplate, "{year}") {
		return nil, fmt.Errorf("invalid DATASET_URL_TEMPLATE: missing {year} placeholder")
	}

	cfg.Dates = domain.DefaultDateRange()
	if s := os.Getenv("EARLIEST_DATE"); s != "" {
		d, err := domain.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("invalid EARLIEST_DATE: %w", err)
		}
		cfg.Dates.Earliest = d
	}
	lag, err := getEnvInt("REPORTING_LAG_DAYS", cfg.Dates.Lag)
	if err != nil {
		return nil, err
	}
	if lag < 0 {
		return nil, fmt.Errorf("invalid REPORTING_LAG_DAYS: must be >= 0, got %d", lag)
	}
	cfg.Dates.Lag = lag

	if s := os.Getenv("DAP_HTTP_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid DAP_HTTP_TIMEOUT: %w", err)
		}
		cfg.DAPTimeout = d
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(getEnv("LOG_LEVEL", "info")))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	switch cfg.LogFormat {
	case "json", "console":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q (expected json or console)", cfg.LogFormat)
	}

	return cfg, nil
}

// SetupLogging configures the global zerolog logger.
func (c *Config) SetupLogging(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	zerolog.SetGlobalLevel(c.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if c.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
