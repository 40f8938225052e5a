// Package config loads monitor settings from an optional YAML file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values for the monitor.
type Config struct {
	// Base URL of the scheduler service (e.g., "http://localhost:9200")
	SchedulerURL string

	// HTTP server port for the monitor
	HTTPPort int

	// Page size used when a view is first opened
	DefaultPageSize int

	// Upper bound for page sizes requested by clients
	MaxPageSize int

	// Timeout of the HTTP client talking to the scheduler
	RequestTimeout time.Duration

	// Per-client request rate; 0 disables limiting
	RateLimit      float64
	RateLimitBurst int

	LogLevel string

	// Display timezone for rendered timestamps ("Local" or an IANA name)
	TimeZone string

	// OTLP gRPC collector; empty disables tracing
	OTELEndpoint string
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"scheduler_url":     "SCHEDULER_URL",
	"http_port":         "PORT",
	"default_page_size": "DEFAULT_PAGE_SIZE",
	"max_page_size":     "MAX_PAGE_SIZE",
	"request_timeout":   "REQUEST_TIMEOUT",
	"rate_limit":        "RATE_LIMIT",
	"rate_limit_burst":  "RATE_LIMIT_BURST",
	"log_level":         "LOG_LEVEL",
	"time_zone":         "TIME_ZONE",
	"otel_endpoint":     "OTEL_EXPORTER_OTLP_ENDPOINT",
}

// Load reads configuration from the given YAML file (or ./jobwatch.yaml when
// path is empty and the file exists), then applies environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("http_port", 6262)
	v.SetDefault("default_page_size", 10)
	v.SetDefault("max_page_size", 100)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("rate_limit_burst", 20)
	v.SetDefault("log_level", "info")
	v.SetDefault("time_zone", "Local")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("jobwatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{
		SchedulerURL:    strings.TrimRight(v.GetString("scheduler_url"), "/"),
		HTTPPort:        v.GetInt("http_port"),
		DefaultPageSize: v.GetInt("default_page_size"),
		MaxPageSize:     v.GetInt("max_page_size"),
		RequestTimeout:  v.GetDuration("request_timeout"),
		RateLimit:       v.GetFloat64("rate_limit"),
		RateLimitBurst:  v.GetInt("rate_limit_burst"),
		LogLevel:        strings.ToLower(v.GetString("log_level")),
		TimeZone:        v.GetString("time_zone"),
		OTELEndpoint:    v.GetString("otel_endpoint"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SchedulerURL == "" {
		return fmt.Errorf("scheduler_url is required (env: SCHEDULER_URL)")
	}
	if c.DefaultPageSize <= 0 {
		return fmt.Errorf("invalid default_page_size: %d", c.DefaultPageSize)
	}
	if c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("max_page_size (%d) must be at least default_page_size (%d)", c.MaxPageSize, c.DefaultPageSize)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid rate_limit: %v", c.RateLimit)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s (expected: debug, info, warn, error)", c.LogLevel)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid time_zone: %w", err)
	}
	return nil
}

// Location returns the display timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TimeZone)
}
