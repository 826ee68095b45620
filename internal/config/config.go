// Package config resolves the server's settings from the saved application
// config, a local .env file and the process environment, in increasing order
// of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/piwi3910/SolarRack/internal/model"
)

const (
	defaultAddr          = ":8080"
	defaultMaxConcurrent = 32
)

// Server holds the settings of cmd/solarrack-server.
type Server struct {
	Addr          string
	CatalogPath   string
	DatabasePath  string
	WebhookURL    string
	LogLevel      string
	LogFormat     string
	Workers       int
	Timeout       time.Duration
	Fallback      bool
	MaxConcurrent int // in-flight API requests, 0 for unlimited
}

// FromAppConfig seeds server settings from the persisted application config.
func FromAppConfig(app model.AppConfig) Server {
	timeout := time.Duration(app.DispatchTimeoutSeconds) * time.Second
	return Server{
		Addr:          defaultAddr,
		CatalogPath:   app.CatalogPath,
		DatabasePath:  app.DatabasePath,
		WebhookURL:    app.WebhookURL,
		LogLevel:      app.LogLevel,
		LogFormat:     app.LogFormat,
		Workers:       app.Workers,
		Timeout:       timeout,
		Fallback:      app.FallbackOnFailure,
		MaxConcurrent: defaultMaxConcurrent,
	}
}

// Load applies the .env file at dotenvPath (if any) and then the SOLARRACK_*
// and LOG_* environment variables on top of base.
func Load(base Server, dotenvPath string) (Server, error) {
	if dotenvPath != "" {
		if err := LoadDotEnv(dotenvPath); err != nil {
			return base, err
		}
	}

	cfg := base
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	stringVar(&cfg.Addr, "SOLARRACK_ADDR")
	stringVar(&cfg.CatalogPath, "SOLARRACK_CATALOG")
	stringVar(&cfg.DatabasePath, "SOLARRACK_DB_PATH")
	stringVar(&cfg.WebhookURL, "SOLARRACK_WEBHOOK_URL")
	stringVar(&cfg.LogLevel, "LOG_LEVEL")
	stringVar(&cfg.LogFormat, "LOG_FORMAT")

	if err := intVar(&cfg.Workers, "SOLARRACK_WORKERS"); err != nil {
		return base, err
	}
	if err := intVar(&cfg.MaxConcurrent, "SOLARRACK_MAX_CONCURRENT"); err != nil {
		return base, err
	}
	if raw := os.Getenv("SOLARRACK_DISPATCH_TIMEOUT"); raw != "" {
		d, err := parseTimeout(raw)
		if err != nil {
			return base, fmt.Errorf("SOLARRACK_DISPATCH_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if raw := os.Getenv("SOLARRACK_FALLBACK"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return base, fmt.Errorf("SOLARRACK_FALLBACK: %w", err)
		}
		cfg.Fallback = b
	}

	return cfg, nil
}

func stringVar(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func intVar(dst *int, key string) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

// parseTimeout accepts a Go duration ("1500ms") or a number of seconds ("10").
func parseTimeout(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}
