// Package config loads application configuration from a YAML file with
// environment-variable overrides. A missing file is created with
// defaults on first run.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	// WeatherAPIKey is the OpenWeatherMap API key. When empty the
	// dashboard falls back to the built-in demo weather provider.
	WeatherAPIKey string `yaml:"weather_api_key"`

	// Geolocation toggles IP-based geolocation of the primary
	// location. When false, the primary location is the fallback
	// place (or the pinned coordinates below).
	Geolocation bool `yaml:"geolocation"`

	// PinLat/PinLon pin the primary location to fixed coordinates,
	// bypassing geolocation. Both must be set to take effect.
	PinLat *float64 `yaml:"pin_lat,omitempty"`
	PinLon *float64 `yaml:"pin_lon,omitempty"`

	// Listen is the HTTP listen address for serve mode.
	Listen string `yaml:"listen"`

	// RefreshCron is a cron-style schedule for background weather
	// refresh in serve mode (e.g. "*/15 * * * *").
	RefreshCron string `yaml:"refresh_cron"`

	// PrefsPath is the sqlite preference database location.
	PrefsPath string `yaml:"prefs_path"`
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tzdash.yaml"
	}
	return filepath.Join(home, ".config", "tzdash", "config.yaml")
}

func defaults() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Geolocation: true,
		Listen:      ":8080",
		RefreshCron: "*/15 * * * *",
		PrefsPath:   filepath.Join(home, ".config", "tzdash", "prefs.db"),
	}
}

// Load reads the config at path, creating it with defaults when it does
// not exist, then applies environment overrides:
//
//	TZDASH_WEATHER_API_KEY / OPENWEATHER_API_KEY
//	TZDASH_LISTEN
//	TZDASH_REFRESH_CRON
//	TZDASH_PREFS_PATH
//	TZDASH_GEOLOCATION ("true"/"false")
func Load(path string) (Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if writeErr := write(path, cfg); writeErr != nil {
			return Config{}, writeErr
		}
	case err != nil:
		return Config{}, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TZDASH_WEATHER_API_KEY"); v != "" {
		cfg.WeatherAPIKey = v
	} else if v := os.Getenv("OPENWEATHER_API_KEY"); v != "" {
		cfg.WeatherAPIKey = v
	}
	if v := os.Getenv("TZDASH_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("TZDASH_REFRESH_CRON"); v != "" {
		cfg.RefreshCron = v
	}
	if v := os.Getenv("TZDASH_PREFS_PATH"); v != "" {
		cfg.PrefsPath = v
	}
	if v := os.Getenv("TZDASH_GEOLOCATION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Geolocation = b
		}
	}
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	// 0600: the file may hold an API key.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
