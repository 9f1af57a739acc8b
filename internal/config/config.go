// Package config loads runtime configuration from a .env file, an optional
// config file and CELESTIAL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/litescript/ls-celestial/internal/astro"
	"github.com/litescript/ls-celestial/internal/logging"
)

// EnvPrefix is prepended to every environment variable key.
const EnvPrefix = "CELESTIAL"

const (
	minRefresh = 1 * time.Second
	maxRefresh = 1 * time.Hour
)

// Observer is the optional observer location. Longitude is east-positive
// here and converted to the west-positive astro.Geo by Geo.
type Observer struct {
	Enabled   bool
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// Config holds all runtime settings.
type Config struct {
	Observer        Observer
	Timezone        string
	LogLevel        string
	RefreshInterval time.Duration
	MetricsAddr     string
	SolverTolerance time.Duration
}

// Default returns sensible default configuration.
func Default() Config {
	return Config{
		Timezone:        "Local",
		LogLevel:        "info",
		RefreshInterval: time.Minute,
		SolverTolerance: astro.DefaultTolerance,
	}
}

// Load reads configuration. A missing dotenv file is not an error; a
// configPath that cannot be read is. Either may be empty.
func Load(configPath, dotenvPath string) (Config, error) {
	if err := loadDotenv(dotenvPath); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	cfg := Config{
		Observer: Observer{
			Enabled:   v.GetBool("observer.enabled"),
			Latitude:  v.GetFloat64("observer.latitude"),
			Longitude: v.GetFloat64("observer.longitude"),
			Altitude:  v.GetFloat64("observer.altitude"),
		},
		Timezone:        v.GetString("display.timezone"),
		LogLevel:        v.GetString("log.level"),
		RefreshInterval: v.GetDuration("refresh.interval"),
		MetricsAddr:     v.GetString("metrics.addr"),
		SolverTolerance: v.GetDuration("solver.tolerance"),
	}
	return cfg, cfg.Validate()
}

func loadDotenv(path string) error {
	var err error
	if path == "" {
		err = godotenv.Load()
	} else {
		err = godotenv.Load(path)
	}
	if err == nil || (path == "" && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("observer.enabled", d.Observer.Enabled)
	v.SetDefault("observer.latitude", d.Observer.Latitude)
	v.SetDefault("observer.longitude", d.Observer.Longitude)
	v.SetDefault("observer.altitude", d.Observer.Altitude)
	v.SetDefault("display.timezone", d.Timezone)
	v.SetDefault("log.level", d.LogLevel)
	v.SetDefault("refresh.interval", d.RefreshInterval)
	v.SetDefault("metrics.addr", d.MetricsAddr)
	v.SetDefault("solver.tolerance", d.SolverTolerance)
}

// Validate rejects out-of-range coordinates, unknown zones and
// non-positive durations.
func (c Config) Validate() error {
	if c.Observer.Enabled {
		if err := c.geo().Validate(); err != nil {
			return err
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.SolverTolerance <= 0 {
		return fmt.Errorf("solver tolerance %v must be positive", c.SolverTolerance)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval %v must be positive", c.RefreshInterval)
	}
	return nil
}

func (c Config) geo() astro.Geo {
	return astro.NewGeo(c.Observer.Latitude, c.Observer.Longitude, c.Observer.Altitude)
}

// Geo returns the observer location, or nil when none is configured.
func (c Config) Geo() *astro.Geo {
	if !c.Observer.Enabled {
		return nil
	}
	g := c.geo()
	return &g
}

// Location resolves the display time zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "utc") {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Level returns the parsed log level.
func (c Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}

// ClampRefresh bounds the refresh interval to [1s, 1h].
func (c *Config) ClampRefresh() {
	if c.RefreshInterval < minRefresh {
		c.RefreshInterval = minRefresh
	} else if c.RefreshInterval > maxRefresh {
		c.RefreshInterval = maxRefresh
	}
}
