package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration shared by the tracker binaries
type Config struct {
	LogLevel  string          `yaml:"log_level" env:"LOG_LEVEL"`
	Tracker   TrackerConfig   `yaml:"tracker" envPrefix:"TRACKER_"`
	Storage   StorageConfig   `yaml:"storage" envPrefix:"STORAGE_"`
	Collector CollectorConfig `yaml:"collector" envPrefix:"COLLECTOR_"`
}

// TrackerConfig configures hit building and sending
type TrackerConfig struct {
	Site       string   `yaml:"site" env:"SITE"`
	Endpoint   string   `yaml:"endpoint" env:"ENDPOINT"`
	APIKey     string   `yaml:"api_key" env:"API_KEY"`
	AppVersion string   `yaml:"app_version" env:"APP_VERSION"`
	Plugins    []string `yaml:"plugins" env:"PLUGINS" envSeparator:","`
	Timezone   string   `yaml:"timezone" env:"TIMEZONE"`
}

// StorageConfig selects and configures the lifecycle store
type StorageConfig struct {
	Backend       string `yaml:"backend" env:"BACKEND"`
	Path          string `yaml:"path" env:"PATH"`
	LegacyPath    string `yaml:"legacy_path" env:"LEGACY_PATH"`
	Namespace     string `yaml:"namespace" env:"NAMESPACE"`
	MaxMemoryMB   int    `yaml:"max_memory_mb" env:"MAX_MEMORY_MB"`
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB"`
}

// CollectorConfig configures the development collector
type CollectorConfig struct {
	Port    int    `yaml:"port" env:"PORT"`
	MaxHits int    `yaml:"max_hits" env:"MAX_HITS"`
	APIKey  string `yaml:"api_key" env:"API_KEY"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Tracker: TrackerConfig{
			Endpoint:   DefaultEndpoint,
			AppVersion: DefaultAppVersion,
			Timezone:   DefaultTimezone,
		},
		Storage: StorageConfig{
			Backend:     DefaultBackend,
			Path:        DefaultStoragePath,
			Namespace:   "default",
			MaxMemoryMB: DefaultMaxMemoryMB,
			RedisAddr:   DefaultRedisAddr,
		},
		Collector: CollectorConfig{
			Port:    DefaultPort,
			MaxHits: DefaultMaxHits,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment variables. A .env file in the
// working directory is loaded first if present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	} else {
		logrus.Info("loaded environment variables from .env file")
	}

	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// Validate checks value ranges and required fields
func (c *Config) Validate() error {
	var errs []error

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL: %w", err))
	}

	if c.Tracker.Endpoint == "" {
		errs = append(errs, errors.New("TRACKER_ENDPOINT is required"))
	}
	if c.Tracker.AppVersion == "" {
		errs = append(errs, errors.New("TRACKER_APP_VERSION is required"))
	}
	if _, err := c.Tracker.Location(); err != nil {
		errs = append(errs, fmt.Errorf("invalid TRACKER_TIMEZONE: %w", err))
	}

	switch c.Storage.Backend {
	case BackendMemory, BackendRedis:
	case BackendBadger, BackendSQLite:
		if c.Storage.Path == "" {
			errs = append(errs, fmt.Errorf("STORAGE_PATH is required for the %s backend", c.Storage.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid STORAGE_BACKEND: %q (must be one of %s)",
			c.Storage.Backend, strings.Join([]string{BackendMemory, BackendBadger, BackendRedis, BackendSQLite}, ", ")))
	}
	if c.Storage.MaxMemoryMB != 0 && c.Storage.MaxMemoryMB < MinMemoryMB {
		errs = append(errs, fmt.Errorf("invalid STORAGE_MAX_MEMORY_MB: %d (0 for the default, or at least %d)", c.Storage.MaxMemoryMB, MinMemoryMB))
	}

	if c.Collector.Port < 1 || c.Collector.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid COLLECTOR_PORT: %d (must be 1-65535)", c.Collector.Port))
	}
	if c.Collector.MaxHits < 1 || c.Collector.MaxHits > MaxHitsLimit {
		errs = append(errs, fmt.Errorf("invalid COLLECTOR_MAX_HITS: %d (must be 1-%d)", c.Collector.MaxHits, MaxHitsLimit))
	}

	return errors.Join(errs...)
}

// Location returns the calendar used for lifecycle day boundaries
func (t TrackerConfig) Location() (*time.Location, error) {
	if t.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(t.Timezone)
}

// HasPlugin reports whether a partner plugin is enabled
func (t TrackerConfig) HasPlugin(name string) bool {
	for _, p := range t.Plugins {
		if strings.EqualFold(strings.TrimSpace(p), name) {
			return true
		}
	}
	return false
}
