package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ServeConfig configures the processing server. Values come from an optional
// YAML file, then OPENNOTE_* environment variables override.
type ServeConfig struct {
	Addr         string        `yaml:"addr"`
	SettingsPath string        `yaml:"settings_path"`
	WatchReload  bool          `yaml:"watch_reload"`
	Debounce     time.Duration `yaml:"reload_debounce"`
}

func defaultServeConfig() ServeConfig {
	return ServeConfig{
		Addr:        ":3001",
		WatchReload: true,
	}
}

func loadServeConfig(path string) (ServeConfig, error) {
	cfg := defaultServeConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return ServeConfig{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return ServeConfig{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.Addr = getEnv("OPENNOTE_ADDR", cfg.Addr)
	cfg.SettingsPath = getEnv("OPENNOTE_SETTINGS_PATH", cfg.SettingsPath)
	cfg.WatchReload = getEnvBool("OPENNOTE_WATCH_RELOAD", cfg.WatchReload)
	cfg.Debounce = getEnvDuration("OPENNOTE_RELOAD_DEBOUNCE", cfg.Debounce)

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}
