package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/camdeck/camdeck/internal/alerts"
)

// Config holds all configuration for the dashboard.
type Config struct {
	// Backend endpoints
	APIBaseURL string
	PushURL    string
	APIToken   string

	// Query behavior
	PageSize int

	// Selection
	MaxSelection int

	// Severity classifier bands
	Thresholds alerts.Thresholds

	// Local journal database. Empty disables the journal.
	JournalDSN string

	// Background jobs
	SnoozeCheckInterval time.Duration

	LogLevel string
}

// Load reads configuration from environment variables, plus an optional
// severity thresholds YAML file pointed at by CAMDECK_THRESHOLDS_FILE.
func Load() (*Config, error) {
	cfg := &Config{
		APIBaseURL:          getEnvOrDefault("CAMDECK_API_URL", "http://localhost:8080"),
		PushURL:             getEnvOrDefault("CAMDECK_PUSH_URL", ""),
		APIToken:            os.Getenv("CAMDECK_API_TOKEN"),
		PageSize:            getEnvAsIntOrDefault("CAMDECK_PAGE_SIZE", 50),
		MaxSelection:        getEnvAsIntOrDefault("CAMDECK_MAX_SELECTION", 500),
		JournalDSN:          getEnvOrDefault("CAMDECK_JOURNAL_DSN", "camdeck-journal.db"),
		SnoozeCheckInterval: time.Duration(getEnvAsIntOrDefault("CAMDECK_SNOOZE_CHECK_SECONDS", 30)) * time.Second,
		LogLevel:            getEnvOrDefault("CAMDECK_LOG_LEVEL", "info"),
		Thresholds:          alerts.DefaultThresholds(),
	}

	if path := os.Getenv("CAMDECK_THRESHOLDS_FILE"); path != "" {
		th, err := loadThresholds(path)
		if err != nil {
			return nil, err
		}
		cfg.Thresholds = th
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadThresholds reads severity band boundaries from a YAML file.
func loadThresholds(path string) (alerts.Thresholds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return alerts.Thresholds{}, fmt.Errorf("failed to read thresholds file: %w", err)
	}

	var th alerts.Thresholds
	if err := yaml.Unmarshal(data, &th); err != nil {
		return alerts.Thresholds{}, fmt.Errorf("failed to parse thresholds file: %w", err)
	}
	return th, nil
}

// getEnvOrDefault returns the value of an environment variable or a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns an environment variable parsed as int, or a default.
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
