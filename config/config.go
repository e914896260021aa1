// Package config reads runtime settings from the environment. A .env file
// in the working directory is loaded by the binaries before Load runs.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Config holds every environment-driven setting
type Config struct {
	DataPath string
	LogLevel string
	LogJSON  bool

	BaseURL        string
	UserAgent      string
	Concurrency    int
	TaskTimeout    time.Duration
	FetchRetries   int
	RetryBaseDelay time.Duration

	WatchTitles   []string
	WatchSchedule string
	RunAtStartup  bool
}

// Default values used when a variable is unset or invalid
const (
	DefaultDataPath       = "./data"
	DefaultLogLevel       = "info"
	DefaultConcurrency    = 4
	DefaultTaskTimeout    = 20 * time.Second
	DefaultRetryBaseDelay = 500 * time.Millisecond
	// 10am every day
	DefaultWatchSchedule = "0 0 10 * * *"
)

// Load reads the configuration from environment variables
func Load() Config {
	return Config{
		DataPath:       stringEnv("DATA_PATH", DefaultDataPath),
		LogLevel:       stringEnv("LOG_LEVEL", DefaultLogLevel),
		LogJSON:        boolEnv("LOG_JSON", false),
		BaseURL:        stringEnv("CATALOG_BASE_URL", ""),
		UserAgent:      stringEnv("USER_AGENT", ""),
		Concurrency:    intEnv("CONCURRENCY", DefaultConcurrency),
		TaskTimeout:    durationEnv("TASK_TIMEOUT", DefaultTaskTimeout),
		FetchRetries:   intEnv("FETCH_RETRIES", 0),
		RetryBaseDelay: durationEnv("RETRY_BASE_DELAY", DefaultRetryBaseDelay),
		WatchTitles:    listEnv("WATCH_TITLES"),
		WatchSchedule:  stringEnv("WATCH_SCHEDULE", DefaultWatchSchedule),
		RunAtStartup:   boolEnv("RUN_AT_STARTUP", false),
	}
}

func stringEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Warnf("Invalid %s '%s', using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func boolEnv(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warnf("Invalid %s '%s', using default %t", key, v, fallback)
		return fallback
	}
	return b
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Warnf("Invalid %s '%s', using default %s", key, v, fallback)
		return fallback
	}
	return d
}

// listEnv accepts a JSON array or a comma-separated list
func listEnv(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}

	var items []string
	if strings.HasPrefix(v, "[") {
		if err := json.Unmarshal([]byte(v), &items); err != nil {
			log.Warnf("Error parsing %s: %v", key, err)
			return nil
		}
	} else {
		items = strings.Split(v, ",")
	}

	var cleaned []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			cleaned = append(cleaned, item)
		}
	}
	return cleaned
}
