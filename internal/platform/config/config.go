package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files; with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvFloat is GetEnvInt for floating point values such as thresholds in seconds.
func GetEnvFloat(key string, fallback float64) float64 {
	if s := os.Getenv(key); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return fallback
}

// GetEnvDuration parses values like "90s" or "10m" with time.ParseDuration.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return fallback
}

// Settings is the service configuration read from the environment.
type Settings struct {
	Port                string
	LogLevel            string
	LogFormat           string
	Scheme              string
	FireLeadSeconds     float64
	RetentionSeconds    float64
	SessionIdleTimeout  time.Duration
	TimeUpdateRateLimit int
}

// FromEnv reads Settings, applying defaults for unset keys.
func FromEnv() Settings {
	return Settings{
		Port:                GetEnv("PORT", "8080"),
		LogLevel:            GetEnv("LOG_LEVEL", "info"),
		LogFormat:           GetEnv("LOG_FORMAT", "json"),
		Scheme:              GetEnv("SIGNAL_SCHEME", "urn:scte:scte35:2014:xml"),
		FireLeadSeconds:     GetEnvFloat("FIRE_LEAD_SECONDS", 0.2),
		RetentionSeconds:    GetEnvFloat("RETENTION_SECONDS", 60),
		SessionIdleTimeout:  GetEnvDuration("SESSION_IDLE_TIMEOUT", 10*time.Minute),
		TimeUpdateRateLimit: GetEnvInt("TIME_UPDATE_RATE_LIMIT", 7200),
	}
}
