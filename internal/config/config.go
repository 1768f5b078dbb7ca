package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by RELSPACE_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("RELSPACE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// Event store backends
const (
	EventStorePostgres = "postgres"
	EventStoreSQLite   = "sqlite"
	EventStoreMemory   = "memory"
)

// EventStore returns the configured event store backend.
// Defaults to "postgres" when DATABASE_URL is set, otherwise "memory".
// Valid values: postgres, sqlite, memory
func EventStore() string {
	if s := os.Getenv("EVENT_STORE"); s != "" {
		return s
	}
	if DatabaseURL() != "" {
		return EventStorePostgres
	}
	return EventStoreMemory
}

func SQLitePath() string {
	p := os.Getenv("SQLITE_PATH")
	if p == "" {
		return "relspace.db"
	}
	return p
}

func SpaceName() string {
	n := os.Getenv("SPACE_NAME")
	if n == "" {
		return "relationships"
	}
	return n
}

// EntityResolver returns the configured entity resolver.
// Defaults to "none" if not set.
// Valid values: http, mock, none
func EntityResolver() string {
	r := os.Getenv("ENTITY_RESOLVER")
	if r == "" {
		return "none"
	}
	return r
}

func EntityResolverURL() string {
	return os.Getenv("ENTITY_RESOLVER_URL")
}

// TessellationInterval is how often the tessellation is recomputed.
// Accepts Go durations ("30s") or whole seconds. Defaults to 1 minute.
func TessellationInterval() time.Duration {
	raw := os.Getenv("TESSELLATION_INTERVAL")
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Minute
}

// QualityProfilesPath points at an optional YAML file of per-category
// quality overrides. Empty means built-in profiles only.
func QualityProfilesPath() string {
	return os.Getenv("QUALITY_PROFILES_PATH")
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
