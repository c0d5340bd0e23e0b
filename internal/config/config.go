package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Repository backends.
const (
	BackendPostgres = "postgres"
	BackendFixture  = "fixture"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string // Empty disables token verification (dev only)
	DevUserID   string // Caller identity when token verification is disabled
	CORSOrigins string
	TablePrefix string
	// Content repository
	RepositoryBackend string
	FixturePath       string
	FixtureWatch      bool
	// Viewer
	HostURL              string // Viewer host; empty puts every selection in the error state
	ViewerConnectTimeout time.Duration
	// Workspaces
	SessionSecret      string
	SessionIdleTimeout time.Duration
	NavSearchDebounce  time.Duration
	MoveSearchDebounce time.Duration
	CacheErrorTTL      time.Duration
	// Logging
	LogDir      string
	LogMaxFiles int
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWKSURL:     getEnv("JWKS_URL", ""),
		DevUserID:   getEnv("DEV_USER_ID", "dev-user"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),
		// Content repository
		RepositoryBackend: getEnv("REPOSITORY_BACKEND", BackendFixture),
		FixturePath:       getEnv("FIXTURE_PATH", "fixtures/dev.yaml"),
		FixtureWatch:      getEnv("FIXTURE_WATCH", getDefaultDebug(env)) == "true",
		// Viewer
		HostURL:              getEnv("VIEWER_HOST_URL", ""),
		ViewerConnectTimeout: getDuration("VIEWER_CONNECT_TIMEOUT", 30*time.Second),
		// Workspaces
		SessionSecret:      getEnv("SESSION_SECRET", ""),
		SessionIdleTimeout: getDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		NavSearchDebounce:  getDuration("NAV_SEARCH_DEBOUNCE", 500*time.Millisecond),
		MoveSearchDebounce: getDuration("MOVE_SEARCH_DEBOUNCE", 300*time.Millisecond),
		CacheErrorTTL:      getDuration("CACHE_ERROR_TTL", 30*time.Second),
		// Logging
		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getInt("LOG_MAX_FILES", 10),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, is.Port),
		validation.Field(&c.Environment, validation.Required, validation.In("dev", "test", "prod")),
		validation.Field(&c.RepositoryBackend, validation.Required, validation.In(BackendPostgres, BackendFixture)),
		validation.Field(&c.DatabaseURL, validation.When(c.RepositoryBackend == BackendPostgres, validation.Required)),
		validation.Field(&c.FixturePath, validation.When(c.RepositoryBackend == BackendFixture, validation.Required)),
		validation.Field(&c.JWKSURL, is.URL, validation.When(c.Environment == "prod", validation.Required)),
		validation.Field(&c.DevUserID, validation.When(c.JWKSURL == "", validation.Required)),
		validation.Field(&c.HostURL, is.URL),
		validation.Field(&c.SessionSecret, validation.When(c.Environment == "prod", validation.Required, validation.Length(32, 0))),
		validation.Field(&c.SessionIdleTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.NavSearchDebounce, validation.Min(time.Duration(0))),
		validation.Field(&c.MoveSearchDebounce, validation.Min(time.Duration(0))),
		validation.Field(&c.CacheErrorTTL, validation.Min(time.Duration(0))),
		validation.Field(&c.ViewerConnectTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.LogMaxFiles, validation.Min(1)),
	)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return n
}
