package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/sessiond/internal/auth/service"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Issuer    string   // Optional: issuer claim for tokens (default: sessiond)
	JWTSecret string   // Required outside dev: HS256 secret, at least 32 bytes
	Audiences []string // Optional: accepted client ids, first is the default (default: web,mobile,extension)

	AccessTokenTTL  time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTokenTTL time.Duration // Optional: refresh token lifetime (default: 7d)
	MaxDevices      int           // Optional: devices per user (default: 3)

	LockoutThreshold int           // Optional: failed logins before lockout, 0 disables (default: 5)
	LockoutWindow    time.Duration // Optional: lockout window (default: 15m)

	TokenRetention       time.Duration // Optional: keep expired tokens this long (default: 0)
	CleanupBatchSize     int           // Optional: rows deleted per cleanup batch (default: 500)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)

	DatabaseDriver string // Optional: sqlite or postgres (default: sqlite)
	DatabaseFile   string // Optional: path to SQLite database file (default: ./auth.db)
	DatabaseURL    string // Required for postgres: connection string

	PepperFile    string // Optional: path to file containing pepper for password hashing (default: ./pepper)
	AdminEmail    string // Optional: seed admin created when no users exist
	AdminPassword string

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	RequestTimeout      time.Duration // Per-request deadline, 0 disables (default: 15s)
}

func LoadConfig() Config {
	return Config{
		Issuer:    getEnvOrDefault("AUTH_ISSUER", "sessiond"),
		JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		Audiences: getEnvListOrDefault("AUTH_AUDIENCES", []string{"web", "mobile", "extension"}),

		AccessTokenTTL:  time.Duration(getEnvIntOrDefault("AUTH_ACCESS_TOKEN_EXPIRATION_MINUTES", 15)) * time.Minute,
		RefreshTokenTTL: time.Duration(getEnvIntOrDefault("AUTH_REFRESH_TOKEN_EXPIRATION_DAYS", 7)) * 24 * time.Hour,
		MaxDevices:      getEnvIntOrDefault("AUTH_MAX_DEVICES", 3),

		LockoutThreshold: getEnvIntOrDefault("AUTH_LOCKOUT_THRESHOLD", 5),
		LockoutWindow:    getEnvDurationOrDefault("AUTH_LOCKOUT_WINDOW", 15*time.Minute),

		TokenRetention:       getEnvDurationOrDefault("AUTH_TOKEN_RETENTION", 0),
		CleanupBatchSize:     getEnvIntOrDefault("AUTH_CLEANUP_BATCH_SIZE", 500),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		DatabaseDriver: strings.ToLower(getEnvOrDefault("AUTH_DATABASE_DRIVER", DriverSQLite)),
		DatabaseFile:   getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		DatabaseURL:    os.Getenv("AUTH_DATABASE_URL"),

		PepperFile:    getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		AdminEmail:    os.Getenv("AUTH_ADMIN_EMAIL"),
		AdminPassword: os.Getenv("AUTH_ADMIN_PASSWORD"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		RequestTimeout:      getEnvDurationOrDefault("REQUEST_TIMEOUT", 15*time.Second),
	}
}

// IsDev reports whether the service runs in the dev environment.
func (c Config) IsDev() bool { return c.Env == "dev" }

// Policy builds the session policy from the config.
func (c Config) Policy() service.Policy {
	return service.Policy{
		Issuer:           c.Issuer,
		Audiences:        c.Audiences,
		AccessTTL:        c.AccessTokenTTL,
		RefreshTTL:       c.RefreshTokenTTL,
		MaxDevices:       c.MaxDevices,
		TokenRetention:   c.TokenRetention,
		CleanupBatchSize: c.CleanupBatchSize,
	}
}

// Validate checks settings that LoadConfig cannot default.
func (c Config) Validate() error {
	var errs []error
	if !c.IsDev() && c.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required outside dev"))
	}
	switch c.DatabaseDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_DATABASE_DRIVER %q", c.DatabaseDriver))
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("AUTH_ADMIN_EMAIL and AUTH_ADMIN_PASSWORD must be set together"))
	}
	if c.LockoutThreshold < 0 {
		errs = append(errs, errors.New("AUTH_LOCKOUT_THRESHOLD cannot be negative"))
	}
	errs = append(errs, c.Policy().Validate())
	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// getEnvListOrDefault splits a comma separated value, dropping blanks.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
