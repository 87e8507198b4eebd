package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	Storage       string
	DatabaseURL   string
	RunMigrations bool

	// Auth0
	Auth0Domain   string
	Auth0Audience string

	// DevWorkspaceID serves every request as this workspace when Auth0 is not
	// configured. Only honoured outside production.
	DevWorkspaceID int32

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	RateLimit RateLimitConfig
	Ledger    LedgerConfig
	Scheduler SchedulerConfig
	AMQP      AMQPConfig
}

// RateLimitConfig bounds mutating requests per workspace
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// LedgerConfig tunes the conflict retry loop of the ledger engine
type LedgerConfig struct {
	MaxConflictRetries int
	RetryBackoff       time.Duration
}

// SchedulerConfig controls the background recurring generation worker
type SchedulerConfig struct {
	Enabled  bool
	Interval time.Duration
}

// AMQPConfig holds the optional RabbitMQ event sink. Empty URL disables it.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Storage:       strings.ToLower(getEnv("STORAGE", StoragePostgres)),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Auth0Domain:   getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience: getEnv("AUTH0_AUDIENCE", ""),
		Port:          getEnv("PORT", "8080"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		Env:           getEnv("ENV", "development"),
		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "fortuna.ledger"),
		},
	}

	var err error
	if cfg.RunMigrations, err = getBool("RUN_MIGRATIONS", true); err != nil {
		return nil, err
	}
	if cfg.Scheduler.Enabled, err = getBool("SCHEDULER_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.Scheduler.Interval, err = getDuration("SCHEDULER_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Ledger.MaxConflictRetries, err = getInt("LEDGER_MAX_CONFLICT_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.Ledger.RetryBackoff, err = getDuration("LEDGER_RETRY_BACKOFF", 25*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.RateLimit.RequestsPerMinute, err = getInt("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Burst, err = getInt("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}
	devWorkspace, err := getInt("DEV_WORKSPACE_ID", 0)
	if err != nil {
		return nil, err
	}
	cfg.DevWorkspaceID = int32(devWorkspace)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AuthEnabled reports whether requests are authenticated against Auth0
func (c *Config) AuthEnabled() bool {
	return c.Auth0Domain != "" || c.Auth0Audience != ""
}

func (c *Config) validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case StorageMemory:
		if c.IsProduction() {
			return fmt.Errorf("STORAGE=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("STORAGE must be one of: %s, %s", StoragePostgres, StorageMemory)
	}

	if c.AuthEnabled() || c.IsProduction() {
		if c.Auth0Domain == "" {
			return fmt.Errorf("AUTH0_DOMAIN is required")
		}
		if c.Auth0Audience == "" {
			return fmt.Errorf("AUTH0_AUDIENCE is required")
		}
	} else if c.DevWorkspaceID <= 0 {
		return fmt.Errorf("AUTH0_DOMAIN and AUTH0_AUDIENCE are required unless DEV_WORKSPACE_ID is set")
	}

	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be positive")
	}
	if c.Ledger.MaxConflictRetries < 0 {
		return fmt.Errorf("LEDGER_MAX_CONFLICT_RETRIES must not be negative")
	}
	if c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 15m: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
