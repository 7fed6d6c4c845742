package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glowdesk/glowdesk/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Storage    StorageConfig    `yaml:"storage"`
	Onboarding OnboardingConfig `yaml:"onboarding"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`

	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL          string        `yaml:"url"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	ConnLifetime time.Duration `yaml:"conn_lifetime"`
}

// RedisConfig holds Redis configuration. Redis backs distributed rate
// limiting only and may be disabled entirely.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AuthConfig holds session and API token settings
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	GrantCacheSize int           `yaml:"grant_cache_size"`
	GrantCacheTTL  time.Duration `yaml:"grant_cache_ttl"`
}

// StorageConfig holds document storage configuration
type StorageConfig struct {
	// Type is "filesystem" or "s3"
	Type           string `yaml:"type"`
	FilesystemRoot string `yaml:"filesystem_root"`

	S3Endpoint     string `yaml:"s3_endpoint"`
	S3Region       string `yaml:"s3_region"`
	S3Bucket       string `yaml:"s3_bucket"`
	S3AccessKey    string `yaml:"s3_access_key"`
	S3SecretKey    string `yaml:"s3_secret_key"`
	S3UsePathStyle bool   `yaml:"s3_use_path_style"`
}

// OnboardingConfig holds onboarding lifecycle settings
type OnboardingConfig struct {
	// DefaultCompletionWindow is applied when a new record has no expected
	// completion date.
	DefaultCompletionWindow time.Duration `yaml:"default_completion_window"`
}

// RateLimitConfig holds request rate limiting settings
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"`
	RequestsPerWindow int           `yaml:"requests_per_window"`
	Window            time.Duration `yaml:"window"`
}

// SchedulerConfig holds background job schedules (cron specs)
type SchedulerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	OverdueSweepSpec string `yaml:"overdue_sweep_spec"`
	DBStatsSpec      string `yaml:"db_stats_spec"`
}

// ObservabilityConfig holds logging and metrics settings
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
}

// ParsedLogLevel converts the configured level string.
func (o ObservabilityConfig) ParsedLogLevel() observability.LogLevel {
	switch strings.ToLower(o.LogLevel) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    10 << 20,
			HealthPort:      "9090",
		},
		Database: DatabaseConfig{
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			ConnLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
		},
		Auth: AuthConfig{
			SessionTTL:     12 * time.Hour,
			GrantCacheSize: 1024,
			GrantCacheTTL:  30 * time.Second,
		},
		Storage: StorageConfig{
			Type:           "filesystem",
			FilesystemRoot: "/var/lib/glowdesk/documents",
			S3Region:       "us-east-1",
		},
		Onboarding: OnboardingConfig{
			DefaultCompletionWindow: 30 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerWindow: 300,
			Window:            time.Minute,
		},
		Scheduler: SchedulerConfig{
			Enabled:          true,
			OverdueSweepSpec: "0 * * * *",
			DBStatsSpec:      "*/1 * * * *",
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			MetricsEnabled: true,
		},
	}
}

// LoadConfig resolves configuration from defaults, the optional YAML file
// and GLOWDESK_* environment variables, then validates the result.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("GLOWDESK_CONFIG_FILE"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays YAML settings onto cfg.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnv overlays GLOWDESK_* environment variables onto cfg.
func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("GLOWDESK_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnv("GLOWDESK_PORT", cfg.Server.Port)
	cfg.Server.HealthPort = getEnv("GLOWDESK_HEALTH_PORT", cfg.Server.HealthPort)
	cfg.Server.ReadTimeout = getEnvDuration("GLOWDESK_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("GLOWDESK_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvDuration("GLOWDESK_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = getEnvDuration("GLOWDESK_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	cfg.Server.MaxBodyBytes = getEnvInt64("GLOWDESK_MAX_BODY_BYTES", cfg.Server.MaxBodyBytes)

	cfg.Database.URL = getEnv("GLOWDESK_POSTGRES_URL", cfg.Database.URL)
	cfg.Database.MaxOpenConns = getEnvInt("GLOWDESK_POSTGRES_MAX_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getEnvInt("GLOWDESK_POSTGRES_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.ConnLifetime = getEnvDuration("GLOWDESK_POSTGRES_CONN_LIFETIME", cfg.Database.ConnLifetime)

	cfg.Redis.Enabled = getEnvBool("GLOWDESK_REDIS_ENABLED", cfg.Redis.Enabled)
	cfg.Redis.Addr = getEnv("GLOWDESK_REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("GLOWDESK_REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("GLOWDESK_REDIS_DB", cfg.Redis.DB)

	cfg.Auth.JWTSecret = getEnv("GLOWDESK_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.SessionTTL = getEnvDuration("GLOWDESK_SESSION_TTL", cfg.Auth.SessionTTL)
	cfg.Auth.GrantCacheSize = getEnvInt("GLOWDESK_GRANT_CACHE_SIZE", cfg.Auth.GrantCacheSize)
	cfg.Auth.GrantCacheTTL = getEnvDuration("GLOWDESK_GRANT_CACHE_TTL", cfg.Auth.GrantCacheTTL)

	cfg.Storage.Type = getEnv("GLOWDESK_STORAGE_TYPE", cfg.Storage.Type)
	cfg.Storage.FilesystemRoot = getEnv("GLOWDESK_FILESYSTEM_ROOT", cfg.Storage.FilesystemRoot)
	cfg.Storage.S3Endpoint = getEnv("GLOWDESK_S3_ENDPOINT", cfg.Storage.S3Endpoint)
	cfg.Storage.S3Region = getEnv("GLOWDESK_S3_REGION", cfg.Storage.S3Region)
	cfg.Storage.S3Bucket = getEnv("GLOWDESK_S3_BUCKET", cfg.Storage.S3Bucket)
	cfg.Storage.S3AccessKey = getEnv("GLOWDESK_S3_ACCESS_KEY", cfg.Storage.S3AccessKey)
	cfg.Storage.S3SecretKey = getEnv("GLOWDESK_S3_SECRET_KEY", cfg.Storage.S3SecretKey)
	cfg.Storage.S3UsePathStyle = getEnvBool("GLOWDESK_S3_USE_PATH_STYLE", cfg.Storage.S3UsePathStyle)

	cfg.Onboarding.DefaultCompletionWindow = getEnvDuration("GLOWDESK_ONBOARDING_WINDOW", cfg.Onboarding.DefaultCompletionWindow)

	cfg.RateLimit.Enabled = getEnvBool("GLOWDESK_RATELIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.RequestsPerWindow = getEnvInt("GLOWDESK_RATELIMIT_REQUESTS", cfg.RateLimit.RequestsPerWindow)
	cfg.RateLimit.Window = getEnvDuration("GLOWDESK_RATELIMIT_WINDOW", cfg.RateLimit.Window)

	cfg.Scheduler.Enabled = getEnvBool("GLOWDESK_SCHEDULER_ENABLED", cfg.Scheduler.Enabled)
	cfg.Scheduler.OverdueSweepSpec = getEnv("GLOWDESK_OVERDUE_SWEEP_SPEC", cfg.Scheduler.OverdueSweepSpec)
	cfg.Scheduler.DBStatsSpec = getEnv("GLOWDESK_DB_STATS_SPEC", cfg.Scheduler.DBStatsSpec)

	cfg.Observability.LogLevel = getEnv("GLOWDESK_LOG_LEVEL", cfg.Observability.LogLevel)
	cfg.Observability.MetricsEnabled = getEnvBool("GLOWDESK_METRICS_ENABLED", cfg.Observability.MetricsEnabled)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	switch c.Storage.Type {
	case "filesystem":
		if c.Storage.FilesystemRoot == "" {
			return fmt.Errorf("filesystem root is required for filesystem storage")
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be filesystem or s3)", c.Storage.Type)
	}

	if c.RateLimit.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("rate limiting requires redis to be enabled")
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerWindow <= 0 {
		return fmt.Errorf("rate limit requests per window must be positive")
	}

	if c.Onboarding.DefaultCompletionWindow <= 0 {
		return fmt.Errorf("onboarding completion window must be positive")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
