package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"scorekeeper/adapters/redis"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds the complete application configuration
type Config struct {
	Environment Environment `json:"environment" yaml:"environment" env:"SCOREKEEPER_ENV"`
	Profile     string      `json:"profile" yaml:"profile" env:"SCOREKEEPER_PROFILE"`

	Server       ServerConfig       `json:"server" yaml:"server"`
	Leaderboard  LeaderboardConfig  `json:"leaderboard" yaml:"leaderboard"`
	Logging      LoggingConfig      `json:"logging" yaml:"logging"`
	Metrics      MetricsConfig      `json:"metrics" yaml:"metrics"`
	Security     SecurityConfig     `json:"security" yaml:"security"`
	Redis        redis.Config       `json:"redis" yaml:"redis"`
	Integrations IntegrationsConfig `json:"integrations" yaml:"integrations"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address           string        `json:"address" yaml:"address" env:"SCOREKEEPER_SERVER_ADDR"`
	PathPrefix        string        `json:"path_prefix" yaml:"path_prefix" env:"SCOREKEEPER_SERVER_PATH_PREFIX"`
	CORSOrigin        string        `json:"cors_origin" yaml:"cors_origin" env:"SCOREKEEPER_SERVER_CORS_ORIGIN"`
	ReadTimeout       time.Duration `json:"read_timeout" yaml:"read_timeout" env:"SCOREKEEPER_SERVER_READ_TIMEOUT"`
	WriteTimeout      time.Duration `json:"write_timeout" yaml:"write_timeout" env:"SCOREKEEPER_SERVER_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `json:"idle_timeout" yaml:"idle_timeout" env:"SCOREKEEPER_SERVER_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" yaml:"read_header_timeout" env:"SCOREKEEPER_SERVER_READ_HEADER_TIMEOUT"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" env:"SCOREKEEPER_SERVER_SHUTDOWN_TIMEOUT"`
	MaxBodyBytes      int64         `json:"max_body_bytes" yaml:"max_body_bytes" env:"SCOREKEEPER_SERVER_MAX_BODY_BYTES"`
}

// LeaderboardConfig holds the score service policy
type LeaderboardConfig struct {
	// AllowClear enables DELETE /leaderboard. Production always refuses.
	AllowClear   bool   `json:"allow_clear" yaml:"allow_clear" env:"SCOREKEEPER_LEADERBOARD_ALLOW_CLEAR"`
	DispatchMode string `json:"dispatch_mode" yaml:"dispatch_mode" env:"SCOREKEEPER_LEADERBOARD_DISPATCH_MODE"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string            `json:"level" yaml:"level" env:"SCOREKEEPER_LOG_LEVEL"`
	Format     string            `json:"format" yaml:"format" env:"SCOREKEEPER_LOG_FORMAT"`
	Output     string            `json:"output" yaml:"output" env:"SCOREKEEPER_LOG_OUTPUT"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty" env:"SCOREKEEPER_LOG_ATTRIBUTES"`
}

// MetricsConfig holds metrics and monitoring configuration
type MetricsConfig struct {
	Enabled       bool   `json:"enabled" yaml:"enabled" env:"SCOREKEEPER_METRICS_ENABLED"`
	Address       string `json:"address" yaml:"address" env:"SCOREKEEPER_METRICS_ADDR"`
	Path          string `json:"path" yaml:"path" env:"SCOREKEEPER_METRICS_PATH"`
	CollectSystem bool   `json:"collect_system" yaml:"collect_system" env:"SCOREKEEPER_METRICS_COLLECT_SYSTEM"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	EnableRateLimit bool            `json:"enable_rate_limit" yaml:"enable_rate_limit" env:"SCOREKEEPER_SECURITY_RATE_LIMIT_ENABLED"`
	RateLimit       RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute" env:"SCOREKEEPER_SECURITY_RATE_LIMIT_RPM"`
	BurstSize         int `json:"burst_size" yaml:"burst_size" env:"SCOREKEEPER_SECURITY_RATE_LIMIT_BURST"`
	// Backend is "memory" (per process) or "redis" (shared fixed window).
	Backend         string        `json:"backend" yaml:"backend" env:"SCOREKEEPER_SECURITY_RATE_LIMIT_BACKEND"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval" env:"SCOREKEEPER_SECURITY_RATE_LIMIT_CLEANUP"`
}

// IntegrationsConfig holds outbound event delivery settings
type IntegrationsConfig struct {
	WebhookURLs    []string      `json:"webhook_urls,omitempty" yaml:"webhook_urls,omitempty" env:"SCOREKEEPER_WEBHOOK_URLS"`
	WebhookTimeout time.Duration `json:"webhook_timeout" yaml:"webhook_timeout" env:"SCOREKEEPER_WEBHOOK_TIMEOUT"`
}

// ClearAllowed applies the deployment policy on top of the configured flag.
func (c *Config) ClearAllowed() bool {
	return c.Leaderboard.AllowClear && c.Environment != EnvProduction
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing default files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		return godotenv.Load()
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

var configExtensions = []string{".json", ".yaml", ".yml"}

// validateConfigPath validates that the config file path is safe
func validateConfigPath(path string) error {
	if path == "" {
		return errors.New("config file path cannot be empty")
	}

	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	supported := false
	for _, e := range configExtensions {
		if ext == e {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("config file must have one of the extensions: %s", strings.Join(configExtensions, ", "))
	}

	if _, err := os.Stat(cleanPath); err != nil {
		return fmt.Errorf("config file not accessible: %w", err)
	}

	return nil
}

// LoadFromFile loads configuration from a JSON or YAML file.
// Environment variables override file values.
func LoadFromFile(path string) (*Config, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, fmt.Errorf("invalid config file path: %w", err)
	}

	file, err := os.Open(path) // #nosec G304 - Path validated above
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development
func DefaultConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Profile:     "default",
		Server: ServerConfig{
			Address:           ":5000",
			PathPrefix:        "/api",
			CORSOrigin:        "*",
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   30 * time.Second,
			MaxBodyBytes:      1 << 20,
		},
		Leaderboard: LeaderboardConfig{
			AllowClear:   true,
			DispatchMode: "async",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			Address:       ":9090",
			Path:          "/metrics",
			CollectSystem: true,
		},
		Security: SecurityConfig{
			EnableRateLimit: false,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 60,
				BurstSize:         10,
				Backend:           "memory",
				CleanupInterval:   5 * time.Minute,
			},
		},
		Redis: redis.DefaultConfig(),
		Integrations: IntegrationsConfig{
			WebhookTimeout: 2 * time.Second,
		},
	}
}

// Validate validates the configuration and returns detailed error messages
func (c *Config) Validate() error {
	var errs []string

	if c.Environment == "" {
		errs = append(errs, "environment cannot be empty")
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Leaderboard.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("leaderboard config: %v", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if err := c.Metrics.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("metrics config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if c.Security.EnableRateLimit && c.Security.RateLimit.Backend == "redis" && c.Redis.Addr == "" {
		errs = append(errs, "redis config: addr cannot be empty when the redis rate limit backend is selected")
	}

	if err := c.Integrations.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("integrations config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// String returns a JSON representation of the config (with secrets redacted)
func (c *Config) String() string {
	cfg := *c

	if cfg.Redis.Password != "" {
		cfg.Redis.Password = "[REDACTED]"
	}
	if len(cfg.Integrations.WebhookURLs) > 0 {
		cfg.Integrations.WebhookURLs = []string{fmt.Sprintf("[%d REDACTED]", len(c.Integrations.WebhookURLs))}
	}

	data, _ := json.MarshalIndent(cfg, "", "  ")
	return string(data)
}
