// Package config loads process configuration from the environment, or from
// a YAML/TOML/JSON/.env file named by CONFIG_FILE with environment overrides.
package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Backend names accepted in DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// ConfigFileEnv names the variable holding an optional config file path.
const ConfigFileEnv = "CONFIG_FILE"

type Config struct {
	// HTTP Server
	Port               string        `yaml:"port" env:"PORT" env-default:"8081" env-description:"HTTP listen port"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute" env:"RATE_LIMIT_PER_MINUTE" env-default:"60" env-description:"Mutating requests allowed per client per minute"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s" env-description:"Grace period for in-flight requests on shutdown"`
	DashboardCacheTTL  time.Duration `yaml:"dashboard_cache_ttl" env:"DASHBOARD_CACHE_TTL" env-default:"1m" env-description:"How long a dashboard summary is reused"`

	// Logging
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info" env-description:"debug, info, warn or error"`

	// Backend selection
	DataBackend string `yaml:"data_backend" env:"DATA_BACKEND" env-default:"file" env-description:"memory, file, sqlite or redis"`

	// File backend
	DataDir string `yaml:"data_dir" env:"DATA_DIR" env-default:"./data" env-description:"Directory for the file backend"`

	// SQLite backend
	SQLiteDBPath string `yaml:"sqlite_db_path" env:"SQLITE_DB_PATH" env-default:"./data/subtrack.db" env-description:"SQLite database path"`

	// Redis backend
	RedisAddr      string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379" env-description:"Redis host:port"`
	RedisPassword  string `yaml:"redis_password" env:"REDIS_PASSWORD" env-description:"Redis password"`
	RedisDB        int    `yaml:"redis_db" env:"REDIS_DB" env-default:"0" env-description:"Redis database number"`
	RedisKeyPrefix string `yaml:"redis_key_prefix" env:"REDIS_KEY_PREFIX" env-default:"subtrack:" env-description:"Prefix for every Redis key"`

	// AMQP change events, disabled when AMQP_URL is empty
	AMQPURL        string `yaml:"amqp_url" env:"AMQP_URL" env-description:"RabbitMQ URL; empty disables events"`
	AMQPExchange   string `yaml:"amqp_exchange" env:"AMQP_EXCHANGE" env-default:"subtrack" env-description:"Direct exchange for change events"`
	AMQPRoutingKey string `yaml:"amqp_routing_key" env:"AMQP_ROUTING_KEY" env-default:"subscription_events" env-description:"Routing key and queue name for change events"`
}

// Load reads CONFIG_FILE when set, then the environment. Values that fail to
// decode are reported here; range checks are left to Validate.
func Load() (*Config, error) {
	var cfg Config
	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return &cfg, nil
}

// Usage writes the list of supported environment variables to w.
func Usage(w io.Writer) {
	var cfg Config
	cleanenv.FUsage(w, &cfg, nil)()
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	switch c.DataBackend {
	case BackendMemory:
	case BackendFile:
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if msg := ensureDir(filepath.Dir(c.SQLiteDBPath)); msg != "" {
			errors = append(errors, msg)
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			errors = append(errors, "Redis address cannot be empty when using redis backend")
		}
		if c.RedisDB < 0 {
			errors = append(errors, fmt.Sprintf("invalid Redis database %d: must not be negative", c.RedisDB))
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends()))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}
	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}
	if c.DashboardCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid dashboard cache TTL %v: must not be negative", c.DashboardCacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Backends lists the accepted DATA_BACKEND values.
func Backends() []string {
	return []string{BackendMemory, BackendFile, BackendSQLite, BackendRedis}
}

func ensureDir(dir string) string {
	if dir == "." || dir == "" {
		return ""
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err)
		}
	}
	return ""
}
