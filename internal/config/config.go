// Package config loads server configuration from an optional YAML file,
// a .env file and environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	Neynar   NeynarConfig   `yaml:"neynar"`
	Notify   NotifyConfig   `yaml:"notify"`
	Reminder ReminderConfig `yaml:"reminder"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port int `yaml:"port"`
	// RateLimit is requests per second allowed per fid, with RateBurst burst.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// StoreConfig selects and configures the key-value store
type StoreConfig struct {
	Driver        string `yaml:"driver"` // "redis" or "sqlite"
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	SQLitePath    string `yaml:"sqlite_path"`
}

// JWTConfig contains session token settings
type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpiryHours int    `yaml:"expiry_hours"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// NeynarConfig enables verified-address lookups when APIKey is set
type NeynarConfig struct {
	APIKey string `yaml:"api_key"`
}

// NotifyConfig controls notification delivery
type NotifyConfig struct {
	// Queue, when set, sends notifications through an asynq queue on the
	// Redis store instead of delivering them inline.
	Queue  string `yaml:"queue"`
	AppURL string `yaml:"app_url"`
}

// ReminderConfig schedules due-date reminders
type ReminderConfig struct {
	Schedule string `yaml:"schedule"` // cron with seconds, empty disables
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080, RateLimit: 5, RateBurst: 20},
		Store:    StoreConfig{SQLitePath: "./data/sharethebill.db"},
		JWT:      JWTConfig{ExpiryHours: 24 * 7},
		Log:      LogConfig{Level: "info", Format: "text"},
		Reminder: ReminderConfig{Schedule: "0 0 9 * * *"},
	}
}

// Load reads configuration. configPath may be empty; a missing .env file
// is not an error.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Override with environment variables if present
	if err := cfg.overrideWithEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) overrideWithEnv() error {
	setString := func(key string, dst *string) {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}
	setInt := func(key string, dst *int) error {
		val := os.Getenv(key)
		if val == "" {
			return nil
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		*dst = n
		return nil
	}

	if err := setInt("SERVER_PORT", &c.Server.Port); err != nil {
		return err
	}
	setString("STORE_DRIVER", &c.Store.Driver)
	setString("REDIS_ADDR", &c.Store.RedisAddr)
	setString("REDIS_PASSWORD", &c.Store.RedisPassword)
	if err := setInt("REDIS_DB", &c.Store.RedisDB); err != nil {
		return err
	}
	setString("SQLITE_PATH", &c.Store.SQLitePath)
	setString("JWT_SECRET", &c.JWT.Secret)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FORMAT", &c.Log.Format)
	setString("NEYNAR_API_KEY", &c.Neynar.APIKey)
	setString("NOTIFY_QUEUE", &c.Notify.Queue)
	setString("APP_URL", &c.Notify.AppURL)
	setString("REMINDER_SCHEDULE", &c.Reminder.Schedule)
	return nil
}

// Validate checks the configuration is complete. There is no in-memory
// fallback: a server without a durable store refuses to start.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis store")
		}
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite store")
		}
	case "":
		return errors.New("no durable store configured: set STORE_DRIVER to redis or sqlite")
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Notify.Queue != "" && c.Store.Driver != StoreRedis {
		return errors.New("NOTIFY_QUEUE requires the redis store")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
		return errors.New("rate limit and burst must be positive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// TokenDuration is how long issued session tokens stay valid.
func (c *Config) TokenDuration() time.Duration {
	return time.Duration(c.JWT.ExpiryHours) * time.Hour
}

// LogValue keeps secrets out of logs.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("port", c.Server.Port),
		slog.String("store", c.Store.Driver),
		slog.Bool("neynar", c.Neynar.APIKey != ""),
		slog.String("notify_queue", c.Notify.Queue),
		slog.String("reminder_schedule", c.Reminder.Schedule),
	)
}
