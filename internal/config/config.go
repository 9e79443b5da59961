package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the fetch pipeline.
type Config struct {
	// Pipeline knobs
	WorkerCount int    `mapstructure:"worker_count"`
	MaxPages    int    `mapstructure:"max_pages"`
	LogLevel    string `mapstructure:"log_level"`
	TickersFile string `mapstructure:"tickers_file"`

	// Upstream data source (base URL configurable for testing)
	NasdaqBaseURL  string        `mapstructure:"nasdaq_base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`

	// Store connection
	DBName        string        `mapstructure:"db_name"`
	DBUser        string        `mapstructure:"db_user"`
	DBPass        string        `mapstructure:"db_pass"`
	DBHost        string        `mapstructure:"db_host"`
	DBPort        int           `mapstructure:"db_port"`
	DBSSLMode     string        `mapstructure:"db_sslmode"`
	DBWaitTimeout time.Duration `mapstructure:"db_wait_timeout"`
}

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over config file
// values. Every option has a default; Load fails only on values that
// cannot drive a run (zero workers, zero pages, unknown log level).
//
// Recognized environment variables:
//   - WORKER_COUNT (default 16)
//   - MAX_PAGES (default 10)
//   - LOG_LEVEL (default info)
//   - TICKERS_FILE (default tickers.txt)
//   - NASDAQ_BASE_URL (optional, defaults to production)
//   - REQUEST_TIMEOUT (default 10s)
//   - REQUESTS_PER_SEC (default 5)
//   - DB_NAME, DB_USER, DB_PASS, DB_HOST, DB_PORT, DB_SSLMODE
//   - DB_WAIT_TIMEOUT (default 0 = wait forever)
func Load() (*Config, error) {
	v := viper.New()

	// Set up environment variable support
	v.SetEnvPrefix("") // No prefix, use full names
	v.AutomaticEnv()

	// Pipeline defaults
	v.SetDefault("worker_count", 16)
	v.SetDefault("max_pages", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("tickers_file", "tickers.txt")

	// Data source defaults
	v.SetDefault("nasdaq_base_url", "https://api.nasdaq.com")
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("requests_per_sec", 5.0)

	// Store defaults
	v.SetDefault("db_name", "stocks")
	v.SetDefault("db_user", "root")
	v.SetDefault("db_pass", "root")
	v.SetDefault("db_host", "db")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_wait_timeout", "0s")

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.stockfetcher")

	// Read config file (ignore if not found)
	_ = v.ReadInConfig()

	// Bind environment variables for pipeline knobs
	v.BindEnv("worker_count", "WORKER_COUNT")
	v.BindEnv("max_pages", "MAX_PAGES")
	v.BindEnv("log_level", "LOG_LEVEL")
	v.BindEnv("tickers_file", "TICKERS_FILE")

	// Bind environment variables for the data source
	v.BindEnv("nasdaq_base_url", "NASDAQ_BASE_URL")
	v.BindEnv("request_timeout", "REQUEST_TIMEOUT")
	v.BindEnv("requests_per_sec", "REQUESTS_PER_SEC")

	// Bind environment variables for the store
	v.BindEnv("db_name", "DB_NAME")
	v.BindEnv("db_user", "DB_USER")
	v.BindEnv("db_pass", "DB_PASS")
	v.BindEnv("db_host", "DB_HOST")
	v.BindEnv("db_port", "DB_PORT")
	v.BindEnv("db_sslmode", "DB_SSLMODE")
	v.BindEnv("db_wait_timeout", "DB_WAIT_TIMEOUT")

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	var problems []string
	if c.WorkerCount < 1 {
		problems = append(problems, "worker_count must be at least 1")
	}
	if c.MaxPages < 1 {
		problems = append(problems, "max_pages must be at least 1")
	}
	if c.RequestTimeout < 0 {
		problems = append(problems, "request_timeout must not be negative")
	}
	if c.DBWaitTimeout < 0 {
		problems = append(problems, "db_wait_timeout must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ParseLevel maps a log_level string onto its slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q", level)
	}
}

// SlogLevel returns the configured slog.Level, falling back to info
// for values Load would have rejected.
func (c *Config) SlogLevel() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}
