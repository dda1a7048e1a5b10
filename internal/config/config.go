// Package config loads service configuration from defaults, an optional YAML
// file, a .env file, and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/R3E-Network/user_service/pkg/logger"
)

// DriverPostgres and DriverMemory are the supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig         `yaml:"server"`
	Admin    AdminConfig          `yaml:"admin"`
	Database DatabaseConfig       `yaml:"database"`
	Logging  logger.LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the raw request listener.
type ServerConfig struct {
	Addr                       string        `yaml:"addr"`
	MaxRequestBytes            int           `yaml:"max_request_bytes"`
	ReadTimeout                time.Duration `yaml:"read_timeout"`
	WriteTimeout               time.Duration `yaml:"write_timeout"`
	MaxConnections             int64         `yaml:"max_connections"`
	ConnRateLimit              float64       `yaml:"conn_rate_limit"`
	ConnBurst                  int           `yaml:"conn_burst"`
	ValidationStatusBadRequest bool          `yaml:"validation_status_bad_request"`
}

// AdminConfig configures the metrics and health listener. An empty Addr
// disables it.
type AdminConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig configures the user store.
type DatabaseConfig struct {
	Driver         string        `yaml:"driver"`
	DSN            string        `yaml:"dsn"`
	MaxOpenConns   int           `yaml:"max_open_conns"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "0.0.0.0:8080",
			MaxRequestBytes: 64 << 10,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			MaxConnections:  128,
		},
		Database: DatabaseConfig{
			Driver:         DriverPostgres,
			MaxOpenConns:   1,
			ConnectTimeout: 5 * time.Second,
		},
		Logging: logger.LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Override adjusts a loaded configuration before validation, for example
// from command line flags.
type Override func(*Config)

// Load builds the configuration. path may be empty; a missing .env file is
// ignored. Overrides run after the environment and before Validate.
func Load(path string, overrides ...Override) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("DATABASE_URL"); ok {
		c.Database.DSN = v
	}
	if v, ok := os.LookupEnv("DATABASE_DRIVER"); ok {
		c.Database.Driver = v
	}
	if v, ok := os.LookupEnv("LISTEN_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := os.LookupEnv("ADMIN_ADDR"); ok {
		c.Admin.Addr = v
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv("LOG_FORMAT"); ok {
		c.Logging.Format = v
	}
	if v, ok := os.LookupEnv("MAX_REQUEST_BYTES"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("MAX_REQUEST_BYTES: %w", err)
		}
		c.Server.MaxRequestBytes = n
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return errors.New("server.addr is required")
	case c.Server.MaxRequestBytes <= 0:
		return fmt.Errorf("server.max_request_bytes must be positive, got %d", c.Server.MaxRequestBytes)
	case c.Server.MaxConnections < 0:
		return fmt.Errorf("server.max_connections must not be negative, got %d", c.Server.MaxConnections)
	case c.Server.ConnRateLimit < 0:
		return fmt.Errorf("server.conn_rate_limit must not be negative, got %v", c.Server.ConnRateLimit)
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("database.dsn (or DATABASE_URL) is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.Logging.Format)
	}
	return nil
}
