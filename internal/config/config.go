package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendCSV      = "csv"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	S3       S3Config
	Logger   LoggerConfig
	Session  SessionConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// StoreConfig selects where inventory records are kept.
type StoreConfig struct {
	Backend string // "csv", "postgres" or "s3"
	CSVPath string
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// S3Config holds AWS S3 configuration for the inventory object.
type S3Config struct {
	Bucket string
	Region string
	Key    string
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// SessionConfig controls staged manual entries.
type SessionConfig struct {
	TTLMinutes int
}

// TTL returns the session lifetime.
func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; variables already set win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", BackendCSV),
			CSVPath: getEnv("STORE_CSV_PATH", "data/mock_inventory.csv"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "ecostock"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		S3: S3Config{
			Bucket: getEnv("S3_BUCKET", ""),
			Region: getEnv("S3_REGION", "us-east-1"),
			Key:    getEnv("S3_KEY", "inventory/mock_inventory.csv"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Session: SessionConfig{
			TTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 60),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration. Database and S3 settings are only
// checked when their backend is selected.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Store.Backend {
	case BackendCSV:
		if c.Store.CSVPath == "" {
			return fmt.Errorf("CSV path is required for the csv backend")
		}
	case BackendPostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required for the s3 backend")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required for the s3 backend")
		}
		if c.S3.Key == "" {
			return fmt.Errorf("S3 key is required for the s3 backend")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be csv, postgres, or s3)", c.Store.Backend)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Session.TTLMinutes < 1 {
		return fmt.Errorf("session TTL must be at least 1 minute")
	}

	return nil
}

func (c *DatabaseConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
