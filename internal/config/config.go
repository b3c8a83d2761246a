// Package config provides centralized configuration management for the ETL run.
// It loads configuration from environment variables with defaults that match the
// historical hardcoded values, and validates all settings before any work starts.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Input    InputConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" default:"postgresql://postgres:password@db:5432/users_db"`

	// ConnectTimeout bounds the initial connection attempt (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`

	// Table is the target table for accepted records (default: users)
	Table string `env:"DB_TABLE" default:"users"`
}

// InputConfig holds source file settings.
type InputConfig struct {
	// File is the CSV file to ingest (default: data.csv)
	File string `env:"INPUT_FILE" default:"data.csv"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
