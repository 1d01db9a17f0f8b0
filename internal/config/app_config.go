// Package config loads process-wide configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all application-level configuration loaded from
// environment variables.
type AppConfig struct {
	// Port is the HTTP server port. Defaults to 8080.
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the root data directory. Defaults to ~/.taskcore.
	DataDir string `envconfig:"TASKCORE_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error).
	// Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// MaxConcurrency bounds how many jobs the scheduler runs at once.
	// Defaults to 4.
	MaxConcurrency int `envconfig:"MAX_CONCURRENCY" default:"4"`

	// WorkerPoolSize bounds how many blocking callables can run
	// concurrently off the scheduler's own goroutines. Defaults to 4.
	WorkerPoolSize int `envconfig:"WORKER_POOL_SIZE" default:"4"`

	// CORSOrigins is a comma-separated list of allowed CORS origins for
	// the HTTP API. Defaults to "*".
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"*"`
}

// Load reads AppConfig from environment variables. DataDir defaults to
// ~/.taskcore if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".taskcore")
	}
	return &c, nil
}

// SlogLevel converts LogLevel to a slog.Level. Unknown values default to
// slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogDir returns the path to the log directory (<DataDir>/logs).
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DBPath returns the path to the SQLite database file.
func (c *AppConfig) DBPath() string {
	return filepath.Join(c.DataDir, "taskcore.db")
}
