// Package config loads bridge configuration from an optional YAML file and
// environment variables, and builds the process logger.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultDBPath       = ":memory:"
	defaultStmtCapacity = 1024

	envDBPath       = "SQLPORT_DB_PATH"
	envLogLevel     = "SQLPORT_LOG_LEVEL"
	envAdminAddr    = "SQLPORT_ADMIN_ADDR"
	envStmtCapacity = "SQLPORT_STMT_CAPACITY"
	envConfigFile   = "SQLPORT_CONFIG"
)

// Config holds application configuration. Precedence, lowest to highest:
// built-in defaults, the YAML file named by SQLPORT_CONFIG, environment
// variables.
type Config struct {
	// DBPath is the engine database; the default keeps everything in memory.
	DBPath string
	// AdminAddr is the listen address for the admin sidecar; empty disables
	// it. The wire protocol itself only ever speaks over stdin/stdout.
	AdminAddr string
	// StmtCapacity bounds the prepared statement registry.
	StmtCapacity int
	LogLevel     slog.Level
}

type fileConfig struct {
	DBPath       string `yaml:"db_path"`
	AdminAddr    string `yaml:"admin_addr"`
	StmtCapacity int    `yaml:"stmt_capacity"`
	LogLevel     string `yaml:"log_level"`
}

// Load reads configuration with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		DBPath:       defaultDBPath,
		StmtCapacity: defaultStmtCapacity,
		LogLevel:     slog.LevelInfo,
	}

	if path := os.Getenv(envConfigFile); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}

	if v := os.Getenv(envDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(envAdminAddr); v != "" {
		cfg.AdminAddr = v
	}
	if v := os.Getenv(envStmtCapacity); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid %s %q: want a positive integer", envStmtCapacity, v)
		}
		cfg.StmtCapacity = n
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = ParseLevel(v)
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.DBPath != "" {
		c.DBPath = fc.DBPath
	}
	if fc.AdminAddr != "" {
		c.AdminAddr = fc.AdminAddr
	}
	if fc.StmtCapacity > 0 {
		c.StmtCapacity = fc.StmtCapacity
	}
	if fc.LogLevel != "" {
		c.LogLevel = ParseLevel(fc.LogLevel)
	}
	return nil
}

// ParseLevel maps a level name to its slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured
// level. The bridge hands it stderr: stdout belongs to the response stream.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
