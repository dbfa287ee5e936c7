// Package config provides configuration management for the Cadenza engine.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort     = 8790
	DefaultLogLevel = "info"
	DefaultDataDir  = ".cadenza"

	// Environment variable names
	EnvPort     = "CADENZA_PORT"
	EnvLogLevel = "CADENZA_LOG_LEVEL"
	EnvDataDir  = "CADENZA_DATA_DIR"
	EnvHeadless = "CADENZA_HEADLESS"

	// Timeline tuning environment variable names
	EnvMinClipSeconds   = "CADENZA_MIN_CLIP_S"
	EnvMaxClipSeconds   = "CADENZA_MAX_CLIP_S"
	EnvDriftToleranceMs = "CADENZA_DRIFT_TOL_MS"

	// Database filename
	DBFilename = "cadenza.db"

	// Timeline defaults, seconds unless noted
	DefaultMinClipSeconds   = 0.1
	DefaultMaxClipSeconds   = 5.0
	DefaultDriftToleranceMs = 100
	DefaultTimelineDuration = 30.0
	DefaultPixelsPerSecond  = 100.0
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	Headless() bool
	MinClipDuration() float64
	MaxClipDuration() float64
	DriftTolerance() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	headless bool

	minClipSeconds float64
	maxClipSeconds float64
	driftTolMs     int
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:           DefaultPort,
		logLevel:       DefaultLogLevel,
		dataDir:        defaultDataDir(),
		minClipSeconds: DefaultMinClipSeconds,
		maxClipSeconds: DefaultMaxClipSeconds,
		driftTolMs:     DefaultDriftToleranceMs,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	// Override data directory from environment
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if h := os.Getenv(EnvHeadless); h == "1" || h == "true" {
		cfg.headless = true
	}

	if v := os.Getenv(EnvMinClipSeconds); v != "" {
		min, err := strconv.ParseFloat(v, 64)
		if err != nil || min <= 0 {
			return nil, fmt.Errorf("invalid %s: must be a positive number of seconds", EnvMinClipSeconds)
		}
		cfg.minClipSeconds = min
	}

	if v := os.Getenv(EnvMaxClipSeconds); v != "" {
		max, err := strconv.ParseFloat(v, 64)
		if err != nil || max <= 0 {
			return nil, fmt.Errorf("invalid %s: must be a positive number of seconds", EnvMaxClipSeconds)
		}
		cfg.maxClipSeconds = max
	}

	if cfg.minClipSeconds > cfg.maxClipSeconds {
		return nil, fmt.Errorf("min clip duration %.2fs exceeds max %.2fs", cfg.minClipSeconds, cfg.maxClipSeconds)
	}

	if v := os.Getenv(EnvDriftToleranceMs); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return nil, fmt.Errorf("invalid %s: must be a non-negative millisecond count", EnvDriftToleranceMs)
		}
		cfg.driftTolMs = ms
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// Headless reports whether the system tray should be disabled
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// MinClipDuration returns the minimum clip duration in seconds
func (c *EnvConfig) MinClipDuration() float64 {
	return c.minClipSeconds
}

// MaxClipDuration returns the maximum clip duration in seconds
func (c *EnvConfig) MaxClipDuration() float64 {
	return c.maxClipSeconds
}

// DriftTolerance returns how far a follower media clock may drift from the
// master clock before it is corrected
func (c *EnvConfig) DriftTolerance() time.Duration {
	return time.Duration(c.driftTolMs) * time.Millisecond
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
