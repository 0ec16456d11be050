// Package config loads pipeline configuration from a YAML file layered over
// defaults, with environment variable overrides for deploy-time knobs.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full pipeline configuration
type Config struct {
	// StorePath is the SQLite database file backing the shared store
	StorePath string

	// WorkspaceRoot is the directory fixes are applied under
	WorkspaceRoot string

	// PollInterval is how often the poller scans for missions
	PollInterval time.Duration

	// MaxConcurrentMissions caps missions admitted at once
	MaxConcurrentMissions int

	// CollaboratorTimeout bounds each analyzer/synthesizer/executor call
	CollaboratorTimeout time.Duration

	// AutoApplyThreshold is the aggregate confidence bar for unattended
	// application.
	AutoApplyThreshold float64

	// HighConfidenceThreshold is the per-finding confidence floor
	HighConfidenceThreshold int

	// EnableAI switches analysis/synthesis to the LLM engine when an
	// API key is available.
	EnableAI bool

	// LogLevel is one of debug, info, warn, error
	LogLevel string
}

// fileConfig is the YAML shape on disk. Durations are strings ("30s",
// "2m") and converted during load; absent fields keep their defaults.
type fileConfig struct {
	StorePath               *string  `yaml:"store_path"`
	WorkspaceRoot           *string  `yaml:"workspace_root"`
	PollInterval            *string  `yaml:"poll_interval"`
	MaxConcurrentMissions   *int     `yaml:"max_concurrent_missions"`
	CollaboratorTimeout     *string  `yaml:"collaborator_timeout"`
	AutoApplyThreshold      *float64 `yaml:"auto_apply_threshold"`
	HighConfidenceThreshold *int     `yaml:"high_confidence_threshold"`
	EnableAI                *bool    `yaml:"enable_ai"`
	LogLevel                *string  `yaml:"log_level"`
}

// Default returns the standard configuration
func Default() *Config {
	return &Config{
		StorePath:               ".remedy/remedy.db",
		WorkspaceRoot:           ".",
		PollInterval:            10 * time.Second,
		MaxConcurrentMissions:   3,
		CollaboratorTimeout:     2 * time.Minute,
		AutoApplyThreshold:      95,
		HighConfidenceThreshold: 85,
		EnableAI:                false,
		LogLevel:                "info",
	}
}

// Load reads path over the defaults. A missing file is not an error; the
// defaults (plus env overrides) apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if err := cfg.merge(&fc); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) merge(fc *fileConfig) error {
	if fc.StorePath != nil {
		c.StorePath = *fc.StorePath
	}
	if fc.WorkspaceRoot != nil {
		c.WorkspaceRoot = *fc.WorkspaceRoot
	}
	if fc.PollInterval != nil {
		d, err := time.ParseDuration(*fc.PollInterval)
		if err != nil {
			return fmt.Errorf("bad poll_interval: %w", err)
		}
		c.PollInterval = d
	}
	if fc.MaxConcurrentMissions != nil {
		c.MaxConcurrentMissions = *fc.MaxConcurrentMissions
	}
	if fc.CollaboratorTimeout != nil {
		d, err := time.ParseDuration(*fc.CollaboratorTimeout)
		if err != nil {
			return fmt.Errorf("bad collaborator_timeout: %w", err)
		}
		c.CollaboratorTimeout = d
	}
	if fc.AutoApplyThreshold != nil {
		c.AutoApplyThreshold = *fc.AutoApplyThreshold
	}
	if fc.HighConfidenceThreshold != nil {
		c.HighConfidenceThreshold = *fc.HighConfidenceThreshold
	}
	if fc.EnableAI != nil {
		c.EnableAI = *fc.EnableAI
	}
	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	return nil
}

// applyEnv layers environment overrides on top of file values
func (c *Config) applyEnv() {
	if v := os.Getenv("REMEDY_STORE_PATH"); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv("REMEDY_WORKSPACE"); v != "" {
		c.WorkspaceRoot = v
	}
	if v := os.Getenv("REMEDY_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrentMissions = n
		}
	}
	if v := os.Getenv("REMEDY_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.PollInterval = d
		}
	}
	if v := os.Getenv("REMEDY_ENABLE_AI"); v != "" {
		c.EnableAI = v == "true" || v == "1"
	}
	if v := os.Getenv("REMEDY_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	if c.StorePath == "" {
		return fmt.Errorf("store_path is required")
	}
	if c.WorkspaceRoot == "" {
		return fmt.Errorf("workspace_root is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive (got %v)", c.PollInterval)
	}
	if c.MaxConcurrentMissions <= 0 {
		return fmt.Errorf("max_concurrent_missions must be positive (got %d)", c.MaxConcurrentMissions)
	}
	if c.AutoApplyThreshold < 0 || c.AutoApplyThreshold > 100 {
		return fmt.Errorf("auto_apply_threshold must be between 0 and 100 (got %v)", c.AutoApplyThreshold)
	}
	if c.HighConfidenceThreshold < 0 || c.HighConfidenceThreshold > 100 {
		return fmt.Errorf("high_confidence_threshold must be between 0 and 100 (got %d)", c.HighConfidenceThreshold)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	return nil
}

// SlogLevel maps the configured level to slog
func (c *Config) SlogLevel() slog.Level {
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
