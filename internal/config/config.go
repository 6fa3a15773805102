package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/harrison/sitecheck/internal/feasibility"
	"github.com/harrison/sitecheck/internal/insight"
)

// Config represents sitecheck configuration options.
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// DBPath is the SQLite database file. Empty means $SITECHECK_HOME/sitecheck.db
	DBPath string `yaml:"db_path"`

	// HistoryLimit is the number of assessments loaded for a single scenario
	HistoryLimit int `yaml:"history_limit"`

	// ListenAddr is the address the HTTP API binds to
	ListenAddr string `yaml:"listen_addr"`

	// Attention holds the score cut-offs for system insights
	Attention insight.Attention `yaml:"attention"`

	// Feasibility holds the quick-analysis signal thresholds
	Feasibility feasibility.Thresholds `yaml:"feasibility"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		DBPath:       "",
		HistoryLimit: 10,
		ListenAddr:   ":8080",
		Attention:    insight.DefaultAttention(),
		Feasibility:  feasibility.DefaultThresholds(),
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Decoding onto the defaults keeps every key the file leaves out,
	// including individual keys inside the nested sections.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .sitecheck/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error.
func LoadConfigFromDir(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ".sitecheck", "config.yaml")
	return LoadConfig(configPath)
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values.
func (c *Config) MergeWithFlags(logLevel *string, dbPath *string, historyLimit *int, listenAddr *string) {
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if dbPath != nil {
		c.DBPath = *dbPath
	}
	if historyLimit != nil {
		c.HistoryLimit = *historyLimit
	}
	if listenAddr != nil {
		c.ListenAddr = *listenAddr
	}
}

// ResolveDBPath returns DBPath, falling back to the home directory database.
func (c *Config) ResolveDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}
	return GetDBPath()
}

// Validate validates the configuration values
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be > 0, got %d", c.HistoryLimit)
	}

	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr cannot be empty")
	}

	if err := c.Attention.Validate(); err != nil {
		return fmt.Errorf("attention: %w", err)
	}
	if err := c.Feasibility.Validate(); err != nil {
		return fmt.Errorf("feasibility: %w", err)
	}

	return nil
}
