// Package config loads and validates exocortex's configuration: where
// the store lives, the analyzer's thresholds, the dream worker's
// timing, and the ambient logging/API settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete application configuration.
type Config struct {
	DataDir                     string  `mapstructure:"data_dir"`
	DBName                      string  `mapstructure:"db_name"`
	EmbeddingModel               string  `mapstructure:"embedding_model"`
	LinkSuggestionThreshold      float64 `mapstructure:"link_suggestion_threshold"`
	DuplicateDetectionThreshold  float64 `mapstructure:"duplicate_detection_threshold"`
	ContradictionCheckThreshold  float64 `mapstructure:"contradiction_check_threshold"`
	MaxSummaryLength             int     `mapstructure:"max_summary_length"`
	MaxTagsPerMemory             int     `mapstructure:"max_tags_per_memory"`
	StaleMemoryDays              int     `mapstructure:"stale_memory_days"`

	Dream   DreamConfig   `mapstructure:"dream"`
	Logging LoggingConfig `mapstructure:"logging"`
	API     APIConfig     `mapstructure:"api"`
}

// DreamConfig tunes the background consolidation worker.
type DreamConfig struct {
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
	MaxRuntime  time.Duration `mapstructure:"max_runtime"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

// LoggingConfig holds structured-logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console, json
	Output string `mapstructure:"output"` // stderr, stdout, or a file path
}

// APIConfig holds the dashboard API server's configuration.
type APIConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	CORS     bool   `mapstructure:"cors"`
	AutoPort bool   `mapstructure:"auto_port"`
}

// DBPath returns the full path to the SQLite database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, c.DBName+".sqlite3")
}

// DefaultConfig returns configuration with the documented defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".exocortex")

	return &Config{
		DataDir:                     dataDir,
		DBName:                      "exocortex",
		EmbeddingModel:              "nomic-embed-text",
		LinkSuggestionThreshold:     0.65,
		DuplicateDetectionThreshold: 0.90,
		ContradictionCheckThreshold: 0.70,
		MaxSummaryLength:            200,
		MaxTagsPerMemory:            20,
		StaleMemoryDays:             90,
		Dream: DreamConfig{
			LockTimeout: 5 * time.Second,
			MaxRuntime:  300 * time.Second,
			RetryDelay:  500 * time.Millisecond,
			MaxRetries:  3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		API: APIConfig{
			Enabled:  true,
			Host:     "localhost",
			Port:     3002,
			CORS:     true,
			AutoPort: true,
		},
	}
}

// Load reads configuration from (in order of preference) ./config.yaml,
// ~/.exocortex/config.yaml, or /etc/exocortex/config.yaml, falling back
// to DefaultConfig when no file is found.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	homeDir, _ := os.UserHomeDir()
	v.AddConfigPath(filepath.Join(homeDir, ".exocortex"))
	v.AddConfigPath("/etc/exocortex")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("db_name", d.DBName)
	v.SetDefault("embedding_model", d.EmbeddingModel)
	v.SetDefault("link_suggestion_threshold", d.LinkSuggestionThreshold)
	v.SetDefault("duplicate_detection_threshold", d.DuplicateDetectionThreshold)
	v.SetDefault("contradiction_check_threshold", d.ContradictionCheckThreshold)
	v.SetDefault("max_summary_length", d.MaxSummaryLength)
	v.SetDefault("max_tags_per_memory", d.MaxTagsPerMemory)
	v.SetDefault("stale_memory_days", d.StaleMemoryDays)

	v.SetDefault("dream.lock_timeout", d.Dream.LockTimeout)
	v.SetDefault("dream.max_runtime", d.Dream.MaxRuntime)
	v.SetDefault("dream.retry_delay", d.Dream.RetryDelay)
	v.SetDefault("dream.max_retries", d.Dream.MaxRetries)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)

	v.SetDefault("api.enabled", d.API.Enabled)
	v.SetDefault("api.host", d.API.Host)
	v.SetDefault("api.port", d.API.Port)
	v.SetDefault("api.cors", d.API.CORS)
	v.SetDefault("api.auto_port", d.API.AutoPort)
}

// Validate checks the configuration for internally-inconsistent values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.DBName == "" {
		return fmt.Errorf("db_name is required")
	}
	for name, v := range map[string]float64{
		"link_suggestion_threshold":     c.LinkSuggestionThreshold,
		"duplicate_detection_threshold": c.DuplicateDetectionThreshold,
		"contradiction_check_threshold": c.ContradictionCheckThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	if c.MaxSummaryLength <= 0 {
		return fmt.Errorf("max_summary_length must be > 0")
	}
	if c.MaxTagsPerMemory <= 0 {
		return fmt.Errorf("max_tags_per_memory must be > 0")
	}
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		return fmt.Errorf("api.port must be between 1 and 65535")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: console, json")
	}
	return nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	return nil
}
