// Package config provides YAML-based configuration for the conversion server.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig represents the root configuration document.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Limits   LimitsConfig   `yaml:"limits"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port                  int    `yaml:"port"`
	BindAddress           string `yaml:"bind_address"`
	EnableCORS            bool   `yaml:"enable_cors"`
	AllowOrigins          string `yaml:"allow_origins"`
	ReadTimeoutSeconds    int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds   int    `yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds    int    `yaml:"idle_timeout_seconds"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// StorageConfig contains result storage settings.
type StorageConfig struct {
	DataDirectory          string `yaml:"data_directory"`
	OutputDirectory        string `yaml:"output_directory"`
	HistoryDatabase        string `yaml:"history_database"`
	RetentionMinutes       int    `yaml:"retention_minutes"`
	CleanupIntervalMinutes int    `yaml:"cleanup_interval_minutes"`
}

// LimitsConfig contains upload size limits in megabytes.
type LimitsConfig struct {
	MaxUploadMB     int `yaml:"max_upload_mb"`
	MaxHTMLUploadMB int `yaml:"max_html_upload_mb"`
}

// SecurityConfig contains access settings.
type SecurityConfig struct {
	AllowFileDeletion bool `yaml:"allow_file_deletion"`
}

// LoggingConfig contains log settings.
type LoggingConfig struct {
	Level          string `yaml:"level"`
	RequestLogging bool   `yaml:"request_logging"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:                  8090,
			BindAddress:           "0.0.0.0",
			EnableCORS:            true,
			AllowOrigins:          "*",
			ReadTimeoutSeconds:    120,
			WriteTimeoutSeconds:   120,
			IdleTimeoutSeconds:    120,
			RequestTimeoutSeconds: 30,
		},
		Storage: StorageConfig{
			DataDirectory:          "./data",
			OutputDirectory:        "./data/outputs",
			HistoryDatabase:        "./data/history.duckdb",
			RetentionMinutes:       60,
			CleanupIntervalMinutes: 5,
		},
		Limits: LimitsConfig{
			MaxUploadMB:     50,
			MaxHTMLUploadMB: 10,
		},
		Security: SecurityConfig{
			AllowFileDeletion: true,
		},
		Logging: LoggingConfig{
			Level:          "info",
			RequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file, writing the defaults there
// first when the file does not exist.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnvironmentOverrides()
	config.resolvePaths(filepath.Dir(configPath))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the configuration as YAML.
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# snackpdf conversion server configuration\n# This file is auto-generated on first run\n\n")
	content := append(header, output...)

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects settings the server cannot run with.
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Limits.MaxUploadMB <= 0 || c.Limits.MaxHTMLUploadMB <= 0 {
		return fmt.Errorf("upload limits must be positive")
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values.
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR moves every storage path that still lives under the default data directory
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		old := c.Storage.DataDirectory
		c.Storage.DataDirectory = dataDir
		c.Storage.OutputDirectory = rebase(c.Storage.OutputDirectory, old, dataDir)
		c.Storage.HistoryDatabase = rebase(c.Storage.HistoryDatabase, old, dataDir)
	}

	if mb := os.Getenv("SNACKPDF_MAX_UPLOAD_MB"); mb != "" {
		if n, err := strconv.Atoi(mb); err == nil && n > 0 {
			c.Limits.MaxUploadMB = n
		}
	}
}

func rebase(path, oldRoot, newRoot string) string {
	rel, err := filepath.Rel(filepath.Clean(oldRoot), filepath.Clean(path))
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.Join(newRoot, rel)
}

// resolvePaths converts relative paths to absolute based on config file location.
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.OutputDirectory,
		&c.Storage.HistoryDatabase,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetServerAddr returns the server bind address.
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// UploadLimitMB returns the upload limit for a route; the HTML route has its own.
func (c *AppConfig) UploadLimitMB(format string) int {
	if format == "html" {
		return c.Limits.MaxHTMLUploadMB
	}
	return c.Limits.MaxUploadMB
}

// Retention is how long converted PDFs and settled jobs are kept.
func (c *AppConfig) Retention() time.Duration {
	return time.Duration(c.Storage.RetentionMinutes) * time.Minute
}

// CleanupInterval is the period of the retention sweep.
func (c *AppConfig) CleanupInterval() time.Duration {
	if c.Storage.CleanupIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Storage.CleanupIntervalMinutes) * time.Minute
}

// LogLevel maps the configured level name to a slog level.
func (c *AppConfig) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// EnsureDirectories creates all necessary directories.
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{c.Storage.DataDirectory, c.Storage.OutputDirectory}
	if c.Storage.HistoryDatabase != "" {
		dirs = append(dirs, filepath.Dir(c.Storage.HistoryDatabase))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
