package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// File names searched for a working-directory config, in order.
const (
	ProjectConfigYAML = ".asrsmcp.yaml"
	ProjectConfigYML  = ".asrsmcp.yml"
)

// Default values.
const (
	DefaultDataPath      = "asrs_hfacs.json"
	DefaultTransport     = "stdio"
	DefaultLogLevel      = "info"
	DefaultFlushInterval = 60 * time.Second
	DefaultTopTerms      = 100
	DefaultZeroResults   = 100
)

// Config represents the complete asrsmcp configuration.
type Config struct {
	Data      DataConfig      `yaml:"data" json:"data"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
}

// DataConfig locates the incident corpus.
type DataConfig struct {
	// Path is the JSON array file loaded at startup.
	Path string `yaml:"path" json:"path"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
	// MetricsAddr is the listen address for the Prometheus endpoint.
	// Empty disables it.
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
}

// TelemetryConfig configures tool call telemetry.
type TelemetryConfig struct {
	// Enabled toggles the tool_metrics resource and its persistence.
	// A pointer so an explicit false in a file overrides the default.
	Enabled *bool `yaml:"enabled" json:"enabled"`
	// DBPath is the SQLite file for persisted counters.
	// Empty keeps telemetry in memory.
	DBPath              string        `yaml:"db_path" json:"db_path"`
	FlushInterval       time.Duration `yaml:"flush_interval" json:"flush_interval"`
	TopTermsCapacity    int           `yaml:"top_terms_capacity" json:"top_terms_capacity"`
	ZeroResultsCapacity int           `yaml:"zero_results_capacity" json:"zero_results_capacity"`
}

// IsEnabled reports whether telemetry is on. Unset means on.
func (t TelemetryConfig) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	enabled := true
	return &Config{
		Data: DataConfig{
			Path: DefaultDataPath,
		},
		Server: ServerConfig{
			Transport: DefaultTransport,
			LogLevel:  DefaultLogLevel,
		},
		Telemetry: TelemetryConfig{
			Enabled:             &enabled,
			DBPath:              defaultTelemetryPath(),
			FlushInterval:       DefaultFlushInterval,
			TopTermsCapacity:    DefaultTopTerms,
			ZeroResultsCapacity: DefaultZeroResults,
		},
	}
}

// defaultTelemetryPath returns ~/.asrsmcp/telemetry.db.
func defaultTelemetryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".asrsmcp", "telemetry.db")
	}
	return filepath.Join(home, ".asrsmcp", "telemetry.db")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows the XDG Base Directory layout:
//   - $XDG_CONFIG_HOME/asrsmcp/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/asrsmcp/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "asrsmcp", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback - should rarely happen
		return filepath.Join(os.TempDir(), ".config", "asrsmcp", "config.yaml")
	}
	return filepath.Join(home, ".config", "asrsmcp", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// LoadUserConfig returns defaults overlaid with the user config file alone,
// or nil when that file does not exist.
func LoadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load loads configuration for the working directory dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/asrsmcp/config.yaml)
//  3. Project config (.asrsmcp.yaml in dir)
//  4. Environment variables (ASRSMCP_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	// Step 1: Load user/global config (if exists)
	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	// Step 2: Load project config (overrides user config)
	if err := cfg.loadFromDir(dir); err != nil {
		return nil, err
	}

	// Step 3: Apply environment variable overrides (highest precedence)
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFile loads defaults, then path, then environment overrides.
// Used when --config names an explicit file.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromDir attempts to load configuration from .asrsmcp.yaml or .asrsmcp.yml.
func (c *Config) loadFromDir(dir string) error {
	// Try .yaml first (takes precedence)
	yamlPath := filepath.Join(dir, ProjectConfigYAML)
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ProjectConfigYML)
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Use a temporary struct for parsing to detect type errors
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Data.Path != "" {
		c.Data.Path = other.Data.Path
	}

	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
	if other.Server.MetricsAddr != "" {
		c.Server.MetricsAddr = other.Server.MetricsAddr
	}

	if other.Telemetry.Enabled != nil {
		enabled := *other.Telemetry.Enabled
		c.Telemetry.Enabled = &enabled
	}
	if other.Telemetry.DBPath != "" {
		c.Telemetry.DBPath = other.Telemetry.DBPath
	}
	if other.Telemetry.FlushInterval != 0 {
		c.Telemetry.FlushInterval = other.Telemetry.FlushInterval
	}
	if other.Telemetry.TopTermsCapacity != 0 {
		c.Telemetry.TopTermsCapacity = other.Telemetry.TopTermsCapacity
	}
	if other.Telemetry.ZeroResultsCapacity != 0 {
		c.Telemetry.ZeroResultsCapacity = other.Telemetry.ZeroResultsCapacity
	}
}

// applyEnvOverrides applies ASRSMCP_* environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("ASRSMCP_DATA_PATH"); v != "" {
		c.Data.Path = v
	}
	if v := os.Getenv("ASRSMCP_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("ASRSMCP_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
	if v := os.Getenv("ASRSMCP_METRICS_ADDR"); v != "" {
		c.Server.MetricsAddr = v
	}
	if v := os.Getenv("ASRSMCP_TELEMETRY_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("ASRSMCP_TELEMETRY_ENABLED must be a boolean, got %q", v)
		}
		c.Telemetry.Enabled = &enabled
	}
	if v, ok := os.LookupEnv("ASRSMCP_TELEMETRY_DB"); ok {
		// An explicitly empty value keeps telemetry in memory
		c.Telemetry.DBPath = v
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Data.Path) == "" {
		return fmt.Errorf("data.path must not be empty")
	}

	// Validate transport
	if !strings.EqualFold(c.Server.Transport, "stdio") {
		return fmt.Errorf("server.transport must be 'stdio', got %s", c.Server.Transport)
	}

	// Validate log level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	if c.Telemetry.FlushInterval < 0 {
		return fmt.Errorf("telemetry.flush_interval must be non-negative, got %s", c.Telemetry.FlushInterval)
	}
	if c.Telemetry.TopTermsCapacity < 0 {
		return fmt.Errorf("telemetry.top_terms_capacity must be non-negative, got %d", c.Telemetry.TopTermsCapacity)
	}
	if c.Telemetry.ZeroResultsCapacity < 0 {
		return fmt.Errorf("telemetry.zero_results_capacity must be non-negative, got %d", c.Telemetry.ZeroResultsCapacity)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
