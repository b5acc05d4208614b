// Package config loads and hot-reloads service configuration from a
// YAML file, environment variables with the DOCPROC_ prefix, and
// built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/surgiscan/docproc/internal/oracle"
)

// Config is the full service configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Oracle     OracleConfig     `mapstructure:"oracle" yaml:"oracle"`
	Processing ProcessingConfig `mapstructure:"processing" yaml:"processing"`
	Storage    StorageConfig    `mapstructure:"storage" yaml:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// OracleConfig selects and tunes the document-AI backend.
type OracleConfig struct {
	Provider       string  `mapstructure:"provider" yaml:"provider"`
	APIKey         string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL        string  `mapstructure:"base_url" yaml:"base_url"`
	Model          string  `mapstructure:"model" yaml:"model"`
	RateLimit      float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries     int     `mapstructure:"max_retries" yaml:"max_retries"`
}

// ProcessingConfig tunes the pipeline.
type ProcessingConfig struct {
	DefaultMode       string   `mapstructure:"default_mode" yaml:"default_mode"`
	MaxConcurrent     int      `mapstructure:"max_concurrent" yaml:"max_concurrent"`
	TimeoutSeconds    int      `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxFileSizeMB     int      `mapstructure:"max_file_size_mb" yaml:"max_file_size_mb"`
	AllowedExtensions []string `mapstructure:"allowed_extensions" yaml:"allowed_extensions"`
}

// StorageConfig locates file and database storage.
type StorageConfig struct {
	Root         string `mapstructure:"root" yaml:"root"`
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
}

// LoggingConfig tunes slog output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Oracle: OracleConfig{
			Provider:       "landingai",
			APIKey:         "${LANDINGAI_API_KEY}",
			RateLimit:      2.0,
			TimeoutSeconds: 120,
			MaxRetries:     3,
		},
		Processing: ProcessingConfig{
			DefaultMode:       "smart",
			MaxConcurrent:     10,
			TimeoutSeconds:    300,
			MaxFileSizeMB:     50,
			AllowedExtensions: []string{"pdf", "png", "jpg", "jpeg", "tiff"},
		},
		Storage: StorageConfig{
			Root:         "./data/files",
			DatabasePath: "./data/docproc.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a config manager and loads the initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and the config file.
func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("server", defaults.Server)
	viper.SetDefault("oracle", defaults.Oracle)
	viper.SetDefault("processing", defaults.Processing)
	viper.SetDefault("storage", defaults.Storage)
	viper.SetDefault("logging", defaults.Logging)

	// Environment variables with DOCPROC_ prefix
	viper.SetEnvPrefix("DOCPROC")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.docproc")
	}

	// The config file is optional; defaults and env cover everything.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ToOracleConfig converts the oracle section to a client config,
// resolving ${ENV_VAR} references in the API key.
func (c *Config) ToOracleConfig() oracle.Config {
	return oracle.Config{
		Provider:   c.Oracle.Provider,
		APIKey:     ResolveEnvVars(c.Oracle.APIKey),
		BaseURL:    c.Oracle.BaseURL,
		Model:      c.Oracle.Model,
		RateLimit:  c.Oracle.RateLimit,
		Timeout:    time.Duration(c.Oracle.TimeoutSeconds) * time.Second,
		MaxRetries: c.Oracle.MaxRetries,
	}
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# docproc configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell: export LANDINGAI_API_KEY=xxx OPENAI_API_KEY=xxx

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
