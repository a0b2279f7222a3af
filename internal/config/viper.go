// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"fjacquet/stmt-categorizer/internal/logging"
)

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// AIConfig configures the remote classifier.
type AIConfig struct {
	Enabled           bool   `mapstructure:"enabled" yaml:"enabled"`
	Model             string `mapstructure:"model" yaml:"model"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxConcurrency    int    `mapstructure:"max_concurrency" yaml:"max_concurrency"`
	APIKey            string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
}

// Timeout returns TimeoutSeconds as a duration.
func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CategoriesConfig locates the category, pattern and keyword files.
type CategoriesConfig struct {
	File         string        `mapstructure:"file" yaml:"file"`
	PatternsFile string        `mapstructure:"patterns_file" yaml:"patterns_file"`
	KeywordsFile string        `mapstructure:"keywords_file" yaml:"keywords_file"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// StorageConfig selects the record store.
type StorageConfig struct {
	Driver     string `mapstructure:"driver" yaml:"driver"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	// ImportsDir receives saved import reports when Driver is yaml.
	ImportsDir string `mapstructure:"imports_dir" yaml:"imports_dir"`
}

// EventsConfig configures import event publishing. An empty AMQPURL
// disables it.
type EventsConfig struct {
	AMQPURL    string `mapstructure:"amqp_url" yaml:"-"`
	Exchange   string `mapstructure:"exchange" yaml:"exchange"`
	RoutingKey string `mapstructure:"routing_key" yaml:"routing_key"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string `mapstructure:"addr" yaml:"addr"`
	ExposeStack bool   `mapstructure:"expose_stack" yaml:"expose_stack"`
}

// Storage drivers.
const (
	StorageYAML   = "yaml"
	StorageSQLite = "sqlite"
)

// Config represents the complete application configuration
type Config struct {
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	AI         AIConfig         `mapstructure:"ai" yaml:"ai"`
	Categories CategoriesConfig `mapstructure:"categories" yaml:"categories"`
	Storage    StorageConfig    `mapstructure:"storage" yaml:"storage"`
	Events     EventsConfig     `mapstructure:"events" yaml:"events"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.stmt-categorizer")
	v.AddConfigPath(".stmt-categorizer")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("STMT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logging.GetLogger().WithError(err).Warn("Error reading config file, using defaults and environment",
				logging.Field{Key: logging.FieldFile, Value: v.ConfigFileUsed()})
		}
	}

	// 5. Secrets come from their conventional, unprefixed variables too
	if err := v.BindEnv("ai.api_key", "STMT_AI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_API_KEY: %w", err)
	}
	if err := v.BindEnv("events.amqp_url", "STMT_EVENTS_AMQP_URL", "AMQP_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind AMQP_URL: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// AI defaults
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.requests_per_minute", 10)
	v.SetDefault("ai.timeout_seconds", 30)
	v.SetDefault("ai.max_concurrency", 4)
	v.SetDefault("ai.api_key", "")

	// Category file defaults
	v.SetDefault("categories.file", "categories.yaml")
	v.SetDefault("categories.patterns_file", "patterns.yaml")
	v.SetDefault("categories.keywords_file", "keywords.yaml")
	v.SetDefault("categories.cache_ttl", "5m")

	// Storage defaults
	v.SetDefault("storage.driver", StorageYAML)
	v.SetDefault("storage.sqlite_path", "$HOME/.stmt-categorizer/records.db")
	v.SetDefault("storage.imports_dir", "$HOME/.stmt-categorizer/imports")

	// Events defaults
	v.SetDefault("events.amqp_url", "")
	v.SetDefault("events.exchange", "stmt-categorizer")
	v.SetDefault("events.routing_key", "import.completed")

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.expose_stack", false)
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	// Validate AI configuration
	if config.AI.Enabled {
		if config.AI.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY required when AI is enabled")
		}

		if config.AI.RequestsPerMinute < 1 || config.AI.RequestsPerMinute > 1000 {
			return fmt.Errorf("ai.requests_per_minute must be between 1 and 1000, got: %d", config.AI.RequestsPerMinute)
		}

		if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
		}
	}

	if config.AI.MaxConcurrency < 1 || config.AI.MaxConcurrency > 64 {
		return fmt.Errorf("ai.max_concurrency must be between 1 and 64, got: %d", config.AI.MaxConcurrency)
	}

	if config.Categories.CacheTTL < 0 {
		return fmt.Errorf("categories.cache_ttl must not be negative, got: %s", config.Categories.CacheTTL)
	}

	switch config.Storage.Driver {
	case StorageYAML:
		if config.Storage.ImportsDir == "" {
			return fmt.Errorf("storage.imports_dir required when storage.driver is yaml")
		}
	case StorageSQLite:
		if config.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path required when storage.driver is sqlite")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s (must be 'yaml' or 'sqlite')", config.Storage.Driver)
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	// Parse and set log level
	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Configure log format
	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
