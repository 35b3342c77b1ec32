// Package config loads and validates server configuration.
//
// Configuration sources, highest precedence first:
//  1. Environment variables (NIMBUS_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// Store configuration follows a type/section pattern: the Type field
// selects the implementation and only the matching type-specific
// section is decoded, by the factory for that implementation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete server configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	Content  ContentConfig  `mapstructure:"content"`
	Trash    TrashConfig    `mapstructure:"trash"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is the minimum level to emit: debug, info, warn, error.
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`

	// Format is "json" or "console".
	Format string `mapstructure:"format" validate:"required,oneof=json console"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Listen is the address the HTTP server binds to.
	Listen string `mapstructure:"listen" validate:"required"`

	// BodyLimit caps request bodies (and therefore uploads), in bytes.
	BodyLimit int `mapstructure:"body_limit" validate:"required,gt=0"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
}

// AuthConfig contains session token settings.
type AuthConfig struct {
	// JWTSecret signs session tokens. Required; there is no insecure
	// default.
	JWTSecret string `mapstructure:"jwt_secret" validate:"required"`

	// TokenTTL is how long issued tokens stay valid.
	TokenTTL time.Duration `mapstructure:"token_ttl" validate:"required,gt=0"`
}

// MetadataConfig selects and configures the metadata store.
type MetadataConfig struct {
	// Type is "memory" or "badger".
	Type string `mapstructure:"type" validate:"required,oneof=memory badger"`

	// Badger holds BadgerDB-specific settings, used when Type is
	// "badger".
	Badger map[string]any `mapstructure:"badger"`
}

// ContentConfig selects and configures the content store.
type ContentConfig struct {
	// Type is "filesystem", "memory", or "s3".
	Type string `mapstructure:"type" validate:"required,oneof=filesystem memory s3"`

	// Filesystem holds filesystem-specific settings, used when Type is
	// "filesystem".
	Filesystem map[string]any `mapstructure:"filesystem"`

	// S3 holds S3-specific settings, used when Type is "s3".
	S3 map[string]any `mapstructure:"s3"`
}

// TrashConfig controls the retention sweeper.
type TrashConfig struct {
	// SweepEnabled turns the background sweeper on.
	SweepEnabled bool `mapstructure:"sweep_enabled"`

	// SweepInterval is how often the trash is scanned.
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"gte=0"`

	// Retention is how long items stay in the trash before automatic
	// purge.
	Retention time.Duration `mapstructure:"retention" validate:"gte=0"`
}

// MetricsConfig controls Prometheus metrics exposure.
type MetricsConfig struct {
	// Enabled registers collectors and exposes /metrics.
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from the given file (optional), the
// environment, and defaults, then validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("NIMBUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("nimbus")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
