package config

import (
	"strings"
	"time"
)

// ApplyDefaults fills in unspecified fields. Zero values are replaced;
// explicit values are preserved. The JWT secret deliberately has no
// default.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.BodyLimit == 0 {
		cfg.Server.BodyLimit = 100 * 1024 * 1024
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}

	if cfg.Metadata.Type == "" {
		cfg.Metadata.Type = "memory"
	}
	if cfg.Content.Type == "" {
		cfg.Content.Type = "memory"
	}

	if cfg.Trash.SweepInterval == 0 {
		cfg.Trash.SweepInterval = time.Hour
	}
	if cfg.Trash.Retention == 0 {
		cfg.Trash.Retention = 30 * 24 * time.Hour
	}
}
