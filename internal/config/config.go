// Package config defines process configuration and how it is loaded.
package config

import (
	"fmt"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// CORSOrigins is a comma-separated list of allowed browser origins.
	CORSOrigins string `koanf:"cors_origins"`

	// DatabaseURL selects the PostgreSQL store. Empty keeps results in memory.
	DatabaseURL string `koanf:"database_url"`

	// RedisAddr enables the shared race id counter.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`

	// ExhibitionPrefix marks the school shown on team boards without a rank.
	ExhibitionPrefix string `koanf:"exhibition_prefix"`

	// UploadQueueSize bounds the number of uploads waiting for ingestion.
	UploadQueueSize int `koanf:"upload_queue_size"`
	// DedupeSize sets how many upload digests are remembered.
	DedupeSize int `koanf:"dedupe_size"`
	// MaxUploadBytes caps one uploaded result file.
	MaxUploadBytes int `koanf:"max_upload_bytes"`

	// S3 settings for publishing CSV exports. Publishing is off without a bucket.
	S3Bucket          string `koanf:"s3_bucket"`
	S3Region          string `koanf:"s3_region"`
	S3Endpoint        string `koanf:"s3_endpoint"`
	S3AccessKeyID     string `koanf:"s3_access_key_id"`
	S3SecretAccessKey string `koanf:"s3_secret_access_key"`
	S3Prefix          string `koanf:"s3_prefix"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		CORSOrigins:      "*",
		ExhibitionPrefix: "Exhibition",
		UploadQueueSize:  64,
		DedupeSize:       10_000,
		MaxUploadBytes:   4 << 20,
		S3Region:         "auto",
	}
}

// Origins splits CORSOrigins into trimmed, non-empty entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.UploadQueueSize <= 0:
		return fmt.Errorf("%w: upload_queue_size must be positive", ErrInvalidConfig)
	case c.DedupeSize <= 0:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
