package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable (LINGUASPARK_WORKERS, ...).
const EnvPrefix = "LINGUASPARK"

// Config holds all runtime configuration
type Config struct {
	// Translation
	Workers        int    `envconfig:"WORKERS" json:"workers"` // 0 = auto-detect
	ModelsDir      string `envconfig:"MODELS_DIR" json:"models_dir"`
	QueueSize      int    `envconfig:"QUEUE_SIZE" json:"queue_size"` // 0 = unbounded
	MaxInputLength int    `envconfig:"MAX_INPUT_LENGTH" json:"max_input_length"`

	// Result cache
	CacheEnabled bool          `envconfig:"CACHE_ENABLED" json:"cache_enabled"`
	CacheSize    int           `envconfig:"CACHE_SIZE" json:"cache_size"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" json:"cache_ttl"`
	RedisURL     string        `envconfig:"REDIS_URL" json:"-"`
	RedisPrefix  string        `envconfig:"REDIS_PREFIX" json:"redis_prefix"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" json:"log_level"`
	LogFormat string `envconfig:"LOG_FORMAT" json:"log_format"` // "json" or "text"
}

// DefaultConfig returns config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Workers:        0, // Auto-detect
		ModelsDir:      "models",
		QueueSize:      0,
		MaxInputLength: 64 * 1024,

		CacheEnabled: false,
		CacheSize:    4096,
		CacheTTL:     10 * time.Minute,
		RedisPrefix:  "linguaspark:tr:",

		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load applies LINGUASPARK_* environment variables on top of DefaultConfig
// and validates the result.
func Load() (*Config, error) {
	cfg := DefaultConfig()
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers: %d", c.Workers)
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("invalid queue size: %d", c.QueueSize)
	}
	if c.MaxInputLength < 1 {
		return fmt.Errorf("invalid max input length: %d", c.MaxInputLength)
	}
	if c.CacheEnabled && c.CacheSize < 1 {
		return fmt.Errorf("invalid cache size: %d", c.CacheSize)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("invalid cache ttl: %v", c.CacheTTL)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %q (must be json or text)", c.LogFormat)
	}
	return nil
}

// UsesRedis reports whether the shared cache tier is configured.
func (c *Config) UsesRedis() bool {
	return c.CacheEnabled && strings.TrimSpace(c.RedisURL) != ""
}

// String returns a human-readable config summary
func (c *Config) String() string {
	cache := "off"
	if c.CacheEnabled {
		cache = fmt.Sprintf("lru(%d)", c.CacheSize)
		if c.UsesRedis() {
			cache += "+redis"
		}
	}
	return fmt.Sprintf(
		"Config{workers=%d, models_dir=%s, queue=%d, max_input=%d, cache=%s, ttl=%v, log=%s/%s}",
		c.Workers, c.ModelsDir, c.QueueSize, c.MaxInputLength, cache, c.CacheTTL, c.LogLevel, c.LogFormat,
	)
}
