package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.False(t, cfg.UsesRedis())
	require.Contains(t, cfg.String(), "cache=off")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LINGUASPARK_WORKERS", "6")
	t.Setenv("LINGUASPARK_MODELS_DIR", "/srv/models")
	t.Setenv("LINGUASPARK_CACHE_ENABLED", "true")
	t.Setenv("LINGUASPARK_CACHE_TTL", "90s")
	t.Setenv("LINGUASPARK_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LINGUASPARK_LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 6, cfg.Workers)
	require.Equal(t, "/srv/models", cfg.ModelsDir)
	require.Equal(t, 90*time.Second, cfg.CacheTTL)
	require.Equal(t, 4096, cfg.CacheSize)
	require.Equal(t, "text", cfg.LogFormat)
	require.True(t, cfg.UsesRedis())
	require.Contains(t, cfg.String(), "lru(4096)+redis")
	require.NotContains(t, cfg.String(), "localhost")
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("LINGUASPARK_WORKERS", "-1")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("LINGUASPARK_WORKERS", "two")
	_, err = Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"queue":      func(c *Config) { c.QueueSize = -1 },
		"max input":  func(c *Config) { c.MaxInputLength = 0 },
		"cache size": func(c *Config) { c.CacheEnabled = true; c.CacheSize = 0 },
		"ttl":        func(c *Config) { c.CacheTTL = -time.Second },
		"log format": func(c *Config) { c.LogFormat = "xml" },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		require.Error(t, cfg.Validate(), name)
	}
}
