package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds all configuration for the chat module.
type Config struct {
	// Upstream completion API (OpenAI-compatible; DeepSeek by default)
	APIKey          string        `env:"DEEPSEEK_API_KEY,required"`
	BaseURL         string        `env:"LLM_BASE_URL" envDefault:"https://api.deepseek.com"`
	Model           string        `env:"LLM_MODEL" envDefault:"deepseek-chat"`
	UpstreamTimeout time.Duration `env:"LLM_TIMEOUT" envDefault:"2m"`

	// Session ownership cache (optional; empty address disables it)
	RedisAddr       string        `env:"REDIS_ADDR" envDefault:""`
	RedisPassword   string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	SessionCacheTTL time.Duration `env:"SESSION_CACHE_TTL" envDefault:"10m"`

	// Reconciler job for chat turns whose bot reply was never persisted
	ReconcilerSchedule   string        `env:"RECONCILER_SCHEDULE" envDefault:"@every 5m"`
	ReconcilerStaleAfter time.Duration `env:"RECONCILER_STALE_AFTER" envDefault:"5m"`

	// Title given to the session auto-created for users who have none
	DefaultSessionTitle string `env:"DEFAULT_SESSION_TITLE" envDefault:"New Session 1"`
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load chat configuration from environment: " + err.Error())
	}

	if cfg.UpstreamTimeout <= 0 {
		return nil, errors.New("upstream timeout must be positive")
	}

	return cfg, nil
}
