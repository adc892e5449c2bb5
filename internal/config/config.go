package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is read from STRANGERCHAT_*-prefixed environment variables;
// flag values passed to NewConfig take precedence.
type Config struct {
	ServerAddr     string        `envconfig:"ADDR" default:"localhost:8000"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS"`
	WordLists      []string      `envconfig:"WORD_LISTS"`
	RateLimit      int           `envconfig:"RATE_LIMIT" default:"100"`
	RateWindow     time.Duration `envconfig:"RATE_WINDOW" default:"15m"`
}

func NewConfig(addr string, allowedOrigins []string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("STRANGERCHAT", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if addr != "" {
		cfg.ServerAddr = addr
	}
	if len(allowedOrigins) > 0 {
		cfg.AllowedOrigins = allowedOrigins
	}

	if cfg.ServerAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if cfg.RateLimit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive")
	}
	if cfg.RateWindow <= 0 {
		return nil, fmt.Errorf("rate window must be positive")
	}

	return &cfg, nil
}
