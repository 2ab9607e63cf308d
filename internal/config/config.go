package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/jwebster45206/scene-engine/pkg/scene"
)

// Content backends.
const (
	BackendFile   = "file"
	BackendHTTP   = "http"
	BackendSQLite = "sqlite"
)

type Config struct {
	Port         string `env:"PORT"        envDefault:"8080"`
	Environment  string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelName string `env:"LOG_LEVEL"   envDefault:"info"`
	LogLevel     slog.Level

	ContentBackend    string        `env:"CONTENT_BACKEND"     envDefault:"file"`
	ContentRoot       string        `env:"CONTENT_ROOT"        envDefault:"./data/stories"`
	ContentBaseURL    string        `env:"CONTENT_BASE_URL"`
	ContentSQLitePath string        `env:"CONTENT_SQLITE_PATH" envDefault:"./data/stories.db"`
	ContentCacheTTL   time.Duration `env:"CONTENT_CACHE_TTL"   envDefault:"1h"`

	// Empty disables the shared content cache.
	RedisURL string `env:"REDIS_URL"`

	StartRefName     string `env:"START_REF"          envDefault:"day1#morning"`
	StartRef         scene.LocationRef
	FallbackDayTitle string        `env:"FALLBACK_DAY_TITLE"`
	SessionTTL       time.Duration `env:"SESSION_TTL"        envDefault:"2h"`

	// Tracing is off unless an OTLP/HTTP endpoint is given.
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	cfg.ContentBackend = strings.ToLower(strings.TrimSpace(cfg.ContentBackend))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}

	start, err := scene.ParseLocationRef(c.StartRefName)
	if err != nil {
		return fmt.Errorf("START_REF: %w", err)
	}
	c.StartRef = start

	switch c.ContentBackend {
	case BackendFile:
		if c.ContentRoot == "" {
			return fmt.Errorf("CONTENT_ROOT is required for the file backend")
		}
	case BackendHTTP:
		if c.ContentBaseURL == "" {
			return fmt.Errorf("CONTENT_BASE_URL is required for the http backend")
		}
	case BackendSQLite:
		if c.ContentSQLitePath == "" {
			return fmt.Errorf("CONTENT_SQLITE_PATH is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown CONTENT_BACKEND %q (want file, http or sqlite)", c.ContentBackend)
	}

	if c.ContentCacheTTL <= 0 {
		return fmt.Errorf("CONTENT_CACHE_TTL must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
