package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultEndpoint is the hosted scraping service the client talks to.
const DefaultEndpoint = "https://gab-on-scraper-backend-latest.onrender.com/api/scrape"

// Config holds all application configuration.
type Config struct {
	Remote    RemoteConfig
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Session   SessionConfig
	Export    ExportConfig
	Log       LogConfig
}

// RemoteConfig controls the outbound call to the scraping service.
type RemoteConfig struct {
	// Endpoint is the fixed scrape URL requests are POSTed to.
	Endpoint string

	// RequestTimeout bounds a single scrape call. Zero waits indefinitely.
	RequestTimeout time.Duration // default: 120s

	// APIKey, when set, is sent as X-API-Key.
	APIKey string
}

// ServerConfig controls the local web UI.
type ServerConfig struct {
	Host string // default: "127.0.0.1"
	Port int    // default: 5173
	Mode string // "debug", "release", "test"; default: "release"
}

// AuthConfig controls API key authentication of the local JSON API.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of accepted keys.
	APIKeys []string
}

// RateLimitConfig controls per-identity submit rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained submit rate per identity.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per identity.
	Burst int // default: 3
}

// SessionConfig bounds the per-browser controller store.
type SessionConfig struct {
	// MaxEntries is the maximum number of live sessions.
	MaxEntries int // default: 1000

	// IdleTTL is how long an untouched session is kept.
	IdleTTL time.Duration // default: 1h
}

// ExportConfig controls where exported results are written by the CLI
// and MCP server.
type ExportConfig struct {
	Dir string // default: "."
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"

	// File, when set, receives a copy of every record with size-based rotation.
	File       string
	MaxSizeMB  int // default: 10
	MaxBackups int // default: 3
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Remote: RemoteConfig{
			Endpoint:       envOr("WEBSCRAPPER_ENDPOINT", DefaultEndpoint),
			RequestTimeout: envDurationOr("WEBSCRAPPER_REQUEST_TIMEOUT", 120*time.Second),
			APIKey:         os.Getenv("WEBSCRAPPER_REMOTE_API_KEY"),
		},
		Server: ServerConfig{
			Host: envOr("WEBSCRAPPER_HOST", "127.0.0.1"),
			Port: envIntOr("WEBSCRAPPER_PORT", 5173),
			Mode: envOr("WEBSCRAPPER_MODE", "release"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("WEBSCRAPPER_AUTH_ENABLED", false),
			APIKeys: envSliceOr("WEBSCRAPPER_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("WEBSCRAPPER_RATE_RPS", 1.0),
			Burst:             envIntOr("WEBSCRAPPER_RATE_BURST", 3),
		},
		Session: SessionConfig{
			MaxEntries: envIntOr("WEBSCRAPPER_MAX_SESSIONS", 1000),
			IdleTTL:    envDurationOr("WEBSCRAPPER_SESSION_TTL", time.Hour),
		},
		Export: ExportConfig{
			Dir: envOr("WEBSCRAPPER_EXPORT_DIR", "."),
		},
		Log: LogConfig{
			Level:      envOr("WEBSCRAPPER_LOG_LEVEL", "info"),
			Format:     envOr("WEBSCRAPPER_LOG_FORMAT", "json"),
			File:       os.Getenv("WEBSCRAPPER_LOG_FILE"),
			MaxSizeMB:  envIntOr("WEBSCRAPPER_LOG_MAX_SIZE_MB", 10),
			MaxBackups: envIntOr("WEBSCRAPPER_LOG_MAX_BACKUPS", 3),
		},
	}
}

// Validate reports settings the binaries cannot start with.
func (c *Config) Validate() error {
	if err := c.Remote.Validate(); err != nil {
		return err
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Server.Port)
	}
	return nil
}

// Validate checks the endpoint and timeout of the outbound call.
func (r RemoteConfig) Validate() error {
	if r.Endpoint == "" {
		return fmt.Errorf("config: remote endpoint is empty")
	}
	u, err := url.Parse(r.Endpoint)
	if err != nil {
		return fmt.Errorf("config: parse remote endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config: remote endpoint %q must be http or https", r.Endpoint)
	}
	if r.RequestTimeout < 0 {
		return fmt.Errorf("config: request timeout must not be negative")
	}
	return nil
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
