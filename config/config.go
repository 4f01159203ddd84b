package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"time"

	"github.com/BurntSushi/toml"
)

type ServerConfig struct {
	Port int `toml:"port"`
}

// BackendConfig points at the mail REST service
type BackendConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type SessionConfig struct {
	Secret          string `toml:"secret"` // Signs push tokens
	ExpirationHours int    `toml:"expiration_hours"`
	DataDir         string `toml:"data_dir"` // Holds the session database
	ViewTTLMinutes  int    `toml:"view_ttl_minutes"`

	generated bool
}

type RateLimitConfig struct {
	Requests      int `toml:"requests"`
	WindowSeconds int `toml:"window_seconds"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Backend   BackendConfig   `toml:"backend"`
	Session   SessionConfig   `toml:"session"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Log       LogConfig       `toml:"log"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Port: 3000},
		Backend:   BackendConfig{BaseURL: "http://127.0.0.1:8000", TimeoutSeconds: 10},
		Session:   SessionConfig{ExpirationHours: 24, DataDir: "./data", ViewTTLMinutes: 30},
		RateLimit: RateLimitConfig{Requests: 100, WindowSeconds: 60},
		Log:       LogConfig{Level: "info"},
	}
}

// LoadConfig reads a TOML file over the defaults and validates the result
func LoadConfig(filepath string) (*Config, error) {
	config := Default()

	if _, err := toml.DecodeFile(filepath, config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", filepath, err)
	}

	return config, nil
}

// Validate checks required values and fills in a session secret if none is set
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}

	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil {
		return fmt.Errorf("backend.base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute http(s) URL, got %q", c.Backend.BaseURL)
	}

	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = 10
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate_limit.requests and rate_limit.window_seconds must be positive")
	}

	if c.Session.Secret == "" {
		secret, err := randomSecret()
		if err != nil {
			return fmt.Errorf("generating session secret: %w", err)
		}
		c.Session.Secret = secret
		c.Session.generated = true
	}

	return nil
}

// SecretGenerated reports whether Validate had to invent the session secret.
// Push tokens then stop working across restarts.
func (s *SessionConfig) SecretGenerated() bool {
	return s.generated
}

// Timeout returns the per-request backend timeout
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Expiration returns the session cookie lifetime
func (s SessionConfig) Expiration() time.Duration {
	return time.Duration(s.ExpirationHours) * time.Hour
}

// ViewTTL returns how long an idle view session is kept in memory
func (s SessionConfig) ViewTTL() time.Duration {
	return time.Duration(s.ViewTTLMinutes) * time.Minute
}

// Window returns the rate limit window
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
