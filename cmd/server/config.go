// Package main provides the sorteio server CLI.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	API      APIConfig      `yaml:"api"`
	Verbose  bool           `yaml:"-"` // set via CLI flag
}

// ServerConfig contains listener settings.
type ServerConfig struct {
	Address        string   `yaml:"address"`         // HTTP listen address (default: :8080)
	MetricsAddress string   `yaml:"metrics_address"` // Prometheus listen address; empty disables
	CORSOrigins    []string `yaml:"cors_origins"`    // allowed browser origins
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"` // SQLite database file path
}

// AuthConfig contains admin authentication settings.
type AuthConfig struct {
	TokenTTL        string `yaml:"token_ttl"`         // admin credential validity (default: 8h)
	LoginRateLimit  int    `yaml:"login_rate_limit"`  // attempts per window per IP (default: 5)
	LoginRateWindow string `yaml:"login_rate_window"` // window duration (default: 15m)
}

// APIConfig contains request handling settings.
type APIConfig struct {
	RateLimitPerIP int    `yaml:"rate_limit_per_ip"` // general requests per minute per IP (default: 100)
	QueryTimeout   string `yaml:"query_timeout"`     // per-request storage budget (default: 10s)
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/sorteio.db"
	}
	if c.Auth.TokenTTL == "" {
		c.Auth.TokenTTL = "8h"
	}
	if c.Auth.LoginRateLimit == 0 {
		c.Auth.LoginRateLimit = 5
	}
	if c.Auth.LoginRateWindow == "" {
		c.Auth.LoginRateWindow = "15m"
	}
	if c.API.RateLimitPerIP == 0 {
		c.API.RateLimitPerIP = 100
	}
	if c.API.QueryTimeout == "" {
		c.API.QueryTimeout = "10s"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := time.ParseDuration(c.Auth.TokenTTL); err != nil {
		return fmt.Errorf("invalid auth.token_ttl: %w", err)
	}
	if _, err := time.ParseDuration(c.Auth.LoginRateWindow); err != nil {
		return fmt.Errorf("invalid auth.login_rate_window: %w", err)
	}
	if _, err := time.ParseDuration(c.API.QueryTimeout); err != nil {
		return fmt.Errorf("invalid api.query_timeout: %w", err)
	}
	if c.Auth.LoginRateLimit < 1 {
		return fmt.Errorf("auth.login_rate_limit must be positive")
	}
	if c.API.RateLimitPerIP < 1 {
		return fmt.Errorf("api.rate_limit_per_ip must be positive")
	}
	return nil
}

// applyEnv overlays environment variables onto the configuration.
// Environment wins over file values so deployments can keep secrets
// out of the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Address = ":" + v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		c.Server.CORSOrigins = origins
	}
}

// duration returns an already-validated duration field.
func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
