// Package config loads the ledger service configuration from a YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
	Token     TokenConfig     `yaml:"token"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Audit     AuditConfig     `yaml:"audit"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	// DSN is a PostgreSQL connection string; empty selects the in-memory
	// store.
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	// Addr enables the Redis event publisher when set.
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TokenConfig holds the genesis parameters. They only apply on first start;
// afterwards state comes from the stored snapshot.
type TokenConfig struct {
	Name          string `yaml:"name"`
	Symbol        string `yaml:"symbol"`
	Decimals      uint8  `yaml:"decimals"`
	InitialSupply string `yaml:"initial_supply"`
	MaxSupply     string `yaml:"max_supply"`
	Owner         string `yaml:"owner"`
}

type AuthConfig struct {
	// APIKeys maps hex-encoded sha256 key digests to caller addresses.
	APIKeys map[string]string `yaml:"api_keys"`
	// JWTSecret enables HS256 bearer tokens; also settable via
	// LEDGER_JWT_SECRET.
	JWTSecret string `yaml:"jwt_secret"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	Burst             int `yaml:"burst"`
}

type AuditConfig struct {
	// Schedule is a cron spec for the supply auditor; empty disables it.
	Schedule string `yaml:"schedule"`
}

// Load reads the configuration from LEDGER_CONFIG (default
// config/ledger.yaml), applies environment overrides and validates it.
func Load() (*Config, error) {
	path := os.Getenv("LEDGER_CONFIG")
	if path == "" {
		path = filepath.Join("config", "ledger.yaml")
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the configuration from a specific file.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server:    ServerConfig{Host: "0.0.0.0", Port: 8080},
		Logging:   LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		RateLimit: RateLimitConfig{RequestsPerSecond: 50, Burst: 100},
		Audit:     AuditConfig{Schedule: "@every 1m"},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LEDGER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("LEDGER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("LEDGER_DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("LEDGER_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("LEDGER_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("LEDGER_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("LEDGER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the fields required to boot.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	if c.Token.Owner == "" {
		return fmt.Errorf("config: token.owner is required")
	}
	if c.Token.InitialSupply == "" || c.Token.MaxSupply == "" {
		return fmt.Errorf("config: token.initial_supply and token.max_supply are required")
	}
	if c.Token.Symbol == "" {
		return fmt.Errorf("config: token.symbol is required")
	}
	return nil
}
