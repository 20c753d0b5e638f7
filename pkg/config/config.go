// Package config loads devroom server configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// MinSecretLength is the minimum accepted length for the JWT signing secret.
const MinSecretLength = 32

// Default configuration values.
const (
	DefaultBind              = "127.0.0.1:3000"
	DefaultDBPath            = "devroom.db"
	DefaultTokenTTL          = 24 * time.Hour
	DefaultMaxConnections    = 256
	DefaultMessagesPerSecond = 10.0
	DefaultMessageBurst      = 20
)

// Config is the complete devroom configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Storage StorageConfig `yaml:"storage"`
	AI      AIConfig      `yaml:"ai"`
}

// ServerConfig covers the HTTP/websocket listener.
type ServerConfig struct {
	Bind              string   `yaml:"bind"`
	AllowedOrigins    []string `yaml:"allowed_origins"`
	MaxConnections    int      `yaml:"max_connections"`
	MessagesPerSecond float64  `yaml:"messages_per_second"`
	MessageBurst      int      `yaml:"message_burst"`
}

// AuthConfig covers credential issuance and verification.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// StorageConfig covers the SQLite database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// AIConfig covers the external generation service.
type AIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// Default returns a configuration populated with defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Bind:              DefaultBind,
			MaxConnections:    DefaultMaxConnections,
			MessagesPerSecond: DefaultMessagesPerSecond,
			MessageBurst:      DefaultMessageBurst,
		},
		Auth: AuthConfig{
			TokenTTL: DefaultTokenTTL,
		},
		Storage: StorageConfig{
			Path: DefaultDBPath,
		},
	}
}

// Load reads configuration from the given YAML file, then applies
// environment overrides. An empty path skips the file and uses defaults
// plus environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DEVROOM_BIND"); v != "" {
		c.Server.Bind = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			c.Server.Bind = ":" + v
		}
	}
	if v := os.Getenv("DEVROOM_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("DEVROOM_DB_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("GOOGLE_AI_KEY"); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv("DEVROOM_AI_MODEL"); v != "" {
		c.AI.Model = v
	}
	if v := os.Getenv("DEVROOM_AI_BASE_URL"); v != "" {
		c.AI.BaseURL = v
	}
}

// Validate checks required fields and sane limits.
func (c *Config) Validate() error {
	if c.Server.Bind == "" {
		return fmt.Errorf("server.bind cannot be empty")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (set DEVROOM_JWT_SECRET)")
	}
	if len(c.Auth.JWTSecret) < MinSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d characters", MinSecretLength)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path cannot be empty")
	}
	return nil
}
