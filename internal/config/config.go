// Package config loads process settings from the environment and the
// business policy from YAML.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment key, e.g. FULFILL_APP_PORT.
const EnvPrefix = "FULFILL"

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Port               string        `mapstructure:"app_port"`
	DatabaseURL        string        `mapstructure:"database_url"`
	Store              string        `mapstructure:"store"`
	PolicyFile         string        `mapstructure:"policy_file"`
	LogLevel           string        `mapstructure:"log_level"`
	JWTSecret          string        `mapstructure:"jwt_secret"`
	OperatorID         string        `mapstructure:"operator_id"`
	OperatorSecretHash string        `mapstructure:"operator_secret_hash"`
	TokenTTL           time.Duration `mapstructure:"token_ttl"`
	RedisAddress       string        `mapstructure:"redis_address"`
	Workers            int           `mapstructure:"workers"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("app_port", "8080")
	v.SetDefault("database_url", "")
	v.SetDefault("store", StoreMemory)
	v.SetDefault("policy_file", "policy.yaml")
	v.SetDefault("log_level", "info")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("operator_id", "operator")
	v.SetDefault("operator_secret_hash", "")
	v.SetDefault("token_ttl", "24h")
	v.SetDefault("redis_address", "")
	v.SetDefault("workers", 1)
}

// Load reads .env if present, then an optional config file, then
// FULFILL_-prefixed environment variables. Later sources win.
func Load(path string) (*Config, error) {
	// .env is optional outside development
	_ = godotenv.Load()

	v := viper.New()
	defaults(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: database_url is required for the postgres store")
		}
	default:
		return fmt.Errorf("config: unknown store %q", c.Store)
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1, got %d", c.Workers)
	}
	if c.JWTSecret != "" && c.OperatorSecretHash == "" {
		return errors.New("config: operator_secret_hash is required when jwt_secret is set")
	}
	if c.TokenTTL < 0 {
		return errors.New("config: token_ttl must not be negative")
	}
	return nil
}

// AuthEnabled reports whether write endpoints require a bearer token.
func (c *Config) AuthEnabled() bool { return c.JWTSecret != "" }
