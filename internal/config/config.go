// Package config loads runtime settings from an optional YAML file and
// FOODGRAM_* environment variables.
//
//	server.port        FOODGRAM_SERVER_PORT
//	database.path      FOODGRAM_DATABASE_PATH
//	auth.jwt_secret    FOODGRAM_AUTH_JWT_SECRET
//
// Environment variables win over the file, the file wins over defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "FOODGRAM"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Recipe   RecipeConfig   `mapstructure:"recipe"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
	// BaseURL prefixes the short links handed out by get-link.
	BaseURL string `mapstructure:"base_url"`
}

type DatabaseConfig struct {
	// Path is a file path or ":memory:".
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	// JWTSecret signs and verifies bearer tokens. Empty disables
	// authentication: every protected route answers 401.
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// RecipeConfig holds the inclusive bounds for cooking time and ingredient
// amounts.
type RecipeConfig struct {
	MinCookingTime      int `mapstructure:"min_cooking_time"`
	MaxCookingTime      int `mapstructure:"max_cooking_time"`
	MinIngredientAmount int `mapstructure:"min_ingredient_amount"`
	MaxIngredientAmount int `mapstructure:"max_ingredient_amount"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("database.path", "data/foodgram.db")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("recipe.min_cooking_time", 1)
	v.SetDefault("recipe.max_cooking_time", 32000)
	v.SetDefault("recipe.min_ingredient_amount", 1)
	v.SetDefault("recipe.max_ingredient_amount", 32000)
}

// Load builds a Config. With an empty path it looks for config.yaml in the
// working directory and ./config and carries on without one; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 16 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	r := c.Recipe
	if r.MinCookingTime < 1 || r.MinCookingTime > r.MaxCookingTime {
		errs = append(errs, fmt.Errorf("recipe cooking time range [%d, %d] is invalid", r.MinCookingTime, r.MaxCookingTime))
	}
	if r.MinIngredientAmount < 1 || r.MinIngredientAmount > r.MaxIngredientAmount {
		errs = append(errs, fmt.Errorf("recipe ingredient amount range [%d, %d] is invalid", r.MinIngredientAmount, r.MaxIngredientAmount))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
