// Package config loads configs/config.yml, a local .env file and PDM_*
// environment overrides into a validated Config.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"predictive_maintenance/internal/encoder"
	"predictive_maintenance/internal/models"
)

const envPrefix = "PDM"

type Config struct {
	Port     string                     `mapstructure:"port" validate:"required"`
	Server   ServerConfig               `mapstructure:"server"`
	Log      LogConfig                  `mapstructure:"log"`
	DB       DBConfig                   `mapstructure:"db"`
	Auth     AuthConfig                 `mapstructure:"auth"`
	Backend  BackendConfig              `mapstructure:"backend"`
	Maps     MapsConfig                 `mapstructure:"maps"`
	Notify   NotifyConfig               `mapstructure:"notify"`
	Pipeline PipelineConfig             `mapstructure:"pipeline"`
	Features []models.FeatureDefinition `mapstructure:"features" validate:"omitempty,dive"`
}

type ServerConfig struct {
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

type DBConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key" validate:"required,min=16"`
	TokenTTL   time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
}

type BackendConfig struct {
	BaseURL        string        `mapstructure:"base_url" validate:"required,url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

type MapsConfig struct {
	APIKey          string             `mapstructure:"api_key"`
	PlacesURL       string             `mapstructure:"places_url" validate:"omitempty,url"`
	DefaultRadiusM  int                `mapstructure:"default_radius_m" validate:"gt=0,lte=50000"`
	DefaultLocation models.Coordinates `mapstructure:"default_location"`
}

type NotifyConfig struct {
	DefaultPhone string `mapstructure:"default_phone"`
	DefaultEmail string `mapstructure:"default_email" validate:"omitempty,email"`
}

type PipelineConfig struct {
	NoticeTTL     time.Duration `mapstructure:"notice_ttl" validate:"gt=0"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
	TaskTimeout   time.Duration `mapstructure:"task_timeout" validate:"gt=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("backend.base_url", "http://localhost:5000")
	v.SetDefault("backend.request_timeout", 30*time.Second)
	v.SetDefault("maps.api_key", "")
	v.SetDefault("maps.places_url", "")
	v.SetDefault("maps.default_radius_m", 5000)
	v.SetDefault("maps.default_location.lat", 0.0)
	v.SetDefault("maps.default_location.lng", 0.0)
	v.SetDefault("notify.default_phone", "")
	v.SetDefault("notify.default_email", "")
	v.SetDefault("pipeline.notice_ttl", 6*time.Second)
	v.SetDefault("pipeline.sweep_interval", time.Second)
	v.SetDefault("pipeline.task_timeout", 30*time.Second)
}

// Load reads the config file at path, or configs/config.yml when path is
// empty. A missing file is not an error; defaults and env still apply.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // optional .env, real env wins

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and the feature schema override.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if len(c.Features) > 0 {
		if err := encoder.Schema(c.Features).Validate(); err != nil {
			return fmt.Errorf("invalid config: features: %w", err)
		}
	}
	return nil
}

// Schema returns the configured feature schema or the built-in one.
func (c *Config) Schema() encoder.Schema {
	if len(c.Features) == 0 {
		return encoder.DefaultSchema()
	}
	return encoder.Schema(c.Features)
}
