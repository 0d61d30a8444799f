package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/edgard/batepapo/internal/errs"
)

// EnvPrefix is prepended to every environment override, e.g. CHAT_CHAT_TIMEOUT.
const EnvPrefix = "CHAT"

// Load builds the configuration in this order:
//  1. Default values
//  2. .env file next to the binary, if present
//  3. The YAML file at path, if present
//  4. CHAT_* environment variables
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errs.NewConfigError("failed to load .env file", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !isMissingFile(err) {
				return nil, errs.NewConfigError("failed to read config file", err)
			}
			slog.Info("Configuration file not found, using defaults and environment", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errs.NewConfigError("failed to parse config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func isMissingFile(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// Validate checks struct tags and the cross-field rules of the scheduler.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errs.NewConfigError("invalid configuration", err)
	}

	for name, task := range c.Scheduler.Tasks {
		if task.Enabled && task.Interval == 0 && task.Schedule == "" {
			return errs.NewConfigError(
				fmt.Sprintf("scheduler task %q is enabled without interval or schedule", name), nil)
		}
	}

	return nil
}
