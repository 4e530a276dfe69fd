// SPDX-License-Identifier: Apache-2.0

// Package config loads client settings from YAML files, the environment
// and .env files, and turns them into [safeaction.ClientOptions].
//
// Sources are applied in order: defaults, then the YAML file, then
// environment variables prefixed with SAFEACTION_.
//
//	# safeaction.yaml
//	validation_errors_shape: flattened
//	server_error_message: Please try again later.
//	log_level: debug
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sam-fredrickson/safeaction"
	"github.com/sam-fredrickson/safeaction/servererror"
)

// EnvPrefix prefixes every environment variable read by [Load].
const EnvPrefix = "SAFEACTION_"

// Settings are the externally configurable client options.
type Settings struct {
	// ValidationErrorsShape is "formatted" or "flattened".
	ValidationErrorsShape string `yaml:"validation_errors_shape" env:"VALIDATION_ERRORS_SHAPE"`
	ThrowValidationErrors bool   `yaml:"throw_validation_errors" env:"THROW_VALIDATION_ERRORS"`

	// ServerErrorMessage replaces the default masked server error message.
	ServerErrorMessage string `yaml:"server_error_message" env:"SERVER_ERROR_MESSAGE"`
	// UnmaskServerErrors exposes error messages to clients. Development only.
	UnmaskServerErrors bool `yaml:"unmask_server_errors" env:"UNMASK_SERVER_ERRORS"`
	LogServerErrors    bool `yaml:"log_server_errors" env:"LOG_SERVER_ERRORS"`

	// LogLevel is the level used by the logging middleware.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		ValidationErrorsShape: string(safeaction.ShapeFormatted),
		ServerErrorMessage:    safeaction.DefaultServerErrorMessage,
		LogServerErrors:       true,
		LogLevel:              "info",
	}
}

// Load reads settings from the YAML file at path, if path is not empty,
// and then from the environment.
func Load(path string) (Settings, error) {
	s := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &s); err != nil {
			return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&s, env.Options{Prefix: EnvPrefix}); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadEnvFile loads variables from .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Validate reports settings that cannot be converted to client options.
func (s Settings) Validate() error {
	switch safeaction.Shape(s.ValidationErrorsShape) {
	case safeaction.ShapeFormatted, safeaction.ShapeFlattened:
	default:
		return fmt.Errorf("invalid validation_errors_shape %q", s.ValidationErrorsShape)
	}
	if _, err := s.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (s Settings) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s.LogLevel, err)
	}
	return level, nil
}

// ClientOptions converts the settings to options for [safeaction.New].
// Fields not covered by the settings keep their defaults.
func (s Settings) ClientOptions() safeaction.ClientOptions {
	opts := safeaction.ClientOptions{
		DefaultValidationErrorsShape: safeaction.Shape(s.ValidationErrorsShape),
		ThrowValidationErrors:        s.ThrowValidationErrors,
	}
	switch {
	case s.UnmaskServerErrors:
		opts.HandleServerError = servererror.Unmasked()
	case s.ServerErrorMessage != "":
		opts.HandleServerError = servererror.Masked(s.ServerErrorMessage)
	}
	if !s.LogServerErrors {
		opts.LogServerError = safeaction.NoopServerErrorLogger
	}
	return opts
}
