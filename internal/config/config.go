// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"io"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Log formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config is the environment configuration of the ontostore binary.
// Command-line flags override it.
type Config struct {
	// LogLevel is a zerolog level name (trace, debug, info, warn, error).
	LogLevel string `env:"ONTOSTORE_LOG_LEVEL" envDefault:"info"`

	// LogFormat is "console" (human-readable) or "json".
	LogFormat string `env:"ONTOSTORE_LOG_FORMAT" envDefault:"console"`

	// Journal is the default journal path for run and trace.
	// Empty disables journaling for run.
	Journal string `env:"ONTOSTORE_JOURNAL"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks field values.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("ONTOSTORE_LOG_LEVEL: %w", err)
	}
	switch c.LogFormat {
	case FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("ONTOSTORE_LOG_FORMAT: invalid format %q: must be console or json", c.LogFormat)
	}
	return nil
}

// Level returns the parsed log level, falling back to info.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// Logger builds a logger writing to w at the configured level and format.
func (c Config) Logger(w io.Writer) zerolog.Logger {
	if c.LogFormat == FormatJSON {
		return zerolog.New(w).Level(c.Level()).With().Timestamp().Logger()
	}
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(output).Level(c.Level()).With().Timestamp().Logger()
}
