package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unknown sections and keys are fatal; an unknown section
// gets a "did you mean?" suggestion, an unknown key in a known section does not.
func Load(path string, logger *slog.Logger) (*Config, error) {
	logger.Debug("loading config file", "path", path)

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	logger.Debug("config file parsed successfully", "path", path,
		"handlers", len(cfg.Pluggable.Handlers))

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns a
// Config populated with all default values.
func LoadOrDefault(path string, logger *slog.Logger) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Debug("config file not found, using defaults", "path", path)

		return DefaultConfig(), nil
	}

	return Load(path, logger)
}

// Resolve applies the override chain: defaults -> config file -> environment.
// CLI-flag overrides, if any, are applied by the caller on the returned
// Config (the CLI layer owns flag parsing; config stays flag-agnostic).
func Resolve(env EnvOverrides, logger *slog.Logger) (*Config, error) {
	path := env.ConfigPath
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg, err := LoadOrDefault(path, logger)
	if err != nil {
		return nil, fmt.Errorf("resolving config: %w", err)
	}

	if env.LogLevel != "" {
		cfg.Logging.Level = env.LogLevel
	}

	return cfg, nil
}

// BuildLogger creates an slog.Logger configured by the resolved config.
func BuildLogger(cfg *Config) *slog.Logger {
	level := slog.LevelInfo

	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
