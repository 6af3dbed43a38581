package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every validation failure below so callers
// can errors.Is against a single sentinel.
var ErrInvalidConfig = errors.New("config: invalid")

// Validate checks a fully-resolved Config for the constraints the runtime
// relies on. It does not check that sink URIs are reachable — that is a
// sink-open-time concern (internal/sink.Open), not a config-load concern.
func Validate(cfg *Config) error {
	if cfg.Global.ScratchRoot == "" {
		return fmt.Errorf("%w: global.scratch_root is required", ErrInvalidConfig)
	}

	if cfg.Global.UploadURI == "" {
		return fmt.Errorf("%w: global.upload_uri is required", ErrInvalidConfig)
	}

	if cfg.Global.PublishConcurrency < 1 {
		return fmt.Errorf("%w: global.publish_concurrency must be >= 1, got %d",
			ErrInvalidConfig, cfg.Global.PublishConcurrency)
	}

	if cfg.Global.MaxFileSize != "" {
		if _, err := ParseSize(cfg.Global.MaxFileSize); err != nil {
			return fmt.Errorf("%w: global.max_file_size: %v", ErrInvalidConfig, err)
		}
	}

	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level %q is not one of debug|info|warn|error",
			ErrInvalidConfig, cfg.Logging.Level)
	}

	switch cfg.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: logging.format %q is not one of text|json",
			ErrInvalidConfig, cfg.Logging.Format)
	}

	if cfg.Mail.SMTPHost != "" && cfg.Mail.From == "" {
		return fmt.Errorf("%w: mail.from is required when mail.smtp_host is set", ErrInvalidConfig)
	}

	if len(cfg.Pluggable.Handlers) == 0 {
		return fmt.Errorf("%w: pluggable.handlers must name at least one handler", ErrInvalidConfig)
	}

	return nil
}
