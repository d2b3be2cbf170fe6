package config

import (
	"fmt"

	"github.com/conneroisu/redirector/internal/logging"
	"github.com/conneroisu/redirector/internal/platform"
	"github.com/conneroisu/redirector/internal/validation"
)

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validatePath("template", config.Template); err != nil {
		return err
	}
	if err := validatePath("out_dir", config.OutDir); err != nil {
		return err
	}

	if _, err := platform.Parse(config.DeployPlatform); err != nil {
		return fmt.Errorf("deploy_platform: %w", err)
	}
	if _, err := platform.Parse(config.Platform); err != nil {
		return fmt.Errorf("platform: %w", err)
	}

	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		if err := validation.ValidateHost(config.Host); err != nil {
			return err
		}
	}

	if config.Upstream != "" {
		if _, err := validation.ParseUpstream(config.Upstream); err != nil {
			return err
		}
	}

	if config.RateLimit.RPS < 0 {
		return fmt.Errorf("rate_limit.rps must not be negative")
	}
	if config.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit.burst must not be negative")
	}

	return nil
}

func validateLogConfig(config *LogConfig) error {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		return err
	}
	switch config.Format {
	case logging.FormatConsole, logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", config.Format)
	}
	if _, err := logging.ParseColorMode(config.Color); err != nil {
		return err
	}
	return nil
}

// validatePath validates a project relative path
func validatePath(field, path string) error {
	if err := validation.ValidatePath(path); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}
