package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.RawDir == "" {
		return errors.New("paths.raw_dir must be set")
	}
	if c.Paths.DiffDir == "" {
		return errors.New("paths.diff_dir must be set")
	}
	if c.Paths.RawDir == c.Paths.DiffDir {
		return errors.New("paths.raw_dir and paths.diff_dir must differ")
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.TimeoutSeconds < 1 || c.Download.TimeoutSeconds > maxDownloadTimeoutSecs {
		return fmt.Errorf("download.timeout_seconds must be between 1 and %d", maxDownloadTimeoutSecs)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

// HasSession reports whether any download credential is configured.
func (c *Config) HasSession() bool {
	return c.Download.SessionToken != "" || c.Download.SessionCookie != ""
}
