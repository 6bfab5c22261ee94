package config

import (
	"errors"
	"fmt"
	"os"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAssembly(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAssembly() error {
	if c.Assembly.DefaultAnchor < 0 || c.Assembly.DefaultAnchor > 8 {
		return fmt.Errorf("assembly.default_anchor must be between 0 and 8, got %d", c.Assembly.DefaultAnchor)
	}
	if c.Assembly.TemplatePath != "" {
		info, err := os.Stat(c.Assembly.TemplatePath)
		if err != nil {
			return fmt.Errorf("assembly.template_path: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("assembly.template_path %q is a directory", c.Assembly.TemplatePath)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
	return nil
}
